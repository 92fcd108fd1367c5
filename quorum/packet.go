// Package quorum defines the packet shapes the sync decider enqueues and
// the queue it enqueues them onto. The type tags match the wire values of
// the surrounding ZAB implementation; this package treats them as given
// interface constants, not a design choice (spec.md §6).
package quorum

import "github.com/muzammilar/zookeeper/zxid"

// PacketType is one of the QuorumPacket wire tags the core can emit or
// reference. NEWLEADER and UPTODATE are never emitted by the decider
// (decide package); they exist here only to delimit its responsibility.
type PacketType int

const (
	SNAP PacketType = iota
	DIFF
	TRUNC
	PROPOSAL
	COMMIT
	NEWLEADER
	UPTODATE
)

func (t PacketType) String() string {
	switch t {
	case SNAP:
		return "SNAP"
	case DIFF:
		return "DIFF"
	case TRUNC:
		return "TRUNC"
	case PROPOSAL:
		return "PROPOSAL"
	case COMMIT:
		return "COMMIT"
	case NEWLEADER:
		return "NEWLEADER"
	case UPTODATE:
		return "UPTODATE"
	default:
		return "UNKNOWN"
	}
}

// Packet is a single queued unit. Payload is only populated for PROPOSAL
// packets; DIFF/TRUNC/COMMIT carry only a Zxid.
type Packet struct {
	Type    PacketType
	Zxid    zxid.Zxid
	Payload []byte
}
