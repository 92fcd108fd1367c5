// Package proposal defines the unit the leader's committed window and
// transaction log are made of.
package proposal

import "github.com/muzammilar/zookeeper/zxid"

// Proposal is an accepted, immutable transaction record.
type Proposal struct {
	Zxid    zxid.Zxid
	Payload []byte
}

// Size returns the payload size used against the txn-log size budget.
func (p Proposal) Size() int {
	return len(p.Payload)
}
