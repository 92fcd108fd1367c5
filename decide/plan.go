package decide

import (
	"github.com/muzammilar/zookeeper/quorum"
	"github.com/muzammilar/zookeeper/zxid"
)

// Strategy names which of the three recovery strategies a Plan implements.
// A TRUNC-only plan (peer ahead of the leader) is StrategyTruncDiff.
type Strategy int

const (
	StrategyDiff Strategy = iota
	StrategyTruncDiff
	StrategySnap
)

func (s Strategy) String() string {
	switch s {
	case StrategyDiff:
		return "DIFF"
	case StrategyTruncDiff:
		return "TRUNC+DIFF"
	case StrategySnap:
		return "SNAP"
	default:
		return "UNKNOWN"
	}
}

// Plan is the outcome of Decide: the exact packet sequence to send a
// reconnecting learner and the zxid the broadcast layer should resume
// forwarding proposals from. A SNAP plan carries no packets of its own —
// the caller is responsible for streaming the snapshot and the trailing
// NEWLEADER/UPTODATE handshake, neither of which the decider builds
// (spec.md §1, Non-goals).
type Plan struct {
	Strategy        Strategy
	Packets         []quorum.Packet
	ForwardFromZxid zxid.Zxid
}
