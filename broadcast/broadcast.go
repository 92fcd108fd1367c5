// Package broadcast defines the boundary between the sync decider and
// the leader's proposal-forwarding pipeline (spec.md §1, §4.3, §5). The
// pipeline itself — accepting client writes, assigning zxids, replicating
// to followers — is out of scope for this core; only the handoff point
// is.
package broadcast

import "github.com/muzammilar/zookeeper/zxid"

// Forwarder is notified of the zxid a freshly synced learner should
// start receiving newly committed proposals from. The value is the
// maximum zxid already shipped in the sync plan (or the DIFF/TRUNC
// anchor if none were), per spec.md §5's ordering guarantee: everything
// with a strictly greater zxid, in commit order, from here on.
type Forwarder interface {
	NotifyForwardFrom(z zxid.Zxid)
}
