package model

import "github.com/muzammilar/zookeeper/zxid"

// FollowerInfoRequest is sent by a reconnecting learner to report its
// last-known zxid and kick off the leader's sync decision.
type FollowerInfoRequest struct {
	LearnerID int       // sid of the connecting learner
	LastZxid  zxid.Zxid // last transaction the learner has processed
}

// FollowerInfoResponse acknowledges receipt; the actual DIFF/TRUNC/SNAP
// packets follow separately over the learner's packet stream.
type FollowerInfoResponse struct {
	Accepted bool
	Reason   string // populated only when Accepted is false
}
