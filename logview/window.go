package logview

import (
	"log/slog"

	"github.com/muzammilar/zookeeper/proposal"
	"github.com/muzammilar/zookeeper/zxid"
)

// CommittedWindow is the bounded, strictly-increasing, in-memory ring of
// recently committed proposals kept for DIFF sync (spec.md §3, invariant
// I1). It is not safe for concurrent use on its own; callers serialize
// access through LogView's lock.
type CommittedWindow struct {
	proposals []proposal.Proposal
	maxSize   int
}

// NewCommittedWindow returns an empty window that evicts its oldest entry
// once more than maxSize proposals have been appended. maxSize <= 0 means
// unbounded.
func NewCommittedWindow(maxSize int) *CommittedWindow {
	return &CommittedWindow{maxSize: maxSize}
}

// Append adds a newly committed proposal, evicting the oldest entry if the
// window has grown past its retention size. A zxid that does not exceed
// the current maximum (a duplicate) is kept but logged as a warning.
func (w *CommittedWindow) Append(p proposal.Proposal) {
	if n := len(w.proposals); n > 0 && !zxid.Less(w.proposals[n-1].Zxid, p.Zxid) {
		slog.Warn("committed window append is not strictly increasing",
			slog.String("zxid", p.Zxid.String()),
			slog.String("max", w.proposals[n-1].Zxid.String()))
	}
	w.proposals = append(w.proposals, p)
	if w.maxSize > 0 && len(w.proposals) > w.maxSize {
		w.proposals = w.proposals[len(w.proposals)-w.maxSize:]
	}
}

// Min returns the proposal with the smallest zxid in the window, or the
// zero Proposal (zxid 0) if empty.
func (w *CommittedWindow) Min() proposal.Proposal {
	if len(w.proposals) == 0 {
		return proposal.Proposal{}
	}
	return w.proposals[0]
}

// Max returns the proposal with the largest zxid in the window, or the
// zero Proposal (zxid 0) if empty.
func (w *CommittedWindow) Max() proposal.Proposal {
	if len(w.proposals) == 0 {
		return proposal.Proposal{}
	}
	return w.proposals[len(w.proposals)-1]
}

// Empty reports whether the window holds no proposals.
func (w *CommittedWindow) Empty() bool {
	return len(w.proposals) == 0
}

// All returns the window's proposals in ascending zxid order. Callers must
// not mutate the returned slice.
func (w *CommittedWindow) All() []proposal.Proposal {
	return w.proposals
}

// IterateFrom returns every proposal with zxid strictly greater than after,
// in ascending order. Duplicate zxids (spec.md §4.3 "Duplicate tolerance")
// are preserved, not collapsed.
func (w *CommittedWindow) IterateFrom(after zxid.Zxid) []proposal.Proposal {
	var out []proposal.Proposal
	for _, p := range w.proposals {
		if zxid.Less(after, p.Zxid) {
			out = append(out, p)
		}
	}
	return out
}

// Epochs returns the set of epochs represented in the window. Used by the
// decider's cross-epoch TRUNC guard (spec.md §4.3).
func (w *CommittedWindow) Epochs() map[uint32]struct{} {
	if len(w.proposals) == 0 {
		return nil
	}
	epochs := make(map[uint32]struct{})
	for _, p := range w.proposals {
		epochs[zxid.EpochOf(p.Zxid)] = struct{}{}
	}
	return epochs
}

// Contains reports whether the window has a proposal with exactly this
// zxid, and, whether or not it does, the greatest zxid present strictly
// less than it (0 if none) — used by the decider to find a TRUNC target
// when the peer's zxid forks off the window.
func (w *CommittedWindow) Contains(z zxid.Zxid) (found bool, precedingMax zxid.Zxid) {
	for _, p := range w.proposals {
		switch {
		case p.Zxid == z:
			found = true
		case zxid.Less(p.Zxid, z):
			precedingMax = zxid.Max(precedingMax, p.Zxid)
		}
	}
	return found, precedingMax
}
