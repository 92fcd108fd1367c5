// Package decide implements the leader-side follower-synchronization
// decision core: given a reconnecting learner's last-known zxid, choose
// DIFF, TRUNC, TRUNC+DIFF or SNAP and build the exact packet sequence for
// it (spec.md §4.3). It never touches a socket or a disk itself — it
// reads through the logview.LogView facade and returns the packets in a
// Plan, exactly the boundary spec.md §2 draws around "D".
package decide

import (
	"fmt"

	"github.com/muzammilar/zookeeper/logview"
	"github.com/muzammilar/zookeeper/proposal"
	"github.com/muzammilar/zookeeper/quorum"
	"github.com/muzammilar/zookeeper/zxid"
)

// Decider runs the sync decision algorithm against a LogView.
type Decider struct {
	view logview.LogView
}

// New returns a Decider reading through view.
func New(view logview.LogView) *Decider {
	return &Decider{view: view}
}

// Decide builds the sync Plan for a learner whose last-known zxid is
// peerZxid. It acquires the view's shared lock for the entire call, per
// spec.md §5: no suspension point may occur between reading the view and
// finishing the plan, since the broadcast pipeline could otherwise append
// a proposal mid-decision and the plan would ship a window that never
// existed.
//
// Decide never returns a partial or speculative plan: any condition it
// cannot safely resolve (a cross-epoch jump, a disk gap, an oversized
// diff) collapses to a SNAP plan rather than a best-effort DIFF/TRUNC.
// The exceptions are errors: ErrSyncInputInconsistent when the on-disk
// log cannot be read, and ErrFatal for conditions that make the leader's
// own bookkeeping untrustworthy; the caller should treat either as fatal
// to the session, not retry.
func (d *Decider) Decide(peerZxid zxid.Zxid) (Plan, error) {
	d.view.RLock()
	defer d.view.RUnlock()

	lpz := d.view.LastProcessedZxid()
	windowEmpty := d.view.CommittedWindowEmpty()
	maxC := d.view.CommittedWindowMax()
	minC := d.view.CommittedWindowMin()

	// Peer is at or beyond lastProcessedZxid: either it's caught up
	// exactly (spec.md §4.3 step 2) or it's ahead of the leader (step
	// 3). Neither case depends on the committed window at all — nothing
	// newer than lpz exists anywhere to stream.
	if !zxid.Less(peerZxid, lpz) {
		if zxid.Less(lpz, peerZxid) {
			return Plan{
				Strategy:        StrategyTruncDiff,
				Packets:         []quorum.Packet{{Type: quorum.TRUNC, Zxid: lpz}},
				ForwardFromZxid: lpz,
			}, nil
		}
		return Plan{
			Strategy:        StrategyDiff,
			Packets:         []quorum.Packet{{Type: quorum.DIFF, Zxid: lpz}},
			ForwardFromZxid: lpz,
		}, nil
	}

	// peerZxid < lpz from here on.

	// Peer is within the committed window's range.
	if !windowEmpty && !zxid.Less(peerZxid, minC) && !zxid.Less(maxC, peerZxid) {
		return d.planFromWindow(peerZxid, maxC)
	}

	// Peer is below the window (or there is no window at all). The
	// on-disk txn log may still bridge the gap.
	if windowEmpty || zxid.Less(peerZxid, minC) {
		plan, ok, err := d.planFromTxnLog(peerZxid, windowEmpty, maxC, minC, lpz)
		if err != nil {
			return Plan{}, err
		}
		if ok {
			return plan, nil
		}
		return snapPlan(), nil
	}

	// peerZxid falls strictly between the window's max and lpz: a
	// region no committed record — window or log — is guaranteed to
	// cover (spec.md §3 invariant I3 only bounds lpz from below by
	// maxC, not the other way around). Nothing safely resolves this but
	// a snapshot.
	return snapPlan(), nil
}

func snapPlan() Plan {
	return Plan{Strategy: StrategySnap}
}

// planFromWindow implements spec.md §4.3 step 4: peerZxid is within
// [minC, maxC]. If peerZxid is present in the window verbatim, the peer
// simply forked at nothing — emit DIFF anchored at maxC. If it forked
// (some window entry has a strictly greater zxid and none matches),
// TRUNC to the greatest window zxid below peerZxid. Either way, stream
// every window proposal strictly newer than peerZxid.
func (d *Decider) planFromWindow(peerZxid, maxC zxid.Zxid) (Plan, error) {
	found, precedingMax := d.view.CommittedWindowContains(peerZxid)

	var packets []quorum.Packet
	if !found {
		packets = append(packets, quorum.Packet{Type: quorum.TRUNC, Zxid: precedingMax})
	} else {
		packets = append(packets, quorum.Packet{Type: quorum.DIFF, Zxid: maxC})
	}

	for _, p := range d.view.IterateCommittedFrom(peerZxid) {
		packets = append(packets,
			quorum.Packet{Type: quorum.PROPOSAL, Zxid: p.Zxid, Payload: p.Payload},
			quorum.Packet{Type: quorum.COMMIT, Zxid: p.Zxid},
		)
	}

	strategy := StrategyDiff
	if !found {
		strategy = StrategyTruncDiff
	}
	return Plan{Strategy: strategy, Packets: packets, ForwardFromZxid: maxC}, nil
}

// planFromTxnLog implements spec.md §4.3 step 5: peerZxid predates the
// committed window (or the window is empty). It returns ok=false when no
// condition lets it build a safe plan, in which case the caller falls
// back to SNAP.
func (d *Decider) planFromTxnLog(peerZxid zxid.Zxid, windowEmpty bool, maxC, minC, lpz zxid.Zxid) (Plan, bool, error) {
	if d.view.TxnLogSizeBudget() == 0 {
		return Plan{}, false, nil
	}

	if guarded, err := d.crossEpochGuardTriggers(peerZxid); err != nil {
		return Plan{}, false, err
	} else if guarded {
		return Plan{}, false, nil
	}

	it, err := d.view.IterateTxnLogFrom(peerZxid)
	if err != nil {
		return Plan{}, false, fmt.Errorf("%w: %v", ErrSyncInputInconsistent, err)
	}
	defer it.Close()

	anchor := lpz
	if !windowEmpty {
		anchor = maxC
	}

	s := &txnLogScan{
		it:          it,
		peerZxid:    peerZxid,
		windowEmpty: windowEmpty,
		minC:        minC,
		anchor:      anchor,
		budget:      d.view.TxnLogSizeBudget(),
	}
	plan, ok, err := s.run(d.view)
	if err != nil {
		return Plan{}, false, err
	}
	return plan, ok, nil
}

// crossEpochGuardTriggers implements spec.md §4.3's cross-epoch TRUNC
// guard: if peerZxid's epoch appears nowhere in the window or the txn
// log, and peerZxid is ahead of the earliest zxid we could possibly
// serve from, there is no record anywhere that could tell us whether the
// peer forked inside that unknown epoch — only a snapshot is safe.
func (d *Decider) crossEpochGuardTriggers(peerZxid zxid.Zxid) (bool, error) {
	txnEpochs, err := d.view.TxnLogEpochs()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFatal, err)
	}

	peerEpoch := zxid.EpochOf(peerZxid)
	if _, ok := d.view.CommittedWindowEpochs()[peerEpoch]; ok {
		return false, nil
	}
	if _, ok := txnEpochs[peerEpoch]; ok {
		return false, nil
	}

	earliest, ok := d.view.TxnLogOldestZxid()
	if !ok {
		if !d.view.CommittedWindowEmpty() {
			earliest = d.view.CommittedWindowMin()
		} else {
			earliest = zxid.Empty
		}
	}
	return zxid.Less(earliest, peerZxid), nil
}

// txnLogScan walks the txn-log iterator on peerZxid's behalf, determining
// whether the peer matched or forked and streaming everything newer, per
// spec.md §4.3 step 5. It hands off to the committed window the moment the
// disk cursor reaches the window's range, so the same proposal is never
// shipped twice.
type txnLogScan struct {
	it          logview.TxnIterator
	peerZxid    zxid.Zxid
	windowEmpty bool
	minC        zxid.Zxid
	anchor      zxid.Zxid
	budget      uint64

	shipped uint64
}

func (s *txnLogScan) run(view logview.LogView) (Plan, bool, error) {
	// A NEW_LEADER marker (counter 0) never has a matching proposal on
	// disk by construction (spec.md §3 invariant I4) — it sits exactly
	// at an epoch boundary and must never be treated as forked.
	isMarker := zxid.CounterOf(s.peerZxid) == 0

	var precedingMax zxid.Zxid
	matched := false
	forked := false
	var first proposal.Proposal
	haveFirst := false

	for {
		p, ok := s.it.Next()
		if !ok {
			if err := s.it.Err(); err != nil {
				return Plan{}, false, fmt.Errorf("%w: %v", ErrSyncInputInconsistent, err)
			}
			if !matched && !forked && !isMarker {
				// The log never reached peerZxid at all.
				return Plan{}, false, nil
			}
			matched = matched || isMarker
			break
		}
		switch {
		case p.Zxid == s.peerZxid:
			matched = true
			continue
		case zxid.Less(p.Zxid, s.peerZxid):
			precedingMax = zxid.Max(precedingMax, p.Zxid)
			continue
		default: // p.Zxid > peerZxid
			// A marker sits exactly at an epoch boundary with no
			// proposal of its own (spec.md §3 invariant I4); the first
			// entry past it is a continuation, not a fork. If an
			// earlier iteration already matched peerZxid exactly, this
			// record is just the next entry in an unbroken stream —
			// forked/matched must stay as the match left them.
			if !matched {
				forked = !isMarker
				matched = isMarker
			}
			first = p
			haveFirst = true
		}
		break
	}

	var packets []quorum.Packet
	if forked {
		packets = append(packets, quorum.Packet{Type: quorum.TRUNC, Zxid: precedingMax})
	} else {
		packets = append(packets, quorum.Packet{Type: quorum.DIFF, Zxid: s.anchor})
	}

	cursor := s.peerZxid
	emit := func(p proposal.Proposal) bool {
		s.shipped += uint64(p.Size())
		if s.budget > 0 && s.shipped > s.budget {
			return false
		}
		packets = append(packets, quorum.Packet{Type: quorum.PROPOSAL, Zxid: p.Zxid, Payload: p.Payload})
		packets = append(packets, quorum.Packet{Type: quorum.COMMIT, Zxid: p.Zxid})
		cursor = p.Zxid
		return true
	}

	next := first
	haveNext := haveFirst
	for haveNext {
		p := next

		if !s.windowEmpty && !zxid.Less(p.Zxid, s.minC) {
			if p.Zxid != s.minC {
				// Disk jumped clean over the window's start: a real gap.
				return Plan{}, false, nil
			}
			break // clean handoff to the committed window below
		}
		if s.windowEmpty && zxid.Less(s.anchor, p.Zxid) {
			haveNext = false
			break
		}
		if !emit(p) {
			return Plan{}, false, nil
		}

		p2, ok := s.it.Next()
		if !ok {
			if err := s.it.Err(); err != nil {
				return Plan{}, false, fmt.Errorf("%w: %v", ErrSyncInputInconsistent, err)
			}
			haveNext = false
			break
		}
		next = p2
	}

	if !s.windowEmpty {
		if !haveNext {
			// The disk log ran out before reaching the window. Adjacent
			// to the window's start (off by exactly one counter in the
			// same epoch) is fine — the window itself covers the rest.
			// Anything further behind is an unbridgeable gap.
			if !adjacentOrAt(cursor, s.minC) {
				return Plan{}, false, nil
			}
		}
		for _, p := range view.IterateCommittedFrom(cursor) {
			if !emit(p) {
				return Plan{}, false, nil
			}
		}
	}

	strategy := StrategyDiff
	if forked {
		strategy = StrategyTruncDiff
	}
	return Plan{Strategy: strategy, Packets: packets, ForwardFromZxid: s.anchor}, true, nil
}

// adjacentOrAt reports whether cursor already equals target, or sits
// exactly one counter behind it in the same epoch — the boundary
// spec.md's gap check ("less than minC - 1") treats as not a gap.
func adjacentOrAt(cursor, target zxid.Zxid) bool {
	if cursor == target {
		return true
	}
	if zxid.EpochOf(cursor) != zxid.EpochOf(target) {
		return false
	}
	return zxid.CounterOf(cursor)+1 == zxid.CounterOf(target)
}
