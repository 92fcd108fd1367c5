// Package logview is the read-only facade (L in spec.md §2) over the
// leader's in-memory committed proposal window, the on-disk transaction
// log, and the data tree's lastProcessedZxid. It owns the shared/exclusive
// lock that guards all three for the duration of a sync plan's
// construction (spec.md §4.2, §5).
package logview

import (
	"sync"

	"github.com/muzammilar/zookeeper/proposal"
	"github.com/muzammilar/zookeeper/zxid"
)

// TxnIterator is a restartable forward iterator over the on-disk
// transaction log. It owns a resource (typically an open file handle) that
// must be released on every exit path; Close is always safe to call more
// than once.
type TxnIterator interface {
	// Next returns the next proposal in ascending zxid order, or
	// ok=false when the iterator is exhausted.
	Next() (p proposal.Proposal, ok bool)
	// Err reports any error encountered during iteration.
	Err() error
	// Close releases the iterator's resources. Safe to call multiple
	// times.
	Close() error
}

// TxnLogSource produces iterators over the on-disk transaction log. The
// txnlog package provides the concrete, file-backed implementation; L only
// depends on this narrow interface, per spec.md's "consume them as
// iterators" boundary.
type TxnLogSource interface {
	// IterateFrom returns an iterator over the entire retained log,
	// oldest entry first, when after is at or above the log's oldest
	// entry; the caller skips entries at or below after itself. sizeLimit
	// is a hint the source may use to bound how much it reads ahead.
	// Returns an empty iterator (no error) if after predates the log's
	// oldest entry.
	IterateFrom(after zxid.Zxid, sizeLimit uint64) (TxnIterator, error)

	// OldestZxid returns the smallest zxid retained on disk, or
	// ok=false if the log is empty. Used for the cross-epoch TRUNC guard
	// (spec.md §4.3).
	OldestZxid() (z zxid.Zxid, ok bool)

	// Epochs returns the set of epochs present on disk. Used for the
	// cross-epoch TRUNC guard.
	Epochs() (map[uint32]struct{}, error)
}

// LogView is the interface D (package decide) consumes. All methods other
// than RLock/RUnlock/Lock/Unlock/AppendCommitted require the caller to
// already hold at least the shared lock.
type LogView interface {
	// RLock/RUnlock acquire/release the shared lock. D holds this for
	// the entire duration of plan construction (spec.md §5).
	RLock()
	RUnlock()

	// Lock/Unlock acquire/release the exclusive lock. The broadcast
	// pipeline holds this while appending newly committed proposals.
	Lock()
	Unlock()

	LastProcessedZxid() zxid.Zxid
	CommittedWindowMin() zxid.Zxid
	CommittedWindowMax() zxid.Zxid
	CommittedWindowEmpty() bool

	// IterateCommittedFrom returns every committed-window proposal with
	// zxid strictly greater than z, in ascending order.
	IterateCommittedFrom(z zxid.Zxid) []proposal.Proposal

	// CommittedWindowContains reports whether z appears in the window,
	// and if not, the greatest window zxid strictly less than z.
	CommittedWindowContains(z zxid.Zxid) (found bool, precedingMax zxid.Zxid)

	// CommittedWindowEpochs returns the set of epochs represented in the
	// committed window.
	CommittedWindowEpochs() map[uint32]struct{}

	// IterateTxnLogFrom opens a scoped iterator over the on-disk log.
	// Callers must Close it on every exit path.
	IterateTxnLogFrom(z zxid.Zxid) (TxnIterator, error)

	// TxnLogSizeBudget is the largest total payload size the leader is
	// willing to ship via DIFF rather than SNAP. 0 disables txn-log
	// based sync entirely.
	TxnLogSizeBudget() uint64

	// TxnLogOldestZxid returns the smallest zxid retained in the on-disk
	// log, or ok=false if there is no txn log source or it is empty.
	TxnLogOldestZxid() (z zxid.Zxid, ok bool)

	// TxnLogEpochs returns the set of epochs present in the on-disk log.
	TxnLogEpochs() (map[uint32]struct{}, error)

	// AppendCommitted records a newly committed proposal and advances
	// lastProcessedZxid. Callers must hold the exclusive lock.
	AppendCommitted(p proposal.Proposal)

	// SetLastProcessedZxid sets lastProcessedZxid directly, used for the
	// synthetic NEW_LEADER marker after an election (spec.md §3, I4).
	// Callers must hold the exclusive lock.
	SetLastProcessedZxid(z zxid.Zxid)
}

type logView struct {
	mu                sync.RWMutex
	committed         *CommittedWindow
	lastProcessedZxid zxid.Zxid
	txnSource         TxnLogSource
	txnLogSizeBudget  uint64
}

// New returns a LogView backed by an empty committed window of the given
// retention size and the given on-disk transaction log source. A nil
// txnSource with budget 0 disables txn-log-based sync entirely, forcing
// SNAP whenever the committed window cannot serve a peer (spec.md §4.2).
func New(windowSize int, txnSource TxnLogSource, txnLogSizeBudget uint64) LogView {
	return &logView{
		committed:        NewCommittedWindow(windowSize),
		txnSource:        txnSource,
		txnLogSizeBudget: txnLogSizeBudget,
	}
}

func (l *logView) RLock()   { l.mu.RLock() }
func (l *logView) RUnlock() { l.mu.RUnlock() }
func (l *logView) Lock()    { l.mu.Lock() }
func (l *logView) Unlock()  { l.mu.Unlock() }

func (l *logView) LastProcessedZxid() zxid.Zxid {
	return l.lastProcessedZxid
}

func (l *logView) CommittedWindowMin() zxid.Zxid {
	return l.committed.Min().Zxid
}

func (l *logView) CommittedWindowMax() zxid.Zxid {
	return l.committed.Max().Zxid
}

func (l *logView) CommittedWindowEmpty() bool {
	return l.committed.Empty()
}

func (l *logView) IterateCommittedFrom(z zxid.Zxid) []proposal.Proposal {
	return l.committed.IterateFrom(z)
}

func (l *logView) CommittedWindowContains(z zxid.Zxid) (bool, zxid.Zxid) {
	return l.committed.Contains(z)
}

func (l *logView) CommittedWindowEpochs() map[uint32]struct{} {
	return l.committed.Epochs()
}

func (l *logView) IterateTxnLogFrom(z zxid.Zxid) (TxnIterator, error) {
	if l.txnSource == nil || l.txnLogSizeBudget == 0 {
		return emptyIterator{}, nil
	}
	return l.txnSource.IterateFrom(z, l.txnLogSizeBudget)
}

func (l *logView) TxnLogSizeBudget() uint64 {
	return l.txnLogSizeBudget
}

func (l *logView) TxnLogOldestZxid() (zxid.Zxid, bool) {
	if l.txnSource == nil || l.txnLogSizeBudget == 0 {
		return 0, false
	}
	return l.txnSource.OldestZxid()
}

func (l *logView) TxnLogEpochs() (map[uint32]struct{}, error) {
	if l.txnSource == nil || l.txnLogSizeBudget == 0 {
		return nil, nil
	}
	return l.txnSource.Epochs()
}

func (l *logView) AppendCommitted(p proposal.Proposal) {
	l.committed.Append(p)
	if zxid.Less(l.lastProcessedZxid, p.Zxid) {
		l.lastProcessedZxid = p.Zxid
	}
}

func (l *logView) SetLastProcessedZxid(z zxid.Zxid) {
	l.lastProcessedZxid = z
}

// emptyIterator is returned when no txn log source is configured or the
// size budget is 0 (as opposed to a configured source reporting its log
// has nothing from the requested zxid onward).
type emptyIterator struct{}

func (emptyIterator) Next() (proposal.Proposal, bool) { return proposal.Proposal{}, false }
func (emptyIterator) Err() error                      { return nil }
func (emptyIterator) Close() error                    { return nil }
