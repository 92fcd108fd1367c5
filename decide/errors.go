package decide

import "errors"

// Error kinds per spec.md §7. TxnLogGap, CrossEpochTrunc and
// BudgetExceeded are downgrade-silently-to-SNAP conditions: Decide never
// returns them to the caller, it just picks SNAP. They are exported only
// so tests and logging can name what happened.
var (
	// ErrSyncInputInconsistent is returned when the on-disk txn log
	// cannot be read while building a plan. The caller should drop the
	// learner connection.
	ErrSyncInputInconsistent = errors.New("decide: sync input inconsistent")

	// ErrFatal is returned when the LogView itself reports a condition
	// that makes continuing untenable (e.g. the epoch set cannot be
	// determined). Leadership is untenable; the caller should propagate.
	ErrFatal = errors.New("decide: fatal")
)
