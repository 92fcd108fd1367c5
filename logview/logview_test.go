package logview_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/muzammilar/zookeeper/logview"
	"github.com/muzammilar/zookeeper/proposal"
	"github.com/muzammilar/zookeeper/zxid"
)

func mkProp(c uint32) proposal.Proposal {
	return proposal.Proposal{Zxid: zxid.Make(0, c)}
}

func Test_CommittedWindow_MinMaxEmpty(t *testing.T) {
	w := logview.NewCommittedWindow(0)
	assert.True(t, w.Empty())
	assert.Equal(t, zxid.Zxid(0), w.Min().Zxid)
	assert.Equal(t, zxid.Zxid(0), w.Max().Zxid)
}

func Test_CommittedWindow_IterateFromExcludesBoundary(t *testing.T) {
	w := logview.NewCommittedWindow(0)
	w.Append(mkProp(2))
	w.Append(mkProp(3))
	w.Append(mkProp(5))

	got := w.IterateFrom(zxid.Make(0, 2))
	assert.Len(t, got, 2)
	assert.Equal(t, zxid.Make(0, 3), got[0].Zxid)
	assert.Equal(t, zxid.Make(0, 5), got[1].Zxid)
}

func Test_CommittedWindow_EvictsOldestOnBound(t *testing.T) {
	w := logview.NewCommittedWindow(2)
	w.Append(mkProp(1))
	w.Append(mkProp(2))
	w.Append(mkProp(3))

	assert.Equal(t, zxid.Make(0, 2), w.Min().Zxid)
	assert.Equal(t, zxid.Make(0, 3), w.Max().Zxid)
}

func Test_CommittedWindow_Contains(t *testing.T) {
	w := logview.NewCommittedWindow(0)
	w.Append(mkProp(2))
	w.Append(mkProp(3))
	w.Append(mkProp(5))

	found, _ := w.Contains(zxid.Make(0, 3))
	assert.True(t, found)

	found, preceding := w.Contains(zxid.Make(0, 4))
	assert.False(t, found)
	assert.Equal(t, zxid.Make(0, 3), preceding)
}

func Test_LogView_AppendCommittedAdvancesLastProcessed(t *testing.T) {
	lv := logview.New(0, nil, 0)
	lv.Lock()
	lv.AppendCommitted(mkProp(1))
	lv.AppendCommitted(mkProp(2))
	lv.Unlock()

	lv.RLock()
	defer lv.RUnlock()
	assert.Equal(t, zxid.Make(0, 2), lv.LastProcessedZxid())
	assert.Equal(t, zxid.Make(0, 1), lv.CommittedWindowMin())
	assert.Equal(t, zxid.Make(0, 2), lv.CommittedWindowMax())
}

func Test_LogView_NoTxnSourceGivesEmptyIterator(t *testing.T) {
	lv := logview.New(0, nil, 0)
	it, err := lv.IterateTxnLogFrom(zxid.Make(0, 1))
	assert.NoError(t, err)
	_, ok := it.Next()
	assert.False(t, ok)
	assert.NoError(t, it.Close())
}
