// Package txnlog implements a minimal, restartable, append-only
// transaction log: the concrete stand-in for the "on-disk transaction
// log" spec.md says is consumed only through the logview.TxnLogSource
// iterator interface. It does not attempt to reproduce ZooKeeper's real
// log file format — encoding the wire format is explicitly out of scope
// (spec.md §1) — only enough to exercise gap detection, size-budget
// enforcement and the cross-epoch guard end to end.
package txnlog

import "github.com/muzammilar/zookeeper/zxid"

// record is the on-disk, msgpack-framed unit. Exported field names so
// msgpack can encode/decode it without a custom codec.
type record struct {
	Zxid    uint64
	Payload []byte
}

func (r record) zxid() zxid.Zxid {
	return zxid.Zxid(r.Zxid)
}
