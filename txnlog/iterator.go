package txnlog

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/muzammilar/zookeeper/proposal"
)

// fileIterator is the scoped, file-owning iterator spec.md §4.2/§5/§9
// requires: it holds an open *os.File and must be released on every exit
// path. Close is idempotent.
type fileIterator struct {
	mu   sync.Mutex
	file *os.File
	dec  *msgpack.Decoder
	err  error
	done bool
}

func (it *fileIterator) Next() (proposal.Proposal, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.done || it.err != nil {
		return proposal.Proposal{}, false
	}

	var r record
	if err := it.dec.Decode(&r); err != nil {
		it.done = true
		if !errors.Is(err, io.EOF) {
			it.err = err
		}
		return proposal.Proposal{}, false
	}
	return proposal.Proposal{Zxid: r.zxid(), Payload: r.Payload}, true
}

func (it *fileIterator) Err() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.err
}

func (it *fileIterator) Close() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.file == nil {
		return nil
	}
	err := it.file.Close()
	it.file = nil
	return err
}

// emptyTxnIterator is returned when after predates the log's oldest
// retained entry; it owns no resources.
type emptyTxnIterator struct{}

func (emptyTxnIterator) Next() (proposal.Proposal, bool) { return proposal.Proposal{}, false }
func (emptyTxnIterator) Err() error                      { return nil }
func (emptyTxnIterator) Close() error                    { return nil }
