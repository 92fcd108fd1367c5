package txnlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/muzammilar/zookeeper/logview"
	"github.com/muzammilar/zookeeper/proposal"
	"github.com/muzammilar/zookeeper/zxid"
)

// Store is a file-backed, append-only sequence of proposals, strictly
// increasing by zxid, retained independently of (and typically longer
// than) the in-memory committed window (spec.md §3). It implements
// logview.TxnLogSource.
//
// Store persists records the same way the teacher persists server state
// (msgpack against an *os.File) generalized from a single rewritten
// struct to a streamed, append-only sequence.
type Store struct {
	mu   sync.Mutex
	path string

	oldest    zxid.Zxid
	hasOldest bool
}

// Open returns a Store backed by path, creating it if necessary. Any
// existing records are left in place; Store never truncates an existing
// log on open.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("txnlog: open %s: %w", path, err)
	}
	defer f.Close()

	s := &Store{path: path}
	dec := msgpack.NewDecoder(f)
	for {
		var r record
		if err := dec.Decode(&r); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("txnlog: scan %s: %w", path, err)
		}
		if !s.hasOldest {
			s.oldest = r.zxid()
			s.hasOldest = true
		}
	}
	return s, nil
}

// Append writes p to the end of the log. Callers are responsible for only
// ever appending strictly increasing zxids (spec.md §3).
func (s *Store) Append(p proposal.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("txnlog: open %s for append: %w", s.path, err)
	}
	defer f.Close()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(record{Zxid: uint64(p.Zxid), Payload: p.Payload}); err != nil {
		return fmt.Errorf("txnlog: append: %w", err)
	}
	if !s.hasOldest {
		s.oldest = p.Zxid
		s.hasOldest = true
	}
	return nil
}

// OldestZxid implements logview.TxnLogSource.
func (s *Store) OldestZxid() (zxid.Zxid, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.oldest, s.hasOldest
}

// Epochs implements logview.TxnLogSource by scanning the full log. This is
// acceptable for a decision core operating over a bounded retained log;
// it is not meant to scale to the production log-file sizes the real
// snapshot/log encoders (out of scope, spec.md §1) are built for.
func (s *Store) Epochs() (map[uint32]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("txnlog: open %s: %w", s.path, err)
	}
	defer f.Close()

	epochs := make(map[uint32]struct{})
	dec := msgpack.NewDecoder(f)
	for {
		var r record
		if err := dec.Decode(&r); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("txnlog: scan %s: %w", s.path, err)
		}
		epochs[zxid.EpochOf(r.zxid())] = struct{}{}
	}
	return epochs, nil
}

// IterateFrom implements logview.TxnLogSource. Per spec.md §4.2, it
// returns an empty iterator when after predates the log's oldest retained
// entry — the leader has no way to bridge that gap from disk and the
// caller must fall back to SNAP. Otherwise it returns an iterator over the
// entire retained log, oldest entry first; the decider (package decide)
// is responsible for locating where peerZxid falls within it (exact
// match, fork, or past the tail) exactly as spec.md §4.3 step 5 describes.
func (s *Store) IterateFrom(after zxid.Zxid, sizeLimit uint64) (logview.TxnIterator, error) {
	oldest, ok := s.OldestZxid()
	if !ok || zxid.Less(after, oldest) {
		return emptyTxnIterator{}, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("txnlog: open %s: %w", s.path, err)
	}
	return &fileIterator{file: f, dec: msgpack.NewDecoder(f)}, nil
}
