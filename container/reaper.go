// Package container implements the leader-only container/TTL reaper
// (spec.md §4.4): a periodic sweep that finds empty container znodes and
// expired TTL znodes and proposes their deletion at a bounded rate.
package container

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/muzammilar/zookeeper/clock"
	"github.com/muzammilar/zookeeper/datatree"
	"github.com/muzammilar/zookeeper/model"
	"github.com/muzammilar/zookeeper/pipeline"
)

// ErrInterrupted is returned by a sweep cancelled mid-pass via Stop.
var ErrInterrupted = errors.New("container: sweep interrupted")

// Manager runs the sweep. It is meant to be run only on the leader; there
// is no harm in running it elsewhere, but deletions will fail at the
// pipeline stage since only the leader can commit them.
type Manager struct {
	tree     datatree.DataTree
	pipeline pipeline.RequestPipeline
	clock    clock.Clock
	log      *slog.Logger

	checkInterval          time.Duration
	maxPerMinute           int
	maxNeverUsedIntervalMs int64

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New builds a Manager. checkIntervalMs, maxPerMinute and
// maxNeverUsedIntervalMs correspond to spec.md §6's enumerated reaper
// configuration; maxNeverUsedIntervalMs == 0 disables the never-used
// grace period.
func New(tree datatree.DataTree, p pipeline.RequestPipeline, c clock.Clock, checkIntervalMs, maxPerMinute int, maxNeverUsedIntervalMs int64, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		tree:                   tree,
		pipeline:               p,
		clock:                  c,
		checkInterval:          time.Duration(checkIntervalMs) * time.Millisecond,
		maxPerMinute:           maxPerMinute,
		maxNeverUsedIntervalMs: maxNeverUsedIntervalMs,
		log:                    log,
	}
}

// Start schedules a fixed-rate sweep every checkIntervalMs. Safe to call
// multiple times; a second call while already running is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	ticker := time.NewTicker(m.checkInterval)
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	m.running = true
	m.stop = stopCh
	m.done = doneCh
	go m.run(ticker, stopCh, doneCh)
}

func (m *Manager) run(ticker *time.Ticker, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := m.sweep(stopCh); err != nil {
				m.log.Info("container sweep interrupted")
				return
			}
		case <-stopCh:
			return
		}
	}
}

// Stop cancels the sweep and waits for the current pass to unwind. Safe
// to call multiple times, and safe even if Start was never called.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stopCh, doneCh := m.stop, m.done
	m.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// Sweep performs one pass immediately, outside the fixed-rate schedule.
// Not normally used directly; exposed for manual invocation and tests.
func (m *Manager) Sweep() error {
	return m.sweep(nil)
}

func (m *Manager) sweep(stopCh <-chan struct{}) error {
	minIntervalMs := int64(60000) / int64(m.maxPerMinute)

	for _, path := range m.candidates() {
		startMs := m.clock.ElapsedNow()

		req := model.DeleteContainerRequest{Path: path}
		m.log.Info("attempting to delete candidate container", slog.String("path", path))
		if err := m.pipeline.Submit(context.Background(), req); err != nil {
			m.log.Error("could not delete container", slog.String("path", path), slog.Any("error", err))
		}

		elapsedMs := m.clock.ElapsedNow() - startMs
		waitMs := minIntervalMs - elapsedMs
		if waitMs <= 0 {
			continue
		}

		timer := time.NewTimer(time.Duration(waitMs) * time.Millisecond)
		select {
		case <-timer.C:
		case <-stopCh:
			timer.Stop()
			return ErrInterrupted
		}
	}
	return nil
}

// candidates enumerates deletable container and TTL paths, deduplicated
// (a path could in principle appear in both sets), per spec.md §4.4.
func (m *Manager) candidates() []string {
	now := m.clock.WallNow()
	seen := make(map[string]struct{})
	var out []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}

	for _, path := range m.tree.ContainerPaths() {
		n, ok := m.tree.Node(path)
		if !ok || len(n.Children) > 0 {
			continue
		}
		// cversion > 0 keeps a newly created container from being
		// deleted before it has ever had a child.
		if n.CVersion > 0 {
			add(path)
			continue
		}
		if m.maxNeverUsedIntervalMs != 0 && now-n.Mtime > m.maxNeverUsedIntervalMs {
			add(path)
		}
	}

	for _, path := range m.tree.TTLPaths() {
		n, ok := m.tree.Node(path)
		if !ok || len(n.Children) > 0 {
			continue
		}
		ttl, isTTL := datatree.TTLMillis(n.EphemeralOwner)
		if !isTTL || ttl == 0 {
			continue
		}
		if now-n.Mtime > ttl {
			add(path)
		}
	}

	return out
}
