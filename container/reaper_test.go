package container_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muzammilar/zookeeper/clock"
	"github.com/muzammilar/zookeeper/container"
	"github.com/muzammilar/zookeeper/datatree"
	"github.com/muzammilar/zookeeper/model"
)

type recordingPipeline struct {
	mu       sync.Mutex
	submits  []string
	failPath string
}

func (p *recordingPipeline) Submit(_ context.Context, req model.DeleteContainerRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if req.Path == p.failPath {
		return assert.AnError
	}
	p.submits = append(p.submits, req.Path)
	return nil
}

func (p *recordingPipeline) paths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := append([]string(nil), p.submits...)
	sort.Strings(out)
	return out
}

func Test_Candidates_ContainerCVersionZero_BelowGrace_NotCandidate(t *testing.T) {
	tree := datatree.NewMemTree()
	tree.Put(datatree.NodeView{Path: "/c", EphemeralOwner: datatree.ContainerOwner(), CVersion: 0, Mtime: 1000})
	c := clock.NewFake()
	c.SetWall(1500) // age 500ms

	p := &recordingPipeline{}
	m := container.New(tree, p, c, 1000, 60000, 10000, nil)
	require.NoError(t, m.Sweep())
	assert.Empty(t, p.paths())
}

func Test_Candidates_ContainerCVersionZero_PastGrace_IsCandidate(t *testing.T) {
	tree := datatree.NewMemTree()
	tree.Put(datatree.NodeView{Path: "/c", EphemeralOwner: datatree.ContainerOwner(), CVersion: 0, Mtime: 1000})
	c := clock.NewFake()
	c.SetWall(20000) // age 19000ms > maxNeverUsed of 10000

	p := &recordingPipeline{}
	m := container.New(tree, p, c, 1000, 60000, 10000, nil)
	require.NoError(t, m.Sweep())
	assert.Equal(t, []string{"/c"}, p.paths())
}

func Test_Candidates_ContainerCVersionZero_GraceDisabled_NeverCandidate(t *testing.T) {
	tree := datatree.NewMemTree()
	tree.Put(datatree.NodeView{Path: "/c", EphemeralOwner: datatree.ContainerOwner(), CVersion: 0, Mtime: 0})
	c := clock.NewFake()
	c.SetWall(1 << 40)

	p := &recordingPipeline{}
	m := container.New(tree, p, c, 1000, 60000, 0, nil)
	require.NoError(t, m.Sweep())
	assert.Empty(t, p.paths())
}

func Test_Candidates_ContainerCVersionPositive_EmptyChildren_IsCandidate(t *testing.T) {
	tree := datatree.NewMemTree()
	tree.Put(datatree.NodeView{Path: "/c", EphemeralOwner: datatree.ContainerOwner(), CVersion: 3, Mtime: 0})
	c := clock.NewFake()

	p := &recordingPipeline{}
	m := container.New(tree, p, c, 1000, 60000, 0, nil)
	require.NoError(t, m.Sweep())
	assert.Equal(t, []string{"/c"}, p.paths())
}

func Test_Candidates_ContainerCVersionPositive_HasChildren_NotCandidate(t *testing.T) {
	tree := datatree.NewMemTree()
	tree.Put(datatree.NodeView{Path: "/c", EphemeralOwner: datatree.ContainerOwner(), CVersion: 3, Children: []string{"child"}})
	c := clock.NewFake()

	p := &recordingPipeline{}
	m := container.New(tree, p, c, 1000, 60000, 0, nil)
	require.NoError(t, m.Sweep())
	assert.Empty(t, p.paths())
}

func Test_Candidates_TTLNode_WithinTTL_NotCandidate(t *testing.T) {
	tree := datatree.NewMemTree()
	tree.Put(datatree.NodeView{Path: "/t", EphemeralOwner: datatree.TTLOwner(5000), Mtime: 1000})
	c := clock.NewFake()
	c.SetWall(3000) // age 2000 < ttl 5000

	p := &recordingPipeline{}
	m := container.New(tree, p, c, 1000, 60000, 0, nil)
	require.NoError(t, m.Sweep())
	assert.Empty(t, p.paths())
}

func Test_Candidates_TTLNode_PastTTL_IsCandidate(t *testing.T) {
	tree := datatree.NewMemTree()
	tree.Put(datatree.NodeView{Path: "/t", EphemeralOwner: datatree.TTLOwner(5000), Mtime: 1000})
	c := clock.NewFake()
	c.SetWall(10000) // age 9000 > ttl 5000

	p := &recordingPipeline{}
	m := container.New(tree, p, c, 1000, 60000, 0, nil)
	require.NoError(t, m.Sweep())
	assert.Equal(t, []string{"/t"}, p.paths())
}

func Test_Candidates_TTLNode_ZeroTTL_NeverCandidate(t *testing.T) {
	tree := datatree.NewMemTree()
	tree.Put(datatree.NodeView{Path: "/t", EphemeralOwner: datatree.TTLOwner(0), Mtime: 0})
	c := clock.NewFake()
	c.SetWall(1 << 40)

	p := &recordingPipeline{}
	m := container.New(tree, p, c, 1000, 60000, 0, nil)
	require.NoError(t, m.Sweep())
	assert.Empty(t, p.paths())
}

func Test_Sweep_SubmissionFailureIsNonFatal(t *testing.T) {
	tree := datatree.NewMemTree()
	tree.Put(datatree.NodeView{Path: "/a", EphemeralOwner: datatree.ContainerOwner(), CVersion: 1})
	tree.Put(datatree.NodeView{Path: "/b", EphemeralOwner: datatree.ContainerOwner(), CVersion: 1})
	c := clock.NewFake()

	p := &recordingPipeline{failPath: "/a"}
	m := container.New(tree, p, c, 1000, 60000, 0, nil)
	require.NoError(t, m.Sweep())
	assert.Equal(t, []string{"/b"}, p.paths())
}

func Test_StartStop_Idempotent(t *testing.T) {
	tree := datatree.NewMemTree()
	c := clock.NewFake()
	p := &recordingPipeline{}
	m := container.New(tree, p, c, 5, 60000, 0, nil)

	m.Start()
	m.Start() // no-op, must not deadlock or double-schedule
	time.Sleep(20 * time.Millisecond)
	m.Stop()
	m.Stop() // no-op
}

func Test_Stop_WithoutStart_IsSafe(t *testing.T) {
	tree := datatree.NewMemTree()
	c := clock.NewFake()
	p := &recordingPipeline{}
	m := container.New(tree, p, c, 1000, 60000, 0, nil)
	m.Stop()
}

func Test_StartStop_SweepsPeriodically(t *testing.T) {
	tree := datatree.NewMemTree()
	tree.Put(datatree.NodeView{Path: "/a", EphemeralOwner: datatree.ContainerOwner(), CVersion: 1})
	c := clock.NewFake()
	p := &recordingPipeline{}
	m := container.New(tree, p, c, 5, 60000, 0, nil)

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		return len(p.paths()) > 0
	}, time.Second, 5*time.Millisecond)
}
