package clock

import "sync"

// Fake is a Clock a test can advance deterministically. Wall and elapsed
// time are tracked independently, mirroring the real clock's contract:
// nothing here assumes they move at the same rate.
type Fake struct {
	mu      sync.Mutex
	wall    int64
	elapsed int64
}

// NewFake returns a Fake starting both readings at 0.
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) WallNow() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wall
}

func (f *Fake) ElapsedNow() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elapsed
}

// SetWall sets the wall-clock reading directly.
func (f *Fake) SetWall(ms int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wall = ms
}

// Advance moves both readings forward by ms, the common case in tests
// that don't care about wall/elapsed drift.
func (f *Fake) Advance(ms int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wall += ms
	f.elapsed += ms
}
