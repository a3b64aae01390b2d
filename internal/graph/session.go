package graph

import (
	"runtime"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/gorgonia"
)

// Config tunes the execution context. Threads caps the process-wide
// worker count at open time (the engine has no per-graph thread pools);
// Seed makes permutations, weight initialization, and latent sampling
// reproducible. Seed 0 means time-seeded.
type Config struct {
	Seed    uint64
	Threads int
}

// Session is the explicit execution context shared by a model's compiled
// programs. It owns the random source and every virtual machine created
// under it, and releases them all on Close.
//
// The engine compiles graphs with static shapes, so a model compiles one
// program per distinct batch size; programs created from the same networks
// share parameter storage, which the session treats as the single mutable
// resource: all Run/Step calls are strictly sequential.
type Session struct {
	mu     sync.Mutex
	rng    *rand.Rand
	normal distuv.Normal
	vms    []gorgonia.VM
	closed bool
}

func Open(cfg Config) *Session {
	if cfg.Threads > 0 {
		runtime.GOMAXPROCS(cfg.Threads)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(seed))
	return &Session{
		rng:    rng,
		normal: distuv.Normal{Mu: 0, Sigma: 1, Src: rng},
	}
}

// RNG exposes the session's random source for permutations and init.
func (s *Session) RNG() *rand.Rand { return s.rng }

// Normal draws n samples from the standard normal prior.
func (s *Session) Normal(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.normal.Rand()
	}
	return out
}

// Register takes ownership of a VM for release on Close.
func (s *Session) Register(vm gorgonia.VM) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vms = append(s.vms, vm)
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var first error
	for _, vm := range s.vms {
		if err := vm.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.vms = nil
	return first
}
