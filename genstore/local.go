package genstore

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// LocalOptions configure a LocalGenStore.
type LocalOptions struct {
	CleanupInterval time.Duration // <= 0 disables the background sweep
	Retention       time.Duration // <= 0 never prunes

	// InUse reports whether name still has cached copies. Such names are
	// never pruned: a pruned name reads as generation 0, which would make
	// every cached copy look stale. Called without the store lock held.
	InUse func(name string) bool
}

type bump struct {
	gen uint64
	at  time.Time
}

// LocalGenStore keeps generations in-process (default). Only names that
// were invalidated at least once have an entry; the sweep forgets those
// whose last bump is older than the retention window and that nothing
// caches any more.
type LocalGenStore struct {
	mu    sync.RWMutex
	gens  map[string]bump
	inUse func(string) bool

	retention time.Duration
	pruned    atomic.Uint64

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

var _ GenStore = (*LocalGenStore)(nil)

func NewLocal(opts LocalOptions) *LocalGenStore {
	s := &LocalGenStore{
		gens:      make(map[string]bump),
		inUse:     opts.InUse,
		retention: opts.Retention,
	}
	if opts.CleanupInterval > 0 && opts.Retention > 0 {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.sweep(opts.CleanupInterval)
	}
	return s
}

func (s *LocalGenStore) sweep(every time.Duration) {
	defer close(s.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Cleanup(s.retention)
		case <-s.stop:
			return
		}
	}
}

func (s *LocalGenStore) Snapshot(_ context.Context, name string) (uint64, error) {
	s.mu.RLock()
	b := s.gens[name]
	s.mu.RUnlock()
	return b.gen, nil
}

// SnapshotMany reads every name under one read lock.
func (s *LocalGenStore) SnapshotMany(_ context.Context, names []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(names))
	s.mu.RLock()
	for _, n := range names {
		out[n] = s.gens[n].gen
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *LocalGenStore) Bump(_ context.Context, name string) (uint64, error) {
	s.mu.Lock()
	b := s.gens[name]
	b.gen++
	b.at = time.Now()
	s.gens[name] = b
	s.mu.Unlock()
	return b.gen, nil
}

// Cleanup forgets names last bumped before now-retention, skipping names
// InUse reports as cached. A name bumped again meanwhile is kept.
func (s *LocalGenStore) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.RLock()
	var old []string
	for n, b := range s.gens {
		if b.at.Before(cutoff) {
			old = append(old, n)
		}
	}
	s.mu.RUnlock()
	if len(old) == 0 {
		return
	}

	if s.inUse != nil {
		idle := old[:0]
		for _, n := range old {
			if !s.inUse(n) {
				idle = append(idle, n)
			}
		}
		old = idle
	}

	s.mu.Lock()
	for _, n := range old {
		if b, ok := s.gens[n]; ok && b.at.Before(cutoff) {
			delete(s.gens, n)
			s.pruned.Add(1)
		}
	}
	s.mu.Unlock()
}

// Len returns the number of names with a recorded generation.
func (s *LocalGenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gens)
}

// Pruned returns how many names the sweeps have forgotten.
func (s *LocalGenStore) Pruned() uint64 { return s.pruned.Load() }

// Close stops the sweep. Safe to call more than once; the store stays
// readable afterwards.
func (s *LocalGenStore) Close(_ context.Context) error {
	s.once.Do(func() {
		if s.stop == nil {
			return
		}
		close(s.stop)
		<-s.done
	})
	return nil
}
