// Package cache implements the per-file / per-group memoization slots that
// every other analysis stage (streams introspection, charset sniffing,
// ordering, disposition planning) is built on top of.
package cache

import (
	"sync"

	"github.com/mdickers47/mux-media/internal/model"
)

// state is a CacheSlot's three-valued lifecycle.
type state int

const (
	notCached state = iota
	cached
	failed
)

// CacheSlot is an at-most-once memoized builder result: NotCached, Cached(T)
// or Failed(err). A failed build stays failed — poisoning is intentional,
// so a flaky external tool doesn't get silently retried on every access.
type CacheSlot[T any] struct {
	state state
	value T
	err   error
}

// Get runs build on first access and remembers the outcome. A slot already
// Cached or Failed never runs build again.
func (s *CacheSlot[T]) Get(build func() (T, error)) (*T, bool) {
	switch s.state {
	case cached:
		return &s.value, true
	case failed:
		return nil, false
	}
	v, err := build()
	if err != nil {
		s.state = failed
		s.err = err
		return nil, false
	}
	s.state = cached
	s.value = v
	return &s.value, true
}

// TryGet is Get but surfaces the build error instead of discarding it.
func (s *CacheSlot[T]) TryGet(build func() (T, error)) (*T, error) {
	switch s.state {
	case cached:
		return &s.value, nil
	case failed:
		return nil, s.err
	}
	v, err := build()
	if err != nil {
		s.state = failed
		s.err = err
		return nil, err
	}
	s.state = cached
	s.value = v
	return &s.value, nil
}

// Immut returns the value only if the slot is already Cached; it never
// invokes a builder and never observes a Failed slot.
func (s *CacheSlot[T]) Immut() (*T, bool) {
	if s.state != cached {
		return nil, false
	}
	return &s.value, true
}

// Take moves the value out and resets the slot to NotCached. Callers that
// mutate the value out-of-place are obliged to restore it with Set if it
// remains valid, per the slot's single-owner contract.
func (s *CacheSlot[T]) Take() (T, bool) {
	if s.state != cached {
		var zero T
		return zero, false
	}
	v := s.value
	s.state = notCached
	var zero T
	s.value = zero
	return v, true
}

// Set overwrites the slot with Cached(v), regardless of its prior state —
// including unpoisoning a Failed slot.
func (s *CacheSlot[T]) Set(v T) {
	s.state = cached
	s.value = v
	s.err = nil
}

// Reset returns the slot to NotCached, discarding any value or error.
func (s *CacheSlot[T]) Reset() {
	var zero T
	s.state = notCached
	s.value = zero
	s.err = nil
}

// FileCache holds the per-source-file analysis results a MediaInfo caches:
// its stream list and one charset slot per subtitle stream path within it.
type FileCache struct {
	Streams  CacheSlot[[]model.Stream]
	Charsets map[string]*CacheSlot[CharsetResult]
}

// CharsetResult is the sniffed-encoding classification cache.CacheSlot
// holds per subtitle path; its concrete values live in package charset, but
// the cache layer only needs to store and retrieve them, so it's declared
// here to avoid cache depending on charset.
type CharsetResult struct {
	Label string // detector label, or "" for the Matroska/Unknown cases
	Kind  int    // CharsetKind, mirrored as an int to avoid an import cycle
}

// GroupCache holds the per-group results: the built streams order and the
// resolved disposition plan, each built exactly once per group.
type GroupCache struct {
	Order        CacheSlot[[]model.StreamsOrderItem]
	Dispositions CacheSlot[map[model.StreamKey]DispositionResult]
}

// DispositionResult is the per-stream (default, forced) pair the
// disposition planner computes and the muxer driver consumes.
type DispositionResult struct {
	Default bool
	Forced  bool
}

// MediaInfo is the single-threaded, per-worker handle the scheduler builds
// and passes through probing, charset sniffing, ordering, disposition
// planning, autometa, and muxing while processing one group: a unique
// ThreadID and SidecarPath identifying the worker, the group-level cache,
// and one FileCache per source file path in the group. tool.RunWithSidecar
// does not read SidecarPath; it names its own argfiles.
type MediaInfo struct {
	ThreadID    int
	SidecarPath string

	Group GroupCache

	mu    sync.Mutex // guards files; MediaInfo itself is single-threaded per worker, this only protects lazy map init
	files map[string]*FileCache
}

// NewMediaInfo returns an empty MediaInfo for one worker.
func NewMediaInfo(threadID int, sidecarPath string) *MediaInfo {
	return &MediaInfo{
		ThreadID:    threadID,
		SidecarPath: sidecarPath,
		files:       map[string]*FileCache{},
	}
}

// CacheOfFile returns (creating if needed) the FileCache for src.
func (m *MediaInfo) CacheOfFile(src string) *FileCache {
	m.mu.Lock()
	defer m.mu.Unlock()
	fc, ok := m.files[src]
	if !ok {
		fc = &FileCache{Charsets: map[string]*CacheSlot[CharsetResult]{}}
		m.files[src] = fc
	}
	return fc
}

// CacheOfGroup returns the single GroupCache this MediaInfo owns.
func (m *MediaInfo) CacheOfGroup() *GroupCache {
	return &m.Group
}

// CharsetSlot returns (creating if needed) the charset CacheSlot for one
// subtitle path within src's FileCache.
func (fc *FileCache) CharsetSlot(path string) *CacheSlot[CharsetResult] {
	s, ok := fc.Charsets[path]
	if !ok {
		s = &CacheSlot[CharsetResult]{}
		fc.Charsets[path] = s
	}
	return s
}
