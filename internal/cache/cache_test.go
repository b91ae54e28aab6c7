package cache

import (
	"errors"
	"testing"
)

func TestCacheSlotGetMemoizes(t *testing.T) {
	var s CacheSlot[int]
	calls := 0
	build := func() (int, error) { calls++; return 42, nil }

	v, ok := s.Get(build)
	if !ok || *v != 42 {
		t.Fatalf("Get = (%v, %v), want (42, true)", v, ok)
	}
	v, ok = s.Get(build)
	if !ok || *v != 42 || calls != 1 {
		t.Fatalf("second Get should not rebuild: calls=%d", calls)
	}
}

func TestCacheSlotFailedStaysFailed(t *testing.T) {
	var s CacheSlot[int]
	wantErr := errors.New("boom")
	calls := 0
	build := func() (int, error) { calls++; return 0, wantErr }

	if _, ok := s.Get(build); ok {
		t.Fatalf("Get should report failure")
	}
	if _, ok := s.Get(build); ok || calls != 1 {
		t.Fatalf("a poisoned slot must not retry: calls=%d", calls)
	}
	if _, err := s.TryGet(build); err != wantErr {
		t.Fatalf("TryGet should surface the original error, got %v", err)
	}
}

func TestCacheSlotSetUnpoisons(t *testing.T) {
	var s CacheSlot[int]
	s.Get(func() (int, error) { return 0, errors.New("boom") })
	s.Set(7)
	v, ok := s.Immut()
	if !ok || *v != 7 {
		t.Fatalf("Immut after Set = (%v, %v), want (7, true)", v, ok)
	}
}

func TestCacheSlotTakeResets(t *testing.T) {
	var s CacheSlot[int]
	s.Set(9)
	v, ok := s.Take()
	if !ok || v != 9 {
		t.Fatalf("Take = (%v, %v), want (9, true)", v, ok)
	}
	if _, ok := s.Immut(); ok {
		t.Fatalf("slot should be NotCached after Take")
	}
}

func TestMediaInfoCacheOfFileIsStable(t *testing.T) {
	mi := NewMediaInfo(0, "")
	a := mi.CacheOfFile("/x/a.mkv")
	b := mi.CacheOfFile("/x/a.mkv")
	if a != b {
		t.Fatalf("CacheOfFile should return the same FileCache for the same path")
	}
	c := mi.CacheOfFile("/x/b.mkv")
	if a == c {
		t.Fatalf("CacheOfFile should return distinct FileCaches for distinct paths")
	}
}

func TestFileCacheCharsetSlotIsStable(t *testing.T) {
	fc := &FileCache{Charsets: map[string]*CacheSlot[CharsetResult]{}}
	a := fc.CharsetSlot("sub.srt")
	b := fc.CharsetSlot("sub.srt")
	if a != b {
		t.Fatalf("CharsetSlot should return the same slot for the same path")
	}
}
