package charset

import (
	"testing"

	"github.com/mdickers47/mux-media/internal/cache"
)

func TestSniffMatroskaShortcut(t *testing.T) {
	fc := &cache.FileCache{Charsets: map[string]*cache.CacheSlot[cache.CharsetResult]{}}
	res, err := Sniff(fc, "/any/path/subs.mks")
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != Recognizable {
		t.Errorf("a Matroska-family path should short-circuit to Recognizable, got %v", res.Kind)
	}
}

func TestSniffMissingFileErrors(t *testing.T) {
	fc := &cache.FileCache{Charsets: map[string]*cache.CacheSlot[cache.CharsetResult]{}}
	if _, err := Sniff(fc, "/does/not/exist.srt"); err == nil {
		t.Errorf("Sniff on a missing file should return an error")
	}
}

func TestSniffCachesPerPath(t *testing.T) {
	fc := &cache.FileCache{Charsets: map[string]*cache.CacheSlot[cache.CharsetResult]{}}
	slot := fc.CharsetSlot("/a/b.mks")
	slot.Set(cache.CharsetResult{Kind: int(NamedLegacy), Label: "windows-1251"})

	res, err := Sniff(fc, "/a/b.mks")
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != NamedLegacy || res.Label != "windows-1251" {
		t.Errorf("Sniff should return the pre-populated cache slot, got %+v", res)
	}
}
