package config

import (
	"testing"

	"github.com/mdickers47/mux-media/internal/model"
)

func TestResolveOverPrefersMostSpecificTarget(t *testing.T) {
	cfg := New()
	globalKV := KV[string]{Entries: []KVEntry[string]{{Sel: Selector{Index: 0}, Val: "global"}}}
	cfg.Names = globalKV

	pathKV := KV[string]{Entries: []KVEntry[string]{{Sel: Selector{Index: 0}, Val: "path"}}}
	cfg.Targets[PathTarget("/root/a")] = &ConfigTarget{Names: &pathKV}

	targets := []Target{PathTarget("/root/a"), Global}
	got := ResolveOver[*KV[string]](cfg, NamesField{}, targets)
	v, ok := got.Lookup(0, "")
	if !ok || v != "path" {
		t.Fatalf("ResolveOver should prefer the path override, got (%q, %v)", v, ok)
	}
}

func TestResolveOverFallsBackToGlobal(t *testing.T) {
	cfg := New()
	globalKV := KV[string]{Entries: []KVEntry[string]{{Sel: Selector{Index: 0}, Val: "global"}}}
	cfg.Names = globalKV

	got := ResolveOver[*KV[string]](cfg, NamesField{}, nil)
	v, ok := got.Lookup(0, "")
	if !ok || v != "global" {
		t.Fatalf("ResolveOver with no targets should fall back to global, got (%q, %v)", v, ok)
	}
}

func TestStreamValPathOverrideUsesAbsoluteIndex(t *testing.T) {
	cfg := New()
	kv := KV[string]{Entries: []KVEntry[string]{{Sel: Selector{Index: 3}, Val: "path-name"}}}
	cfg.Targets[PathTarget("/root/a.mkv")] = &ConfigTarget{Names: &kv}

	stream := model.Stream{Type: model.Audio, Index: 3, TypeIndex: 0}
	idx, v := StreamVal[*KV[string]](cfg, NamesField{}, []Target{PathTarget("/root/a.mkv")}, stream)
	if idx != 3 {
		t.Errorf("StreamVal should use the absolute index under a path override, got %d", idx)
	}
	name, ok := v.Lookup(3, "")
	if !ok || name != "path-name" {
		t.Errorf("StreamVal value = (%q, %v), want (path-name, true)", name, ok)
	}
}

func TestStreamValStreamTypeOverrideUsesTypeIndex(t *testing.T) {
	cfg := New()
	kv := KV[string]{Entries: []KVEntry[string]{{Sel: Selector{Index: 1}, Val: "type-name"}}}
	cfg.Targets[StreamTarget(model.Audio)] = &ConfigTarget{Names: &kv}

	stream := model.Stream{Type: model.Audio, Index: 5, TypeIndex: 1}
	idx, _ := StreamVal[*KV[string]](cfg, NamesField{}, nil, stream)
	if idx != 1 {
		t.Errorf("StreamVal should use the type-dense index under a stream-type override, got %d", idx)
	}
}

func TestStreamValNoOverrideUsesAbsoluteIndexAndGlobal(t *testing.T) {
	cfg := New()
	cfg.Names = KV[string]{Entries: []KVEntry[string]{{Sel: Selector{Index: 9}, Val: "global-name"}}}

	stream := model.Stream{Type: model.Audio, Index: 9, TypeIndex: 2}
	idx, v := StreamVal[*KV[string]](cfg, NamesField{}, nil, stream)
	if idx != 9 {
		t.Errorf("StreamVal with no override should use the absolute index, got %d", idx)
	}
	name, ok := v.Lookup(9, "")
	if !ok || name != "global-name" {
		t.Errorf("StreamVal fallback value = (%q, %v)", name, ok)
	}
}

func TestResolveOverSpecialsPrefersPathOverride(t *testing.T) {
	cfg := New()
	cfg.Specials = []string{"--compression", "0:none"}
	override := []string{"--cues", "0:all"}
	cfg.Targets[PathTarget("/root/a.mkv")] = &ConfigTarget{Specials: &override}

	got := ResolveOver[[]string](cfg, SpecialsField{}, []Target{PathTarget("/root/a.mkv"), Global})
	if len(got) != 2 || got[0] != "--cues" || got[1] != "0:all" {
		t.Fatalf("ResolveOver should prefer the path override, got %v", got)
	}
}

func TestResolveOverSpecialsFallsBackToGlobal(t *testing.T) {
	cfg := New()
	cfg.Specials = []string{"--compression", "0:none"}

	got := ResolveOver[[]string](cfg, SpecialsField{}, nil)
	if len(got) != 2 || got[0] != "--compression" {
		t.Fatalf("ResolveOver with no targets should fall back to global, got %v", got)
	}
}

func TestStreamValDispositionsSelectsForcedOrDefault(t *testing.T) {
	cfg := New()
	onTrue := true
	cfg.Forceds = DispositionSpec{Bool: &onTrue}

	stream := model.Stream{Type: model.Sub, Index: 0, TypeIndex: 0}
	_, spec := StreamValDispositions(cfg, true, nil, stream)
	v, ok := spec.Resolve(0, "")
	if !ok || !v {
		t.Errorf("StreamValDispositions(forced=true) should resolve the Forceds spec")
	}

	_, spec = StreamValDispositions(cfg, false, nil, stream)
	if _, ok := spec.Resolve(0, ""); ok {
		t.Errorf("StreamValDispositions(forced=false) should resolve the (unset) Defaults spec")
	}
}
