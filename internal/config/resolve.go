package config

import "github.com/mdickers47/mux-media/internal/model"

// Field is a marker-type trait, one implementation per resolvable field,
// parameterizing the resolver over the field's value type in place of
// per-field codegen.
type Field[T any] interface {
	// Global reads the field's process-wide default off Config.
	Global(cfg *Config) T
	// Override reads the field's optional per-target value off a
	// ConfigTarget, reporting whether it was set at all.
	Override(ct *ConfigTarget) (T, bool)
}

// FieldValue returns a field's global value.
func FieldValue[T any](cfg *Config, f Field[T]) T {
	return f.Global(cfg)
}

// TargetValue returns a field's per-target override when present, else its
// global value. path is resolved through its full ancestor chain
// (candidatePaths), most specific first.
func TargetValue[T any](cfg *Config, f Field[T], path string) T {
	for _, t := range TargetPathsForFile(cfg, path) {
		if ct, ok := cfg.Targets[t]; ok {
			if v, ok := f.Override(ct); ok {
				return v
			}
		}
	}
	return f.Global(cfg)
}

// ResolveOver walks an explicit ordered list of candidate targets,
// returning the first override found, else the global value.
func ResolveOver[T any](cfg *Config, f Field[T], targets []Target) T {
	for _, t := range targets {
		if ct, ok := cfg.Targets[t]; ok {
			if v, ok := f.Override(ct); ok {
				return v
			}
		}
	}
	return f.Global(cfg)
}

// StreamVal returns the index to use for numeric-keyed per-stream lookups
// (the stream's absolute index when any path target applies, else its
// per-type index when a stream-type target applies, else absolute index
// again) alongside the resolved field value.
func StreamVal[T any](cfg *Config, f Field[T], targetPathsForFile []Target, stream model.Stream) (indexToUse int, value T) {
	for _, t := range targetPathsForFile {
		if t.Kind != KindPath {
			continue
		}
		if ct, ok := cfg.Targets[t]; ok {
			if v, ok := f.Override(ct); ok {
				return stream.Index, v
			}
		}
	}
	st := StreamTarget(stream.Type)
	if ct, ok := cfg.Targets[st]; ok {
		if v, ok := f.Override(ct); ok {
			return stream.TypeIndex, v
		}
	}
	return stream.Index, f.Global(cfg)
}

// --- field markers ---

// NamesField resolves the "names" KV override.
type NamesField struct{}

func (NamesField) Global(cfg *Config) *KV[string] { return &cfg.Names }
func (NamesField) Override(ct *ConfigTarget) (*KV[string], bool) {
	if ct.Names == nil {
		return nil, false
	}
	return ct.Names, true
}

// LangsField resolves the "langs" KV override.
type LangsField struct{}

func (LangsField) Global(cfg *Config) *KV[string] { return &cfg.Langs }
func (LangsField) Override(ct *ConfigTarget) (*KV[string], bool) {
	if ct.Langs == nil {
		return nil, false
	}
	return ct.Langs, true
}

// StreamsField resolves the per-type stream filter.
type StreamsField struct{ Type model.StreamType }

func (f StreamsField) Global(cfg *Config) *StreamsFilter { return cfg.Streams[f.Type] }
func (f StreamsField) Override(ct *ConfigTarget) (*StreamsFilter, bool) {
	v, ok := ct.Streams[f.Type]
	return v, ok
}

// DefaultsField resolves the "default" disposition spec.
type DefaultsField struct{}

func (DefaultsField) Global(cfg *Config) *DispositionSpec { return &cfg.Defaults }
func (DefaultsField) Override(ct *ConfigTarget) (*DispositionSpec, bool) {
	if ct.Defaults == nil {
		return nil, false
	}
	return ct.Defaults, true
}

// ForcedsField resolves the "forced" disposition spec.
type ForcedsField struct{}

func (ForcedsField) Global(cfg *Config) *DispositionSpec { return &cfg.Forceds }
func (ForcedsField) Override(ct *ConfigTarget) (*DispositionSpec, bool) {
	if ct.Forceds == nil {
		return nil, false
	}
	return ct.Forceds, true
}

// SpecialsField resolves the raw-mkvmerge-args passthrough.
type SpecialsField struct{}

func (SpecialsField) Global(cfg *Config) []string { return cfg.Specials }
func (SpecialsField) Override(ct *ConfigTarget) ([]string, bool) {
	if ct.Specials == nil {
		return nil, false
	}
	return *ct.Specials, true
}

// ChaptersField resolves the chapters policy.
type ChaptersField struct{}

func (ChaptersField) Global(cfg *Config) ChaptersPolicy { return cfg.Chapters }
func (ChaptersField) Override(ct *ConfigTarget) (ChaptersPolicy, bool) {
	if ct.Chapters == nil {
		return ChaptersPolicy{}, false
	}
	return *ct.Chapters, true
}

// StreamValDispositions specializes StreamVal for the default/forced
// dispositions, selecting DefaultsField or ForcedsField by the forced
// flag.
func StreamValDispositions(cfg *Config, forced bool, targetPathsForFile []Target, stream model.Stream) (indexToUse int, spec *DispositionSpec) {
	if forced {
		return StreamVal[*DispositionSpec](cfg, ForcedsField{}, targetPathsForFile, stream)
	}
	return StreamVal[*DispositionSpec](cfg, DefaultsField{}, targetPathsForFile, stream)
}
