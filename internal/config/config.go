// Package config is the layered configuration resolver: per-target
// overrides (path targets, stream-type targets) with a global fallback,
// plus the CLI/-t parsing and JSON config-file round-trip that feed it.
package config

import (
	"github.com/mdickers47/mux-media/internal/model"
)

// MuxerChoice selects which external tool family a group is muxed with.
type MuxerChoice int

const (
	MuxerMatroska MuxerChoice = iota
	MuxerFfmpeg
)

// RangeFilter is the inclusive [lo, hi] media-number range discovery
// filters groups by (-r/--range).
type RangeFilter struct {
	Lo    int
	Hi    int
	HasHi bool
}

// Contains reports whether n falls within the range.
func (r *RangeFilter) Contains(n int) bool {
	if r == nil {
		return true
	}
	if n < r.Lo {
		return false
	}
	if r.HasHi && n > r.Hi {
		return false
	}
	return true
}

// InputConfig is the "-i/--input" family of settings.
type InputConfig struct {
	Dir   string
	Depth int
	Skip  []string // glob patterns, matched via doublestar
	Range *RangeFilter
	Solo  bool
}

// OutputConfig is the §6 "-o/--output" pattern: "dir/begin,tail.ext" where
// the comma separates the two fixed affixes straddling a generated middle.
type OutputConfig struct {
	Dir    string
	Begin  string
	Tail   string
	Ext    string
	TempDir string
}

// ChaptersPolicy governs the "-map_chapters" argument the muxer driver
// emits: either drop chapters, or map them from a specific source file
// number in the group.
type ChaptersPolicy struct {
	Drop       bool
	FromSrcNum int
}

// AutoFlags bundles the Auto/User-tagged booleans gating each auto-
// derivation pass, so --pro can blanket-disable them while a later
// --auto-X on the same command line still wins.
type AutoFlags struct {
	Defaults model.Value[bool]
	Forceds  model.Value[bool]
	Names    model.Value[bool]
	Langs    model.Value[bool]
	Charsets model.Value[bool]
}

// ConfigTarget holds the optional per-target overrides for the same
// fields Config carries globally; a nil field means "inherit".
type ConfigTarget struct {
	// Streams holds a per-stream-type override; a type absent from the
	// map inherits (falls through to the next target / the global set).
	Streams   map[model.StreamType]*StreamsFilter
	Chapters  *ChaptersPolicy
	Defaults  *DispositionSpec
	Forceds   *DispositionSpec
	Names     *KV[string]
	Langs     *KV[string]
	// Specials is a per-target override for raw mkvmerge arguments. A
	// non-nil (possibly empty) slice overrides the global set outright.
	Specials *[]string
}

// Config is the read-only, process-wide configuration. It is built once
// at startup by ParseArgs (which also replays --load) and never mutated
// afterward.
type Config struct {
	Input  InputConfig
	Output OutputConfig

	// Streams holds the global per-type stream filter sets.
	Streams map[model.StreamType]*StreamsFilter

	Chapters ChaptersPolicy
	Defaults DispositionSpec
	Forceds  DispositionSpec
	Names    KV[string]
	Langs    KV[string]
	// Specials carries arbitrary raw mkvmerge arguments straight through to
	// the generated argv, for options the planner has no structured field
	// for (e.g. --compression, --cues).
	Specials []string

	Locale string
	Threads int
	ExitOnErr bool
	SaveConfig bool
	Verbose bool
	Quiet   bool
	Reencode bool

	Auto AutoFlags
	// Retime gates the retiming capability behind a flag; the non-retimed
	// core ignores it entirely when false.
	Retime bool

	Muxer MuxerChoice

	Targets map[Target]*ConfigTarget
}

// New returns a Config populated with the documented defaults: depth 16,
// 4 threads, one default/zero forced per type, every auto-flag on.
func New() *Config {
	one, zero := 1, 0
	return &Config{
		Input: InputConfig{Depth: 16},
		Output: OutputConfig{
			Ext: "mkv",
		},
		Streams: map[model.StreamType]*StreamsFilter{},
		Defaults: DispositionSpec{MaxInAuto: &one},
		Forceds:  DispositionSpec{MaxInAuto: &zero},
		Locale:   "eng",
		Threads:  4,
		Auto: AutoFlags{
			Defaults: model.Auto(true),
			Forceds:  model.Auto(true),
			Names:    model.Auto(true),
			Langs:    model.Auto(true),
			Charsets: model.Auto(true),
		},
		Muxer:   MuxerMatroska,
		Targets: map[Target]*ConfigTarget{},
	}
}

// targetFor returns the (possibly nil-creating) ConfigTarget for t.
func (c *Config) targetFor(t Target) *ConfigTarget {
	ct, ok := c.Targets[t]
	if !ok {
		ct = &ConfigTarget{}
		c.Targets[t] = ct
	}
	return ct
}
