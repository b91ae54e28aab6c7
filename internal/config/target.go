package config

import (
	"strings"

	"github.com/mdickers47/mux-media/internal/model"
)

// TargetKind distinguishes the three Target variants.
type TargetKind int

const (
	KindGlobal TargetKind = iota
	KindStream
	KindPath
)

// Target is a scope for configuration overrides: the global scope, a
// stream type, or a filesystem path. Hashing and equality reduce to the
// target's path-shaped identity, so Target is a plain comparable struct
// usable as a map key directly.
type Target struct {
	Kind   TargetKind
	Stream model.StreamType
	Path   string
}

// Global is the Target representing config-wide defaults.
var Global = Target{Kind: KindGlobal}

// StreamTarget builds the Target for a stream-type scope, normalized to
// its lowercase kebab name, so it hashes as a one-segment path.
func StreamTarget(t model.StreamType) Target {
	return Target{Kind: KindStream, Stream: t, Path: t.String()}
}

// PathTarget builds the Target for a filesystem-path scope. path is
// expected to already be cleaned/absolute; callers normalize once at
// parse time.
func PathTarget(path string) Target {
	return Target{Kind: KindPath, Path: path}
}

// ParseTarget parses a -t/--target value (a path, a stream-type keyword,
// or the literal "global") into a Target.
func ParseTarget(s string) Target {
	if s == "global" {
		return Global
	}
	if st, ok := model.ParseStreamType(s); ok {
		return StreamTarget(st)
	}
	return PathTarget(s)
}

func (t Target) String() string {
	switch t.Kind {
	case KindGlobal:
		return "global"
	case KindStream:
		return t.Stream.String()
	default:
		return t.Path
	}
}

// candidatePaths returns the ancestor chain of path, most specific first,
// as used by the resolver's per-path lookup order. It always includes
// path itself.
func candidatePaths(path string) []string {
	path = strings.TrimRight(path, "/")
	if path == "" {
		return nil
	}
	var out []string
	cur := path
	for {
		out = append(out, cur)
		idx := strings.LastIndexByte(cur, '/')
		if idx <= 0 {
			break
		}
		cur = cur[:idx]
	}
	return out
}

// TargetPathsForFile computes the ordered list of path Targets that apply
// to a source file, from most to least specific, for use as the
// target-paths argument to the stream-value resolvers. Callers cache this
// once per file.
func TargetPathsForFile(cfg *Config, path string) []Target {
	var out []Target
	for _, p := range candidatePaths(path) {
		t := PathTarget(p)
		if _, ok := cfg.Targets[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
