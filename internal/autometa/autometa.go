// Package autometa derives stream names and language codes from filename
// and directory heuristics when a stream's own metadata doesn't carry them,
// invoked during group finalization after streams are cached.
package autometa

import (
	"strings"

	"github.com/mdickers47/mux-media/internal/classify"
	"github.com/mdickers47/mux-media/internal/config"
	"github.com/mdickers47/mux-media/internal/langs"
	"github.com/mdickers47/mux-media/internal/model"
	"github.com/mdickers47/mux-media/internal/pathutil"
	"github.com/mdickers47/mux-media/internal/probe"
)

// Context is the per-stream path information the heuristics draw from.
type Context struct {
	InputRoot   string
	SrcPath     string
	GroupStem   string
	TargetPaths []config.Target
}

// ResolveName fills in stream.Name per the name heuristic: a user override
// wins outright; else an existing non-empty name is kept; else, if
// auto-names is on, the trimmed path_tail when longer than two characters,
// else (for .mp3/.m4a files) the embedded tag title, else the parent
// directory's base name (when it isn't the input root).
func ResolveName(cfg *config.Config, ctx Context, idx int, lang string, stream *model.Stream) {
	if v, ok := config.ResolveOver[*config.KV[string]](cfg, config.NamesField{}, ctx.TargetPaths).Lookup(idx, lang); ok {
		u := model.User(v)
		stream.Name = &u
		return
	}
	if stream.Name != nil && strings.TrimSpace(stream.Name.V) != "" {
		return
	}
	if !cfg.Auto.Names.V {
		return
	}

	tail := pathutil.PathTail(pathutil.Stem(ctx.SrcPath), ctx.GroupStem)
	if len(tail) > 2 {
		v := model.Auto(tail)
		stream.Name = &v
		return
	}

	if ext := classify.Ext(ctx.SrcPath); ext == "mp3" || ext == "m4a" {
		if title, ok := probe.AudioTagTitle(ctx.SrcPath); ok {
			v := model.Auto(title)
			stream.Name = &v
			return
		}
	}

	if parentDir(ctx.SrcPath) == strings.TrimRight(ctx.InputRoot, "/") {
		return
	}
	if parent := parentDirBase(ctx.SrcPath); parent != "" {
		v := model.Auto(parent)
		stream.Name = &v
	}
}

// parentDir returns the directory containing path.
func parentDir(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i <= 0 {
		return ""
	}
	return path[:i]
}

// ResolveLang fills in stream.Lang per the language heuristic: a user
// override wins; else an existing non-default language (or auto-langs off)
// is kept; else try, in order, the stream's own name, path_tail, and
// relative_upmost, keeping the first that parses to a non-default code
// with a two-letter form.
func ResolveLang(cfg *config.Config, ctx Context, idx int, lang string, stream *model.Stream) {
	if v, ok := config.ResolveOver[*config.KV[string]](cfg, config.LangsField{}, ctx.TargetPaths).Lookup(idx, lang); ok {
		stream.Lang = model.User(langs.Normalize(v))
		return
	}
	if stream.Lang.V != langs.Und || !cfg.Auto.Langs.V {
		return
	}

	candidates := []string{}
	if stream.Name != nil {
		candidates = append(candidates, stream.Name.V)
	}
	candidates = append(candidates,
		pathutil.PathTail(pathutil.Stem(ctx.SrcPath), ctx.GroupStem),
		pathutil.RelativeUpmost(ctx.InputRoot, ctx.SrcPath),
	)

	for _, c := range candidates {
		code := langs.Normalize(c)
		if code == langs.Und {
			continue
		}
		if _, ok := langs.TwoLetter(code); ok {
			stream.Lang = model.Auto(code)
			return
		}
	}
}

func parentDirBase(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i <= 0 {
		return ""
	}
	rest := path[:i]
	j := strings.LastIndexByte(rest, '/')
	if j < 0 {
		return rest
	}
	return rest[j+1:]
}
