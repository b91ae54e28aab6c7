// Package order builds the deterministic cross-file stream order that the
// muxer driver emits its -map arguments from.
package order

import (
	"regexp"
	"sort"

	"github.com/mdickers47/mux-media/internal/cache"
	"github.com/mdickers47/mux-media/internal/config"
	"github.com/mdickers47/mux-media/internal/langs"
	"github.com/mdickers47/mux-media/internal/logging"
	"github.com/mdickers47/mux-media/internal/model"
	"github.com/mdickers47/mux-media/internal/pathutil"
)

// SourceFile is one file in a group's canonical, already-ordered file list,
// paired with its already-probed streams.
type SourceFile struct {
	Path        string
	SrcNum      int
	Streams     []model.Stream
	TargetPaths []config.Target
}

// keyed is an intermediate sort record: the composite ordering key plus
// the data needed to build the final StreamsOrderItem.
type keyed struct {
	tyRank   int
	langRank int
	langCode string
	pathRank int
	pathStr  string
	fileOrder int
	iStream  int

	item model.StreamsOrderItem
}

var signsWord = regexp.MustCompile(`(?i)\bsigns\b|\bнадписи\b`)

// isSigns reports whether name contains the "signs"/"надписи" whole-word
// marker that gets a late sort override.
func isSigns(name string) bool {
	return signsWord.MatchString(name)
}

// Build computes (or returns the cached) streams order for a group. files
// must already be in the group's canonical order (file_order); each file's
// resolved streams filter decides, per stream, whether it survives into the
// union before sorting.
func Build(
	cfg *config.Config,
	groupCache *cache.GroupCache,
	root string,
	files []SourceFile,
) ([]model.StreamsOrderItem, error) {
	result, _ := groupCache.Order.Get(func() ([]model.StreamsOrderItem, error) {
		return build(cfg, root, files)
	})
	if result == nil {
		return nil, nil
	}
	return *result, nil
}

func build(cfg *config.Config, root string, files []SourceFile) ([]model.StreamsOrderItem, error) {
	var recs []keyed
	seen := map[model.StreamType]int{}
	kept := map[model.StreamType]int{}

	for fileOrder, sf := range files {
		depth := pathutil.Depth(root, sf.Path)
		for _, st := range sf.Streams {
			filter := config.ResolveOver[*config.StreamsFilter](cfg, config.StreamsField{Type: st.Type}, sf.TargetPaths)
			lang := st.Lang.V
			seen[st.Type]++
			if !filter.Save(st.TypeIndex, lang) {
				continue
			}
			kept[st.Type]++

			langRank := langs.Rank(lang, cfg.Locale)

			var name string
			if st.Name != nil {
				name = st.Name.V
			}

			rec := keyed{
				tyRank:    int(st.Type),
				langRank:  langRank,
				langCode:  langs.Normalize(lang),
				pathRank:  depth,
				pathStr:   sf.Path,
				fileOrder: fileOrder,
				iStream:   st.Index,
				item: model.StreamsOrderItem{
					Type:       st.Type,
					SrcNum:     sf.SrcNum,
					IStream:    st.Index,
					Key:        sf.Path,
					KeyIStream: st.Index,
					Lang:       lang,
					Name:       name,
					Codec:      st.Codec,
				},
			}
			recs = append(recs, rec)
		}
	}
	for ty, n := range seen {
		if n > 0 && kept[ty] == 0 {
			logging.L().Warn().Str("type", ty.String()).Msg("streams filter kept no streams of this type; no disposition is set for it")
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.tyRank != b.tyRank {
			return a.tyRank < b.tyRank
		}
		if a.langRank != b.langRank {
			return a.langRank < b.langRank
		}
		if a.langCode != b.langCode {
			return a.langCode < b.langCode
		}
		if a.pathRank != b.pathRank {
			return a.pathRank < b.pathRank
		}
		if a.pathStr != b.pathStr {
			return a.pathStr < b.pathStr
		}
		if a.fileOrder != b.fileOrder {
			return a.fileOrder < b.fileOrder
		}
		return a.iStream < b.iStream
	})

	applySignsOverride(recs, cfg.Locale)

	out := make([]model.StreamsOrderItem, len(recs))
	for i, r := range recs {
		out[i] = r.item
	}
	return out, nil
}

// applySignsOverride moves every signs-named subtitle to directly follow
// the locale-language subtitle within its type class, in place.
func applySignsOverride(recs []keyed, locale string) {
	localeNorm := langs.Normalize(locale)

	start := -1
	for i := range recs {
		if recs[i].item.Type != model.Sub {
			continue
		}
		if start == -1 {
			start = i
		}
		end := i
		for end+1 < len(recs) && recs[end+1].item.Type == model.Sub {
			end++
		}

		anchor := -1
		for k := start; k <= end; k++ {
			if langs.Normalize(recs[k].item.Lang) == localeNorm && !isSigns(recs[k].item.Name) {
				anchor = k
			}
		}
		if anchor == -1 {
			return
		}

		var signs []int
		for k := start; k <= end; k++ {
			if k != anchor && isSigns(recs[k].item.Name) {
				signs = append(signs, k)
			}
		}
		if len(signs) == 0 {
			return
		}
		moveAfter(recs, signs, anchor)
		return
	}
}

// moveAfter relocates the indices in idxs to directly follow position
// anchor, preserving the relative order of everything else.
func moveAfter(recs []keyed, idxs []int, anchor int) {
	moving := make(map[int]bool, len(idxs))
	for _, i := range idxs {
		moving[i] = true
	}
	var moved []keyed
	for _, i := range idxs {
		moved = append(moved, recs[i])
	}

	out := make([]keyed, 0, len(recs))
	anchorVal := recs[anchor]
	for i, r := range recs {
		if moving[i] {
			continue
		}
		out = append(out, r)
		if i == anchor {
			_ = anchorVal
			out = append(out, moved...)
		}
	}
	copy(recs, out)
}
