// Package disposition computes each stream's final default/forced booleans:
// explicit overrides, a per-type cap on how many auto-logic may flip true,
// and the signs/locale-audio heuristics that keep a foreign subtitle from
// stealing the default flag from the viewer's own language.
package disposition

import (
	"regexp"

	"github.com/mdickers47/mux-media/internal/cache"
	"github.com/mdickers47/mux-media/internal/config"
	"github.com/mdickers47/mux-media/internal/langs"
	"github.com/mdickers47/mux-media/internal/model"
)

var signsRE = regexp.MustCompile(`(?i)\bsigns\b|\bнадписи\b`)

func signsWord(name string) bool { return signsRE.MatchString(name) }

// Result is one stream's final (default, forced) pair.
type Result struct {
	Default bool
	Forced  bool
}

// ItemContext is the per-source-file data Plan needs alongside each
// StreamsOrderItem to resolve its target-scoped disposition spec.
type ItemContext struct {
	TargetPaths []config.Target
	Stream      model.Stream
}

// Plan computes (or returns the cached) disposition result for every
// stream in order, keyed by (SrcNum, IStream).
func Plan(
	cfg *config.Config,
	groupCache *cache.GroupCache,
	order []model.StreamsOrderItem,
	ctxFor func(model.StreamsOrderItem) ItemContext,
) (map[model.StreamKey]cache.DispositionResult, error) {
	result, _ := groupCache.Dispositions.Get(func() (map[model.StreamKey]cache.DispositionResult, error) {
		return plan(cfg, order, ctxFor), nil
	})
	if result == nil {
		return nil, nil
	}
	return *result, nil
}

func plan(
	cfg *config.Config,
	order []model.StreamsOrderItem,
	ctxFor func(model.StreamsOrderItem) ItemContext,
) map[model.StreamKey]cache.DispositionResult {
	out := make(map[model.StreamKey]cache.DispositionResult, len(order))

	defaultCount := map[model.StreamType]int{}
	forcedCount := map[model.StreamType]int{}
	hasLocaleAudioDefault := false
	defaultAudioLangs := map[string]bool{}
	localeNorm := langs.Normalize(cfg.Locale)

	for _, item := range order {
		ictx := ctxFor(item)
		d := resolveOne(cfg, false, item, ictx, defaultCount)
		f := resolveOne(cfg, true, item, ictx, forcedCount)

		if item.Type == model.Sub && d {
			itSigns := signsWord(item.Name) || signsWord(item.Key)
			flip := false
			if itSigns && !hasLocaleAudioDefault {
				flip = true
			} else if !itSigns && hasLocaleAudioDefault {
				flip = true
			} else if !itSigns && defaultAudioLangs[langs.Normalize(item.Lang)] {
				flip = true
			}
			if flip {
				d = false
				defaultCount[item.Type]--
			}
		}

		if item.Type == model.Audio && d {
			if langs.Normalize(item.Lang) == localeNorm {
				hasLocaleAudioDefault = true
			}
			defaultAudioLangs[langs.Normalize(item.Lang)] = true
		}

		key := model.StreamKey{SrcNum: item.SrcNum, IStream: item.IStream}
		out[key] = cache.DispositionResult{Default: d, Forced: f}
	}

	return out
}

// resolveOne resolves one (disposition, item) pair: explicit override wins,
// else auto-logic flips true while under the configured cap.
func resolveOne(
	cfg *config.Config,
	forced bool,
	item model.StreamsOrderItem,
	ictx ItemContext,
	counts map[model.StreamType]int,
) bool {
	idx, spec := config.StreamValDispositions(cfg, forced, ictx.TargetPaths, ictx.Stream)
	if v, ok := spec.Resolve(idx, item.Lang); ok {
		if v {
			counts[item.Type]++
		}
		return v
	}

	autoOn := cfg.Auto.Defaults.V
	defCap := 1
	if forced {
		autoOn = cfg.Auto.Forceds.V
		defCap = 0
	}
	if !autoOn {
		return false
	}

	capN := spec.Cap(defCap)
	if counts[item.Type] < capN {
		counts[item.Type]++
		return true
	}
	return false
}
