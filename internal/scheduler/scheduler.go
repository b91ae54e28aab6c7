// Package scheduler is the group scheduler: a fixed-size worker pool that
// draws groups from a shared iterator, builds each group's full MediaInfo,
// and drives it through the pipeline to a finished output file.
package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/mdickers47/mux-media/internal/autometa"
	"github.com/mdickers47/mux-media/internal/cache"
	"github.com/mdickers47/mux-media/internal/charset"
	"github.com/mdickers47/mux-media/internal/classify"
	"github.com/mdickers47/mux-media/internal/config"
	"github.com/mdickers47/mux-media/internal/discovery"
	"github.com/mdickers47/mux-media/internal/disposition"
	"github.com/mdickers47/mux-media/internal/logging"
	"github.com/mdickers47/mux-media/internal/model"
	"github.com/mdickers47/mux-media/internal/mux"
	"github.com/mdickers47/mux-media/internal/order"
	"github.com/mdickers47/mux-media/internal/probe"
	"github.com/mdickers47/mux-media/internal/tool"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Result is the scheduler's final tally.
type Result struct {
	Succeeded int
	Failed    int
}

// iterator hands out groups one at a time under a mutex, and supports
// draining (for cooperative cancellation on exit_on_err).
type iterator struct {
	mu      sync.Mutex
	groups  []discovery.Group
	next    int
	drained bool
}

func (it *iterator) take() (discovery.Group, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.drained || it.next >= len(it.groups) {
		return discovery.Group{}, false
	}
	g := it.groups[it.next]
	it.next++
	return g, true
}

func (it *iterator) drain() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.drained = true
}

// Run drives the worker pool over groups and returns the success/failure
// tally. ctx cancellation or exit_on_err both stop remaining work. fonts is
// the set of loose font files discovered anywhere under the input tree;
// attached to every Matroska-muxed group's output (mkvmerge only — the
// ffmpeg-style path has no equivalent).
func Run(ctx context.Context, cfg *config.Config, reg *tool.Registry, groups []discovery.Group, fonts []string) (Result, error) {
	it := &iterator{groups: groups}
	var succeeded, failed int
	var mu sync.Mutex

	bar := progressbar.Default(int64(len(groups)))

	eg, egctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Threads; w++ {
		threadID := w
		eg.Go(func() error {
			mi := cache.NewMediaInfo(threadID, filepath.Join(cfg.Output.TempDir, fmt.Sprintf("sidecar-%d.json", threadID)))
			for {
				g, ok := it.take()
				if !ok {
					return nil
				}
				err := processGroup(egctx, cfg, reg, mi, g, fonts)
				mu.Lock()
				if err != nil {
					failed++
					logging.L().Error().Err(err).Str("group", g.Stem).Msg("group failed")
					if cfg.ExitOnErr {
						mu.Unlock()
						it.drain()
						return err
					}
				} else {
					succeeded++
				}
				mu.Unlock()
				bar.Add(1)
			}
		})
	}

	err := eg.Wait()
	return Result{Succeeded: succeeded, Failed: failed}, err
}

func processGroup(ctx context.Context, cfg *config.Config, reg *tool.Registry, mi *cache.MediaInfo, g discovery.Group, fonts []string) error {
	type fileStreams struct {
		path        string
		srcNum      int
		streams     []model.Stream
		targetPaths []config.Target
	}

	var files []fileStreams
	for i, path := range g.Files {
		fc := mi.CacheOfFile(path)
		sp, err := probe.Streams(ctx, reg, fc, path)
		if err != nil {
			return fmt.Errorf("probe %s: %w", path, err)
		}
		streams := append([]model.Stream(nil), (*sp)...)
		targetPaths := config.TargetPathsForFile(cfg, path)

		for si := range streams {
			idxN, _ := config.StreamVal[*config.KV[string]](cfg, config.NamesField{}, targetPaths, streams[si])
			idxL, _ := config.StreamVal[*config.KV[string]](cfg, config.LangsField{}, targetPaths, streams[si])
			actx := autometa.Context{
				InputRoot:   cfg.Input.Dir,
				SrcPath:     path,
				GroupStem:   g.Stem,
				TargetPaths: targetPaths,
			}
			autometa.ResolveName(cfg, actx, idxN, streams[si].Lang.V, &streams[si])
			autometa.ResolveLang(cfg, actx, idxL, streams[si].Lang.V, &streams[si])
		}

		files = append(files, fileStreams{path: path, srcNum: i, streams: streams, targetPaths: targetPaths})
	}

	var orderFiles []order.SourceFile
	for _, f := range files {
		orderFiles = append(orderFiles, order.SourceFile{
			Path:        f.path,
			SrcNum:      f.srcNum,
			Streams:     f.streams,
			TargetPaths: f.targetPaths,
		})
	}

	streamsOrder, err := order.Build(cfg, mi.CacheOfGroup(), cfg.Input.Dir, orderFiles)
	if err != nil {
		return fmt.Errorf("build order for %s: %w", g.Stem, err)
	}
	if len(streamsOrder) == 0 {
		return nil
	}

	streamByKey := map[model.StreamKey]model.Stream{}
	targetsByNum := map[int][]config.Target{}
	for _, f := range files {
		targetsByNum[f.srcNum] = f.targetPaths
		for _, s := range f.streams {
			streamByKey[model.StreamKey{SrcNum: f.srcNum, IStream: s.Index}] = s
		}
	}

	disposed, err := disposition.Plan(cfg, mi.CacheOfGroup(), streamsOrder, func(item model.StreamsOrderItem) disposition.ItemContext {
		key := model.StreamKey{SrcNum: item.SrcNum, IStream: item.IStream}
		return disposition.ItemContext{
			TargetPaths: targetsByNum[item.SrcNum],
			Stream:      streamByKey[key],
		}
	})
	if err != nil {
		return fmt.Errorf("plan dispositions for %s: %w", g.Stem, err)
	}

	charsets := map[model.StreamKey]charset.Result{}
	for _, f := range files {
		if !cfg.Auto.Charsets.V || !classify.IsSubtitle(f.path) {
			continue
		}
		fc := mi.CacheOfFile(f.path)
		res, err := charset.Sniff(fc, f.path)
		if err != nil {
			continue
		}
		for _, s := range f.streams {
			if s.Type == model.Sub {
				charsets[model.StreamKey{SrcNum: f.srcNum, IStream: s.Index}] = res
			}
		}
	}

	sources := make([]string, len(files))
	for _, f := range files {
		sources[f.srcNum] = f.path
	}

	outExt := cfg.Output.Ext
	outPath := filepath.Join(cfg.Output.Dir, cfg.Output.Begin+g.OutNameMiddle+cfg.Output.Tail+"."+outExt)

	plan := mux.Plan{
		Sources:  sources,
		Order:    streamsOrder,
		Disposed: disposed,
		Chapters: resolveChapters(cfg, targetsByNum),
		Charsets: charsets,
		IsMP4:    outExt == "mp4" || outExt == "m4v",
		Reencode: cfg.Reencode,
	}
	if cfg.Muxer == config.MuxerMatroska {
		plan.ExternalFonts = fonts
		plan.Specials = map[int][]string{}
		for num, targets := range targetsByNum {
			plan.Specials[num] = config.ResolveOver[[]string](cfg, config.SpecialsField{}, targets)
		}
	}

	outcome, err := mux.Run(ctx, reg, cfg.Muxer, plan, outPath)
	if err != nil {
		return err
	}
	if outcome.Skipped {
		logging.L().Info().Str("group", g.Stem).Msg("nothing to copy, skipping")
	}
	return nil
}

func resolveChapters(cfg *config.Config, targetsByNum map[int][]config.Target) config.ChaptersPolicy {
	var targets []config.Target
	for _, ts := range targetsByNum {
		targets = append(targets, ts...)
	}
	return config.ResolveOver[config.ChaptersPolicy](cfg, config.ChaptersField{}, targets)
}
