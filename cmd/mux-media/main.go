// Command mux-media batch-multiplexes a directory of video, audio,
// subtitle, chapter, and font files into one output container per group.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mdickers47/mux-media/internal/config"
	"github.com/mdickers47/mux-media/internal/discovery"
	"github.com/mdickers47/mux-media/internal/logging"
	"github.com/mdickers47/mux-media/internal/muxerr"
	"github.com/mdickers47/mux-media/internal/scheduler"
	"github.com/mdickers47/mux-media/internal/tool"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cfg, err := config.ParseArgs(argv)
	if err != nil {
		if me, ok := err.(*muxerr.Error); ok && me.Kind == muxerr.Ok {
			return 0
		}
		color.Red("mux-media: %v", err)
		return muxerr.ExitCode(err)
	}

	lvl := logging.Normal
	if cfg.Verbose {
		lvl = logging.Verbose
	}
	if cfg.Quiet {
		lvl = logging.Quiet
	}
	logging.Init(os.Stderr, lvl)

	walker := &discovery.Walker{
		Root:  cfg.Input.Dir,
		Depth: cfg.Input.Depth,
		Skip:  cfg.Input.Skip,
		Range: cfg.Input.Range,
	}
	if err := walker.Finalize(); err != nil {
		logging.L().Error().Err(err).Msg("discovery failed")
		return muxerr.ExitCode(muxerr.New(muxerr.Unknown, err))
	}
	groups, err := walker.IterMediaGroupedByStem()
	if err != nil {
		logging.L().Error().Err(err).Msg("grouping failed")
		return muxerr.ExitCode(muxerr.New(muxerr.Unknown, err))
	}
	logging.L().Info().Int("groups", len(groups)).Msg("discovered groups")

	fonts, err := walker.FontFiles()
	if err != nil {
		logging.L().Error().Err(err).Msg("font discovery failed")
		return muxerr.ExitCode(muxerr.New(muxerr.Unknown, err))
	}

	reg := &tool.Registry{
		Mkvmerge:   "mkvmerge",
		Ffmpeg:     "ffmpeg",
		Ffprobe:    "ffprobe",
		SidecarDir: cfg.Output.TempDir,
	}

	result, err := scheduler.Run(context.Background(), cfg, reg, groups, fonts)
	fmt.Fprintf(os.Stderr, "done: %d succeeded, %d failed\n", result.Succeeded, result.Failed)
	if err != nil {
		return muxerr.ExitCode(muxerr.New(muxerr.Unknown, err))
	}
	if result.Failed > 0 {
		return 1
	}
	return 0
}
