package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mdickers47/mux-media/internal/langs"
	"github.com/mdickers47/mux-media/internal/model"
	"github.com/mdickers47/mux-media/internal/muxerr"
	"github.com/spf13/pflag"
)

// ParseResult wraps a ready-to-run Config. ParseArgs does not return it: it
// returns the *Config directly and signals early-exit requests
// (help/version/listing) with a muxerr.Ok error.
type ParseResult struct {
	Config *Config
}

const version = "1.0.0"

// ParseArgs parses a full mux-media command line into a Config. It first
// replays any --load <json> config file (argv-equivalent), then the
// literal args passed, so CLI args always win.
func ParseArgs(argv []string) (*Config, error) {
	loadPath := findLoadFlag(argv)
	var effective []string
	if loadPath != "" {
		saved, err := loadSavedArgs(loadPath)
		if err != nil {
			return nil, muxerr.New(muxerr.Unknown, fmt.Errorf("--load %s: %w", loadPath, err))
		}
		effective = append(effective, saved...)
	}
	effective = append(effective, argv...)

	cfg := New()
	segments := splitByTarget(effective)

	if err := parseGlobalSegment(cfg, segments[0].args); err != nil {
		return nil, err
	}
	for _, seg := range segments[1:] {
		if err := parseTargetSegment(cfg, seg.target, seg.args); err != nil {
			return nil, err
		}
	}

	if cfg.SaveConfig {
		if err := SaveConfig(cfg, effective); err != nil {
			// a failed save is downgraded to a warning, never a hard error.
			fmt.Fprintf(os.Stderr, "warning: failed to save config: %v\n", err)
		}
	}

	return cfg, nil
}

func findLoadFlag(argv []string) string {
	for i, a := range argv {
		if a == "--load" && i+1 < len(argv) {
			return argv[i+1]
		}
		if strings.HasPrefix(a, "--load=") {
			return strings.TrimPrefix(a, "--load=")
		}
	}
	return ""
}

func loadSavedArgs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var args []string
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// SaveConfig dumps argv as a JSON array of strings to
// <input.dir>/mux-media.json.
func SaveConfig(cfg *Config, argv []string) error {
	data, err := json.MarshalIndent(argv, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(cfg.Input.Dir, "mux-media.json")
	return os.WriteFile(path, data, 0o644)
}

type segment struct {
	target Target // zero value unused for segment 0 (global)
	args   []string
}

// splitByTarget breaks argv into the global segment (before the first
// -t/--target) and one segment per subsequent -t group: "-t, --target
// <trg> [options...]" applies subsequent options until the next -t.
func splitByTarget(argv []string) []segment {
	segments := []segment{{args: nil}}
	i := 0
	for i < len(argv) {
		a := argv[i]
		if a == "-t" || a == "--target" {
			if i+1 >= len(argv) {
				break
			}
			segments = append(segments, segment{target: ParseTarget(argv[i+1])})
			i += 2
			continue
		}
		if strings.HasPrefix(a, "--target=") {
			segments = append(segments, segment{target: ParseTarget(strings.TrimPrefix(a, "--target="))})
			i++
			continue
		}
		segments[len(segments)-1].args = append(segments[len(segments)-1].args, a)
		i++
	}
	return segments
}

// newFlagSet builds a pflag.FlagSet for one command-line segment.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Usage = func() {}
	return fs
}

func parseGlobalSegment(cfg *Config, args []string) error {
	fs := newFlagSet("mux-media")

	var input, output, rng, skip string
	var depth int
	var solo bool
	var locale string
	var jobs int
	var verbose, quiet bool
	var exitOnErr bool
	var saveCfg bool
	var reencode bool
	var loadPath string
	var pro bool
	var noAutoDefaults, noAutoForceds, noAutoNames, noAutoLangs, noAutoCharsets bool
	var autoDefaults, autoForceds, autoNames, autoLangs, autoCharsets bool
	var listTargets, listLangs, listLangsFull, help, showVersion bool
	var maxDefaults, maxForceds int
	var defaultsStr, forcedsStr, namesStr, langsStr, specialsStr string

	fs.StringVarP(&input, "input", "i", "", "input directory")
	fs.StringVarP(&output, "output", "o", "", "output pattern dir/begin,tail.ext")
	fs.StringVarP(&rng, "range", "r", "", "n[-m] media number filter")
	fs.StringVar(&skip, "skip", "", "comma-separated glob(s) to skip")
	fs.IntVar(&depth, "depth", 16, "max directory depth")
	fs.BoolVar(&solo, "solo", false, "single-threaded discovery (debugging)")

	fs.StringVarP(&locale, "locale", "l", "eng", "locale language code")
	fs.IntVarP(&jobs, "jobs", "j", 4, "worker thread count")
	fs.BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	fs.BoolVarP(&quiet, "quiet", "q", false, "quiet logging")
	fs.BoolVarP(&exitOnErr, "exit-on-err", "e", false, "abort on first group failure")
	fs.BoolVar(&saveCfg, "save-config", false, "persist this invocation as mux-media.json")
	fs.BoolVar(&reencode, "reencode", false, "re-encode every stream instead of stream-copying it (ffmpeg-style muxer)")
	fs.StringVar(&loadPath, "load", "", "replay a saved config file first")

	fs.BoolVar(&pro, "pro", false, "disable every --auto-* flag")
	fs.BoolVar(&autoDefaults, "auto-defaults", true, "")
	fs.BoolVar(&noAutoDefaults, "no-auto-defaults", false, "")
	fs.BoolVar(&autoForceds, "auto-forceds", true, "")
	fs.BoolVar(&noAutoForceds, "no-auto-forceds", false, "")
	fs.BoolVar(&autoNames, "auto-names", true, "")
	fs.BoolVar(&noAutoNames, "no-auto-names", false, "")
	fs.BoolVar(&autoLangs, "auto-langs", true, "")
	fs.BoolVar(&noAutoLangs, "no-auto-langs", false, "")
	fs.BoolVar(&autoCharsets, "auto-charsets", true, "")
	fs.BoolVar(&noAutoCharsets, "no-auto-charsets", false, "")

	fs.IntVar(&maxDefaults, "max-defaults", 1, "")
	fs.IntVar(&maxForceds, "max-forceds", 0, "")
	fs.StringVar(&defaultsStr, "defaults", "", "")
	fs.StringVar(&forcedsStr, "forceds", "", "")
	fs.StringVar(&namesStr, "names", "", "")
	fs.StringVar(&langsStr, "langs", "", "")
	fs.StringVar(&specialsStr, "specials", "", "raw mkvmerge arguments, space-separated")

	fs.BoolVar(&listTargets, "list-targets", false, "")
	fs.BoolVar(&listLangs, "list-langs", false, "")
	fs.BoolVar(&listLangsFull, "list-langs-full", false, "")
	fs.BoolVarP(&help, "help", "h", false, "")
	fs.BoolVarP(&showVersion, "version", "V", false, "")

	if err := fs.Parse(args); err != nil {
		return muxerr.New(muxerr.Clap, err)
	}

	if help {
		fs.Usage = nil
		fmt.Println(fs.FlagUsages())
		return muxerr.New(muxerr.Ok, nil)
	}
	if showVersion {
		fmt.Println("mux-media " + version)
		return muxerr.New(muxerr.Ok, nil)
	}
	if listTargets {
		printTargets()
		return muxerr.New(muxerr.Ok, nil)
	}
	if listLangs || listLangsFull {
		printLangs(listLangsFull)
		return muxerr.New(muxerr.Ok, nil)
	}

	if input == "" {
		return muxerr.Clapf("missing required -i/--input")
	}
	cfg.Input.Dir = input
	cfg.Input.Depth = depth
	cfg.Input.Solo = solo
	if skip != "" {
		cfg.Input.Skip = strings.Split(skip, ",")
	}
	if rng != "" {
		rf, err := parseRange(rng)
		if err != nil {
			return muxerr.New(muxerr.InvalidValue, err)
		}
		cfg.Input.Range = &rf
	}

	if output != "" {
		if err := parseOutputPattern(cfg, output); err != nil {
			return err
		}
	}

	cfg.Locale = locale
	cfg.Threads = jobs
	cfg.Verbose = verbose
	cfg.Quiet = quiet
	cfg.ExitOnErr = exitOnErr
	cfg.SaveConfig = saveCfg
	cfg.Reencode = reencode

	cfg.Auto = AutoFlags{
		Defaults: model.Auto(true),
		Forceds:  model.Auto(true),
		Names:    model.Auto(true),
		Langs:    model.Auto(true),
		Charsets: model.Auto(true),
	}
	if pro {
		cfg.Auto = AutoFlags{}
	}
	applyAutoFlag(&cfg.Auto.Defaults, fs, "auto-defaults", "no-auto-defaults", autoDefaults, noAutoDefaults)
	applyAutoFlag(&cfg.Auto.Forceds, fs, "auto-forceds", "no-auto-forceds", autoForceds, noAutoForceds)
	applyAutoFlag(&cfg.Auto.Names, fs, "auto-names", "no-auto-names", autoNames, noAutoNames)
	applyAutoFlag(&cfg.Auto.Langs, fs, "auto-langs", "no-auto-langs", autoLangs, noAutoLangs)
	applyAutoFlag(&cfg.Auto.Charsets, fs, "auto-charsets", "no-auto-charsets", autoCharsets, noAutoCharsets)

	cfg.Defaults.MaxInAuto = &maxDefaults
	cfg.Forceds.MaxInAuto = &maxForceds
	if defaultsStr != "" {
		if err := applyDispositionSyntax(&cfg.Defaults, defaultsStr); err != nil {
			return muxerr.New(muxerr.InvalidValue, err)
		}
	}
	if forcedsStr != "" {
		if err := applyDispositionSyntax(&cfg.Forceds, forcedsStr); err != nil {
			return muxerr.New(muxerr.InvalidValue, err)
		}
	}
	if namesStr != "" {
		kv, err := parseKVString[string](namesStr, func(s string) (string, error) { return s, nil })
		if err != nil {
			return muxerr.New(muxerr.InvalidValue, err)
		}
		cfg.Names = kv
	}
	if langsStr != "" {
		kv, err := parseKVString[string](langsStr, func(s string) (string, error) { return s, nil })
		if err != nil {
			return muxerr.New(muxerr.InvalidValue, err)
		}
		cfg.Langs = kv
	}
	if specialsStr != "" {
		cfg.Specials = strings.Fields(specialsStr)
	}

	return nil
}

// applyAutoFlag only overrides base when the user actually passed the
// corresponding flag on the command line (fs.Changed), preserving --pro's
// "blanket disable, but a later explicit --auto-X still wins" contract.
func applyAutoFlag(base *model.Value[bool], fs *pflag.FlagSet, onName, offName string, onVal, offVal bool) {
	if fs.Changed(offName) && offVal {
		*base = model.User(false)
		return
	}
	if fs.Changed(onName) {
		*base = model.User(onVal)
	}
}

func parseRange(s string) (RangeFilter, error) {
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return RangeFilter{}, fmt.Errorf("bad range %q: %w", s, err)
		}
		return RangeFilter{Lo: n, Hi: n, HasHi: true}, nil
	}
	l, err1 := strconv.Atoi(lo)
	h, err2 := strconv.Atoi(hi)
	if err1 != nil || err2 != nil {
		return RangeFilter{}, fmt.Errorf("bad range %q", s)
	}
	return RangeFilter{Lo: l, Hi: h, HasHi: true}, nil
}

// parseOutputPattern splits "dir/begin,tail.ext" into its three parts.
func parseOutputPattern(cfg *Config, pattern string) error {
	dir := filepath.Dir(pattern)
	base := filepath.Base(pattern)
	begin, tail, ok := strings.Cut(base, ",")
	if !ok {
		return muxerr.Clapf("output pattern %q must contain a ','", pattern)
	}
	ext := filepath.Ext(tail)
	if ext != "" {
		tail = strings.TrimSuffix(tail, ext)
		ext = strings.TrimPrefix(ext, ".")
	} else {
		ext = "mkv"
	}
	cfg.Output.Dir = dir
	cfg.Output.Begin = begin
	cfg.Output.Tail = tail
	cfg.Output.Ext = ext
	cfg.Output.TempDir = filepath.Join(dir, ".temp-mux-media")
	return nil
}

func parseKVString[T any](s string, conv func(string) (T, error)) (KV[T], error) {
	var kv KV[T]
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, ":")
		if !ok {
			return kv, fmt.Errorf("bad k:v pair %q", pair)
		}
		sel, err := ParseSelector(k)
		if err != nil {
			return kv, err
		}
		val, err := conv(v)
		if err != nil {
			return kv, err
		}
		kv.Entries = append(kv.Entries, KVEntry[T]{Sel: sel, Val: val})
	}
	return kv, nil
}

func applyDispositionSyntax(spec *DispositionSpec, s string) error {
	if b, ok := ParseBool(s); ok {
		spec.Bool = &b
		return nil
	}
	kv, err := parseKVString[bool](s, func(v string) (bool, error) {
		b, ok := ParseBool(v)
		if !ok {
			return false, fmt.Errorf("bad boolean %q", v)
		}
		return b, nil
	})
	if err != nil {
		return err
	}
	spec.Overrides = kv
	return nil
}

// parseTargetSegment parses the options following one -t/--target: the
// per-type stream-selection flags and the per-target disposition/naming
// overrides.
func parseTargetSegment(cfg *Config, target Target, args []string) error {
	ct := cfg.targetFor(target)
	if ct.Streams == nil {
		ct.Streams = map[model.StreamType]*StreamsFilter{}
	}

	fs := newFlagSet("target")

	var streams, noStreams string
	var audio, noAudio, subs, noSubs, video, noVideo, fonts, noFonts, attachs, noAttachs string
	var chaptersDrop bool
	var chaptersFrom int
	var maxDefaults, maxForceds int
	var defaultsStr, forcedsStr, namesStr, langsStr, specialsStr string

	fs.StringVar(&streams, "streams", "", "")
	fs.StringVar(&noStreams, "no-streams", "", "")
	fs.StringVar(&audio, "audio", "", "")
	fs.StringVar(&noAudio, "no-audio", "", "")
	fs.StringVar(&subs, "subs", "", "")
	fs.StringVar(&noSubs, "no-subs", "", "")
	fs.StringVar(&video, "video", "", "")
	fs.StringVar(&noVideo, "no-video", "", "")
	fs.StringVar(&fonts, "fonts", "", "")
	fs.StringVar(&noFonts, "no-fonts", "", "")
	fs.StringVar(&attachs, "attachs", "", "")
	fs.StringVar(&noAttachs, "no-attachs", "", "")
	fs.BoolVar(&chaptersDrop, "no-chapters", false, "")
	fs.IntVar(&chaptersFrom, "chapters-from", -1, "")
	fs.IntVar(&maxDefaults, "max-defaults", 0, "")
	fs.IntVar(&maxForceds, "max-forceds", 0, "")
	fs.StringVar(&defaultsStr, "defaults", "", "")
	fs.StringVar(&forcedsStr, "forceds", "", "")
	fs.StringVar(&namesStr, "names", "", "")
	fs.StringVar(&langsStr, "langs", "", "")
	fs.StringVar(&specialsStr, "specials", "", "")
	for _, name := range []string{"no-streams", "no-audio", "no-subs", "no-video", "no-fonts", "no-attachs"} {
		fs.Lookup(name).NoOptDefVal = "all"
	}

	if err := fs.Parse(args); err != nil {
		return muxerr.New(muxerr.Clap, err)
	}

	applyTypeFilter := func(t model.StreamType, incl, excl string) error {
		if excl != "" || (fs.Changed("no-"+t.String()) && t != model.Sub) {
			f, err := ParseStreamsFilter("", true)
			if err != nil {
				return err
			}
			ct.Streams[t] = &f
			return nil
		}
		if incl != "" {
			f, err := ParseStreamsFilter(incl, false)
			if err != nil {
				return err
			}
			ct.Streams[t] = &f
		}
		return nil
	}

	if streams != "" {
		f, err := ParseStreamsFilter(streams, false)
		if err != nil {
			return muxerr.New(muxerr.InvalidValue, err)
		}
		for _, t := range []model.StreamType{model.Video, model.Audio, model.Sub, model.Font, model.Attach} {
			ft := f
			ct.Streams[t] = &ft
		}
	}
	if noStreams != "" || fs.Changed("no-streams") {
		f, _ := ParseStreamsFilter("", true)
		for _, t := range []model.StreamType{model.Video, model.Audio, model.Sub, model.Font, model.Attach} {
			ft := f
			ct.Streams[t] = &ft
		}
	}
	if err := applyTypeFilter(model.Audio, audio, noAudio); err != nil {
		return muxerr.New(muxerr.InvalidValue, err)
	}
	if err := applyTypeFilter(model.Sub, subs, noSubs); err != nil {
		return muxerr.New(muxerr.InvalidValue, err)
	}
	if err := applyTypeFilter(model.Video, video, noVideo); err != nil {
		return muxerr.New(muxerr.InvalidValue, err)
	}
	if err := applyTypeFilter(model.Font, fonts, noFonts); err != nil {
		return muxerr.New(muxerr.InvalidValue, err)
	}
	if err := applyTypeFilter(model.Attach, attachs, noAttachs); err != nil {
		return muxerr.New(muxerr.InvalidValue, err)
	}

	if fs.Changed("no-chapters") || fs.Changed("chapters-from") {
		ct.Chapters = &ChaptersPolicy{Drop: chaptersDrop, FromSrcNum: chaptersFrom}
	}

	if defaultsStr != "" || fs.Changed("max-defaults") {
		spec := &DispositionSpec{}
		if fs.Changed("max-defaults") {
			spec.MaxInAuto = &maxDefaults
		}
		if defaultsStr != "" {
			if err := applyDispositionSyntax(spec, defaultsStr); err != nil {
				return muxerr.New(muxerr.InvalidValue, err)
			}
		}
		ct.Defaults = spec
	}
	if forcedsStr != "" || fs.Changed("max-forceds") {
		spec := &DispositionSpec{}
		if fs.Changed("max-forceds") {
			spec.MaxInAuto = &maxForceds
		}
		if forcedsStr != "" {
			if err := applyDispositionSyntax(spec, forcedsStr); err != nil {
				return muxerr.New(muxerr.InvalidValue, err)
			}
		}
		ct.Forceds = spec
	}
	if namesStr != "" {
		kv, err := parseKVString[string](namesStr, func(s string) (string, error) { return s, nil })
		if err != nil {
			return muxerr.New(muxerr.InvalidValue, err)
		}
		ct.Names = &kv
	}
	if langsStr != "" {
		kv, err := parseKVString[string](langsStr, func(s string) (string, error) { return s, nil })
		if err != nil {
			return muxerr.New(muxerr.InvalidValue, err)
		}
		ct.Langs = &kv
	}
	if specialsStr != "" {
		specials := strings.Fields(specialsStr)
		ct.Specials = &specials
	}

	return nil
}

// printTargets lists the -t/--target keywords --streams and friends accept:
// the global scope plus every stream-type keyword.
func printTargets() {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Target", "Selects"})
	t.AppendRow(table.Row{"global", "applies before any -t segment narrows scope"})
	for _, ty := range []model.StreamType{model.Video, model.Audio, model.Sub, model.Font, model.Attach, model.Other} {
		t.AppendRow(table.Row{ty.String(), "streams of this type, across all source files in a group"})
	}
	t.AppendRow(table.Row{"<path>", "streams belonging to one matched source file"})
	t.Render()
}

// printLangs lists the language registry, matching --list-langs's compact
// two/three-letter form or --list-langs-full's added display name.
func printLangs(full bool) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	if full {
		t.AppendHeader(table.Row{"ISO 639-3", "ISO 639-1", "Name", "Priority"})
	} else {
		t.AppendHeader(table.Row{"ISO 639-3", "ISO 639-1"})
	}
	for _, e := range langs.List() {
		if full {
			t.AppendRow(table.Row{e.Code, e.TwoCode, e.Name, e.Priority})
		} else {
			t.AppendRow(table.Row{e.Code, e.TwoCode})
		}
	}
	t.Render()
}
