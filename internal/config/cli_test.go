package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdickers47/mux-media/internal/model"
	"github.com/mdickers47/mux-media/internal/muxerr"
)

func TestParseArgsRequiresInput(t *testing.T) {
	if _, err := ParseArgs(nil); err == nil {
		t.Fatal("ParseArgs with no -i should fail")
	} else if me, ok := err.(*muxerr.Error); !ok || me.Kind != muxerr.Clap {
		t.Errorf("missing -i should be a Clap error, got %v", err)
	}
}

func TestParseArgsGlobalDefaults(t *testing.T) {
	cfg, err := ParseArgs([]string{"-i", "/media/show"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Input.Dir != "/media/show" {
		t.Errorf("Input.Dir = %q", cfg.Input.Dir)
	}
	if cfg.Locale != "eng" || cfg.Threads != 4 {
		t.Errorf("unexpected defaults: locale=%q threads=%d", cfg.Locale, cfg.Threads)
	}
	if !cfg.Auto.Defaults.V || cfg.Auto.Defaults.IsUser {
		t.Errorf("Auto.Defaults should default to Auto(true), got %+v", cfg.Auto.Defaults)
	}
}

func TestParseArgsOutputPattern(t *testing.T) {
	cfg, err := ParseArgs([]string{"-i", "/in", "-o", "/out/ep-,done.mp4"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Dir != "/out" || cfg.Output.Begin != "ep-" || cfg.Output.Tail != "done" || cfg.Output.Ext != "mp4" {
		t.Errorf("Output = %+v", cfg.Output)
	}
}

func TestParseArgsOutputPatternDefaultsExtToMkv(t *testing.T) {
	cfg, err := ParseArgs([]string{"-i", "/in", "-o", "/out/ep-,done"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Ext != "mkv" {
		t.Errorf("Output.Ext = %q, want mkv when the tail has no extension", cfg.Output.Ext)
	}
}

func TestParseArgsOutputPatternRequiresComma(t *testing.T) {
	if _, err := ParseArgs([]string{"-i", "/in", "-o", "/out/noeverycomma.mkv"}); err == nil {
		t.Errorf("an output pattern without a comma should fail")
	}
}

func TestParseArgsRange(t *testing.T) {
	cfg, err := ParseArgs([]string{"-i", "/in", "-r", "3-7"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Input.Range == nil || cfg.Input.Range.Lo != 3 || cfg.Input.Range.Hi != 7 || !cfg.Input.Range.HasHi {
		t.Errorf("Input.Range = %+v", cfg.Input.Range)
	}
}

func TestParseArgsProDisablesAllAutoUnlessOverridden(t *testing.T) {
	cfg, err := ParseArgs([]string{"-i", "/in", "--pro", "--auto-names"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Auto.Defaults.V {
		t.Errorf("--pro should disable auto-defaults")
	}
	if !cfg.Auto.Names.V || !cfg.Auto.Names.IsUser {
		t.Errorf("an explicit --auto-names after --pro should still win, got %+v", cfg.Auto.Names)
	}
}

func TestParseArgsNoAutoDefaultsWins(t *testing.T) {
	cfg, err := ParseArgs([]string{"-i", "/in", "--no-auto-defaults"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Auto.Defaults.V {
		t.Errorf("--no-auto-defaults should turn Auto.Defaults off")
	}
}

func TestParseArgsDefaultsBoolShorthand(t *testing.T) {
	cfg, err := ParseArgs([]string{"-i", "/in", "--defaults", "false"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Defaults.Bool == nil || *cfg.Defaults.Bool {
		t.Errorf("Defaults.Bool = %v, want pointer to false", cfg.Defaults.Bool)
	}
}

func TestParseArgsDefaultsKVForm(t *testing.T) {
	cfg, err := ParseArgs([]string{"-i", "/in", "--defaults", "eng:true,fre:false"})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Defaults.Overrides.Entries) != 2 {
		t.Fatalf("Defaults.Overrides = %+v", cfg.Defaults.Overrides)
	}
}

func TestParseArgsGlobalSpecials(t *testing.T) {
	cfg, err := ParseArgs([]string{"-i", "/in", "--specials", "--compression 0:none"})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Specials) != 2 || cfg.Specials[0] != "--compression" || cfg.Specials[1] != "0:none" {
		t.Fatalf("cfg.Specials = %v, want [--compression 0:none]", cfg.Specials)
	}
}

func TestParseArgsTargetSpecialsOverridesGlobal(t *testing.T) {
	cfg, err := ParseArgs([]string{
		"-i", "/in", "--specials", "--compression 0:none",
		"-t", "/in/a.mkv", "--specials", "--cues 0:all",
	})
	if err != nil {
		t.Fatal(err)
	}
	ct := cfg.Targets[PathTarget("/in/a.mkv")]
	if ct == nil || ct.Specials == nil {
		t.Fatalf("expected a path target with a Specials override, got %+v", ct)
	}
	got := *ct.Specials
	if len(got) != 2 || got[0] != "--cues" || got[1] != "0:all" {
		t.Fatalf("ct.Specials = %v, want [--cues 0:all]", got)
	}
}

func TestParseArgsTargetSegmentStreamsFilter(t *testing.T) {
	cfg, err := ParseArgs([]string{"-i", "/in", "-t", "audio", "--no-audio="})
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := cfg.Targets[StreamTarget(model.Audio)]
	if !ok {
		t.Fatal("expected an audio target")
	}
	f, ok := ct.Streams[model.Audio]
	if !ok || f.Mode != FilterDropAll {
		t.Errorf("--no-audio should set a drop-all filter, got %+v", f)
	}
}

func TestParseArgsTargetSegmentPath(t *testing.T) {
	cfg, err := ParseArgs([]string{"-i", "/in", "-t", "/in/ep01.mkv", "--no-chapters"})
	if err != nil {
		t.Fatal(err)
	}
	ct, ok := cfg.Targets[PathTarget("/in/ep01.mkv")]
	if !ok || ct.Chapters == nil || !ct.Chapters.Drop {
		t.Errorf("path target chapters override not applied: %+v", ct)
	}
}

func TestParseArgsMultipleTargetSegments(t *testing.T) {
	cfg, err := ParseArgs([]string{
		"-i", "/in",
		"-t", "audio", "--no-audio",
		"-t", "subs", "--max-defaults", "2",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d: %+v", len(cfg.Targets), cfg.Targets)
	}
	subsTarget := cfg.Targets[StreamTarget(model.Sub)]
	if subsTarget == nil || subsTarget.Defaults == nil || *subsTarget.Defaults.MaxInAuto != 2 {
		t.Errorf("subs target Defaults = %+v", subsTarget)
	}
}

func TestSaveConfigAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	argv := []string{"-i", dir, "--locale", "fre"}

	cfg, err := ParseArgs(append(argv, "--save-config"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Locale != "fre" {
		t.Fatalf("sanity: locale = %q", cfg.Locale)
	}

	saved := filepath.Join(dir, "mux-media.json")
	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("expected mux-media.json to be written: %v", err)
	}
	var roundTripped []string
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatal(err)
	}

	reloaded, err := ParseArgs([]string{"--load", saved})
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Locale != "fre" || reloaded.Input.Dir != dir {
		t.Errorf("reloaded config = %+v, want locale fre and input dir %q", reloaded, dir)
	}
}

func TestParseArgsLoadIsOverriddenByLiteralArgs(t *testing.T) {
	dir := t.TempDir()
	saved := filepath.Join(dir, "saved.json")
	data, _ := json.Marshal([]string{"-i", dir, "--locale", "fre"})
	if err := os.WriteFile(saved, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseArgs([]string{"--load", saved, "--locale", "jpn"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Locale != "jpn" {
		t.Errorf("literal CLI args should win over --load, got locale=%q", cfg.Locale)
	}
}

func TestParseArgsHelpAndVersionAreOkErrors(t *testing.T) {
	if _, err := ParseArgs([]string{"--help"}); err == nil {
		t.Fatal("--help should short-circuit via an error")
	} else if me, ok := err.(*muxerr.Error); !ok || me.Kind != muxerr.Ok {
		t.Errorf("--help should be muxerr.Ok, got %v", err)
	}

	if _, err := ParseArgs([]string{"--version"}); err == nil {
		t.Fatal("--version should short-circuit via an error")
	} else if me, ok := err.(*muxerr.Error); !ok || me.Kind != muxerr.Ok {
		t.Errorf("--version should be muxerr.Ok, got %v", err)
	}
}

func TestParseArgsListTargetsIsOkError(t *testing.T) {
	if _, err := ParseArgs([]string{"--list-targets"}); err == nil {
		t.Fatal("--list-targets should short-circuit via an error")
	} else if me, ok := err.(*muxerr.Error); !ok || me.Kind != muxerr.Ok {
		t.Errorf("--list-targets should be muxerr.Ok, got %v", err)
	}
}

func TestSplitByTarget(t *testing.T) {
	segs := splitByTarget([]string{"-i", "/in", "-t", "audio", "--no-audio", "-t", "global", "--locale", "fre"})
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].args[0] != "-i" || segs[0].args[1] != "/in" {
		t.Errorf("global segment args = %v", segs[0].args)
	}
	if segs[1].target != StreamTarget(model.Audio) {
		t.Errorf("segment 1 target = %+v", segs[1].target)
	}
	if segs[2].target != Global {
		t.Errorf("segment 2 target = %+v", segs[2].target)
	}
}
