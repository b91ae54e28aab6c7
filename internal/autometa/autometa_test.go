package autometa

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mdickers47/mux-media/internal/config"
	"github.com/mdickers47/mux-media/internal/langs"
	"github.com/mdickers47/mux-media/internal/model"
)

// id3v1Tag renders a minimal 128-byte ID3v1 trailer, enough for
// dhowden/tag to recognize without real MPEG frame data.
func id3v1Tag(title string) []byte {
	field := func(s string, n int) []byte {
		b := make([]byte, n)
		copy(b, s)
		return b
	}
	out := make([]byte, 0, 128)
	out = append(out, []byte("TAG")...)
	out = append(out, field(title, 30)...)
	out = append(out, field("", 30)...) // artist
	out = append(out, field("", 30)...) // album
	out = append(out, field("", 4)...)  // year
	out = append(out, field("", 30)...) // comment
	out = append(out, 0)                // genre
	return out
}

func TestResolveNameUserOverrideWins(t *testing.T) {
	cfg := config.New()
	cfg.Names = config.KV[string]{Entries: []config.KVEntry[string]{
		{Sel: config.Selector{Index: 0}, Val: "Director's Cut"},
	}}
	ctx := Context{InputRoot: "/root", SrcPath: "/root/show - 01.mkv", GroupStem: "show - 01"}
	stream := model.Stream{Index: 0}

	ResolveName(cfg, ctx, 0, "", &stream)
	if stream.Name == nil || stream.Name.V != "Director's Cut" || !stream.Name.IsUser {
		t.Fatalf("ResolveName should apply the user override, got %+v", stream.Name)
	}
}

func TestResolveNameKeepsExistingName(t *testing.T) {
	cfg := config.New()
	ctx := Context{InputRoot: "/root", SrcPath: "/root/show - 01.mkv", GroupStem: "show - 01"}
	existing := model.Auto("Commentary")
	stream := model.Stream{Name: &existing}

	ResolveName(cfg, ctx, 0, "", &stream)
	if stream.Name.V != "Commentary" {
		t.Fatalf("ResolveName should keep a non-empty existing name, got %q", stream.Name.V)
	}
}

func TestResolveNameFromPathTail(t *testing.T) {
	cfg := config.New()
	ctx := Context{InputRoot: "/root", SrcPath: "/root/show - 01.commentary.mkv", GroupStem: "show - 01"}
	stream := model.Stream{}

	ResolveName(cfg, ctx, 0, "", &stream)
	if stream.Name == nil || stream.Name.V != "commentary" {
		t.Fatalf("ResolveName should derive the path_tail, got %+v", stream.Name)
	}
}

func TestResolveNameFallsBackToAudioTagTitle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.mp3")
	if err := os.WriteFile(path, id3v1Tag("Opening Theme"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.New()
	ctx := Context{InputRoot: "/elsewhere", SrcPath: path, GroupStem: "track"}
	stream := model.Stream{}

	ResolveName(cfg, ctx, 0, "", &stream)
	if stream.Name == nil || stream.Name.V != "Opening Theme" {
		t.Fatalf("ResolveName should fall back to the embedded tag title, got %+v", stream.Name)
	}
}

func TestResolveNameDisabledByAutoFlag(t *testing.T) {
	cfg := config.New()
	cfg.Auto.Names = model.Auto(false)
	ctx := Context{InputRoot: "/root", SrcPath: "/root/show - 01.commentary.mkv", GroupStem: "show - 01"}
	stream := model.Stream{}

	ResolveName(cfg, ctx, 0, "", &stream)
	if stream.Name != nil {
		t.Fatalf("ResolveName should do nothing when auto-names is off, got %+v", stream.Name)
	}
}

func TestResolveLangKeepsExplicitNonUnd(t *testing.T) {
	cfg := config.New()
	ctx := Context{InputRoot: "/root", SrcPath: "/root/show - 01.mkv", GroupStem: "show - 01"}
	stream := model.Stream{Lang: model.Auto("fre")}

	ResolveLang(cfg, ctx, 0, "fre", &stream)
	if stream.Lang.V != "fre" {
		t.Fatalf("ResolveLang should keep a pre-existing non-und language, got %q", stream.Lang.V)
	}
}

func TestResolveLangFromName(t *testing.T) {
	cfg := config.New()
	ctx := Context{InputRoot: "/root", SrcPath: "/root/show - 01.mkv", GroupStem: "show - 01"}
	name := model.Auto("eng")
	stream := model.Stream{Lang: model.Auto(langs.Und), Name: &name}

	ResolveLang(cfg, ctx, 0, langs.Und, &stream)
	if stream.Lang.V != "eng" {
		t.Fatalf("ResolveLang should derive the language from the stream's name, got %q", stream.Lang.V)
	}
}

func TestResolveLangUserOverrideWins(t *testing.T) {
	cfg := config.New()
	cfg.Langs = config.KV[string]{Entries: []config.KVEntry[string]{
		{Sel: config.Selector{Index: 0}, Val: "spa"},
	}}
	ctx := Context{InputRoot: "/root", SrcPath: "/root/show - 01.mkv", GroupStem: "show - 01"}
	stream := model.Stream{Lang: model.Auto(langs.Und)}

	ResolveLang(cfg, ctx, 0, langs.Und, &stream)
	if stream.Lang.V != "spa" || !stream.Lang.IsUser {
		t.Fatalf("ResolveLang should apply the user override, got %+v", stream.Lang)
	}
}
