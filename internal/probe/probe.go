// Package probe is the streams introspector: it opens a source file through
// the ffprobe-like tool binding and walks its container streams into the
// shared model.Stream shape, plus a native fallback path for bare FLAC
// files and tag-only audio masters.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"
	"github.com/mdickers47/mux-media/internal/cache"
	"github.com/mdickers47/mux-media/internal/classify"
	"github.com/mdickers47/mux-media/internal/langs"
	"github.com/mdickers47/mux-media/internal/model"
	"github.com/mdickers47/mux-media/internal/tool"
	"github.com/mewkiz/flac"
	flacmeta "github.com/mewkiz/flac/meta"
)

// ffprobeStream mirrors the subset of ffprobe's -show_streams JSON this
// package reads.
type ffprobeStream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Tags      struct {
		Language string `json:"language"`
		Title    string `json:"title"`
		Filename string `json:"filename"`
	} `json:"tags"`
	Disposition struct {
		AttachedPic int `json:"attached_pic"`
	} `json:"disposition"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

// Streams returns (from cache, building if needed) the elementary streams
// of src.
func Streams(ctx context.Context, reg *tool.Registry, fc *cache.FileCache, src string) (*[]model.Stream, error) {
	return fc.Streams.TryGet(func() ([]model.Stream, error) {
		if strings.EqualFold(classify.Ext(src), "flac") {
			return probeFlac(src)
		}
		return probeFfprobe(ctx, reg, src)
	})
}

func probeFfprobe(ctx context.Context, reg *tool.Registry, src string) ([]model.Stream, error) {
	out, err := tool.Run(ctx, reg.Ffprobe, []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		src,
	})
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", src, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("ffprobe %s: exit %d: %s", src, out.Code, out.Stderr)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal([]byte(out.Stdout), &parsed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output for %s: %w", src, err)
	}

	streams := make([]model.Stream, 0, len(parsed.Streams))
	typeCounts := map[model.StreamType]int{}
	for _, s := range parsed.Streams {
		st := classifyStream(s)
		idx := typeCounts[st]
		typeCounts[st]++

		var lang model.Value[string]
		if s.Tags.Language != "" {
			lang = model.Auto(langs.Normalize(s.Tags.Language))
		} else {
			lang = model.Auto(langs.Und)
		}

		var name *model.Value[string]
		if s.Tags.Title != "" {
			v := model.Auto(s.Tags.Title)
			name = &v
		}

		streams = append(streams, model.Stream{
			Type:      st,
			Index:     s.Index,
			TypeIndex: idx,
			Codec:     s.CodecName,
			Lang:      lang,
			Name:      name,
			Filename:  s.Tags.Filename,
		})
	}
	return streams, nil
}

// classifyStream applies the container-stream-kind-to-model.StreamType
// mapping: audio/subtitle pass straight through; video demotes to Attach
// for image-only codecs; attachments promote to Font for known font codecs
// or font-extensioned filenames; everything else is Other.
func classifyStream(s ffprobeStream) model.StreamType {
	switch s.CodecType {
	case "audio":
		return model.Audio
	case "subtitle":
		return model.Sub
	case "video":
		if s.Disposition.AttachedPic == 1 || classify.IsImageCodec(s.CodecName) {
			return model.Attach
		}
		return model.Video
	case "attachment":
		if classify.IsFontCodec(s.CodecName) || classify.IsFont(s.Tags.Filename) {
			return model.Font
		}
		return model.Attach
	default:
		return model.Other
	}
}

// probeFlac reads a bare .flac elementary file directly via the native
// decoder instead of shelling out, since ffprobe's stream-0 view of a raw
// FLAC file loses the Vorbis comment tags mewkiz/flac exposes natively.
func probeFlac(src string) ([]model.Stream, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stream, err := flac.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("flac parse %s: %w", src, err)
	}

	s := model.Stream{
		Type:      model.Audio,
		Index:     0,
		TypeIndex: 0,
		Codec:     "flac",
		Lang:      model.Auto(langs.Und),
	}

	for _, block := range stream.Blocks {
		if cmt, ok := block.Body.(*flacmeta.VorbisComment); ok {
			for _, tag := range cmt.Tags {
				if len(tag) != 2 {
					continue
				}
				switch strings.ToUpper(tag[0]) {
				case "TITLE":
					v := model.Auto(tag[1])
					s.Name = &v
				case "LANGUAGE":
					s.Lang = model.Auto(langs.Normalize(tag[1]))
				}
			}
		}
	}

	return []model.Stream{s}, nil
}

// AudioTagTitle reads an ID3/Vorbis-style title tag via dhowden/tag for
// audio masters whose container ffprobe can open but whose stream tags are
// sparse (e.g. bare MP3/M4A without per-stream title). Used by autometa as
// a fallback name candidate ahead of the parent-directory heuristic.
func AudioTagTitle(src string) (title string, ok bool) {
	f, err := os.Open(src)
	if err != nil {
		return "", false
	}
	defer f.Close()
	m, err := tag.ReadFrom(f)
	if err != nil || m == nil {
		return "", false
	}
	if t := m.Title(); t != "" {
		return t, true
	}
	return "", false
}
