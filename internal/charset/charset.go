// Package charset sniffs the text encoding of subtitle files so the muxer
// driver knows when to pass -sub_charenc to the ffmpeg-like tool.
package charset

import (
	"io"
	"os"
	"strings"

	"github.com/gogs/chardet"
	"github.com/mdickers47/mux-media/internal/cache"
	"github.com/mdickers47/mux-media/internal/classify"
)

// Kind is the coarse classification a sniff resolves to.
type Kind int

const (
	Unknown Kind = iota
	Recognizable
	NamedLegacy
)

// Result is a sniffed subtitle encoding: Kind plus, for NamedLegacy, the
// detector's label (e.g. "windows-1251").
type Result struct {
	Kind  Kind
	Label string
}

const (
	headBytes       = 128 * 1024
	confidenceFloor = 0.8
)

var detector = chardet.NewTextDetector()

// Sniff classifies the subtitle at path, consulting and populating fc's
// per-path cache slot.
func Sniff(fc *cache.FileCache, path string) (Result, error) {
	slot := fc.CharsetSlot(path)
	cr, err := slot.TryGet(func() (cache.CharsetResult, error) {
		r, err := sniff(path)
		if err != nil {
			return cache.CharsetResult{}, err
		}
		return cache.CharsetResult{Label: r.Label, Kind: int(r.Kind)}, nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: Kind(cr.Kind), Label: cr.Label}, nil
}

func sniff(path string) (Result, error) {
	if classify.IsMatroska(path) {
		return Result{Kind: Recognizable}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	buf := make([]byte, headBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Result{}, err
	}
	buf = buf[:n]

	res, err := detector.DetectBest(buf)
	if err != nil || res == nil || res.Confidence < int(confidenceFloor*100) {
		return Result{Kind: Unknown}, nil
	}

	label := strings.ToLower(res.Charset)
	switch {
	case strings.HasPrefix(label, "ascii"), strings.HasPrefix(label, "utf"):
		return Result{Kind: Recognizable}, nil
	default:
		return Result{Kind: NamedLegacy, Label: res.Charset}, nil
	}
}
