// Package mux is the muxer driver: given a fully-populated group plan, it
// builds the external tool's argument vector, optionally stages it through
// a JSON sidecar, spawns the tool, and classifies the result.
package mux

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mdickers47/mux-media/internal/cache"
	"github.com/mdickers47/mux-media/internal/charset"
	"github.com/mdickers47/mux-media/internal/config"
	"github.com/mdickers47/mux-media/internal/model"
	"github.com/mdickers47/mux-media/internal/tool"
)

// copyableCodecs are codecs the muxer can remux without a transcode.
var copyableCodecs = map[string]bool{
	"h264": true, "hevc": true, "av1": true, "vp9": true, "vp8": true,
	"aac": true, "ac3": true, "eac3": true, "dts": true, "flac": true,
	"opus": true, "vorbis": true, "mp3": true, "truehd": true,
	"subrip": true, "ass": true, "hdmv_pgs_subtitle": true,
}

// Plan is everything the driver needs for one group: the ordered source
// file list (index = SrcNum), the stream order, dispositions, chapters
// policy, and the subtitle charset results keyed by (SrcNum, IStream).
type Plan struct {
	Sources   []string
	Order     []model.StreamsOrderItem
	Disposed  map[model.StreamKey]cache.DispositionResult
	Chapters  config.ChaptersPolicy
	Charsets  map[model.StreamKey]charset.Result
	IsMP4     bool
	// Reencode forces every stream to go through the muxer's re-encode
	// path, even ones whose codec would otherwise be eligible for a
	// stream copy.
	Reencode bool
	// ExternalFonts is the set of loose font files discovered alongside
	// the group's media, attached to the Matroska output directly via
	// --attach-file. Ignored by the ffmpeg-style builder.
	ExternalFonts []string
	// Specials is a per-source-file passthrough of raw mkvmerge arguments,
	// keyed by SrcNum. Matroska-only, like ExternalFonts.
	Specials map[int][]string
}

// Outcome is the driver's classified result.
type Outcome struct {
	Skipped bool // true when there was nothing to copy; caller should "continue"
	Output  tool.Output
}

// Run builds argv, invokes the configured tool, and classifies the exit.
func Run(ctx context.Context, reg *tool.Registry, muxer config.MuxerChoice, plan Plan, outPath string) (Outcome, error) {
	var argv []string
	if muxer == config.MuxerMatroska {
		argv = buildMkvmergeArgv(plan, outPath)
	} else {
		argv = buildArgv(plan, outPath)
	}

	realEntries := countRealEntries(argv)
	if realEntries < 3 {
		return Outcome{Skipped: true}, nil
	}

	if muxer == config.MuxerMatroska && reg.SidecarDir != "" {
		out, err := tool.RunWithSidecar(ctx, reg, reg.Mkvmerge, argv)
		if err != nil {
			return Outcome{}, err
		}
		return classify(out)
	}

	name := reg.Ffmpeg
	if muxer == config.MuxerMatroska {
		name = reg.Mkvmerge
	}
	out, err := tool.Run(ctx, name, argv)
	if err != nil {
		return Outcome{}, err
	}
	return classify(out)
}

func classify(out tool.Output) (Outcome, error) {
	if out.Success {
		return Outcome{Output: out}, nil
	}
	return Outcome{Output: out}, fmt.Errorf("mux tool exited %d: %s%s", out.Code, out.Stdout, out.Stderr)
}

// countRealEntries counts argv entries past the fixed header flags, used
// to detect a "nothing to copy" group.
func countRealEntries(argv []string) int {
	n := 0
	for _, a := range argv {
		if len(a) > 0 && a[0] != '-' {
			n++
		}
	}
	return n
}

func buildArgv(plan Plan, outPath string) []string {
	var argv []string

	for _, item := range plan.Order {
		if item.Type != model.Sub || item.SrcTime == nil {
			continue
		}
		argv = append(argv,
			"-ss", fmt.Sprintf("%.3f", item.SrcTime.Start),
			"-to", fmt.Sprintf("%.3f", item.SrcTime.End),
		)
	}

	for _, item := range plan.Order {
		if item.Type != model.Sub {
			continue
		}
		key := model.StreamKey{SrcNum: item.SrcNum, IStream: item.IStream}
		if cr, ok := plan.Charsets[key]; ok && cr.Kind == charset.NamedLegacy {
			argv = append(argv, "-sub_charenc", cr.Label)
		}
	}

	for _, src := range plan.Sources {
		argv = append(argv, "-i", src)
	}

	for _, item := range plan.Order {
		argv = append(argv, "-map", fmt.Sprintf("%d:%d", item.SrcNum, item.IStream))
	}

	if plan.Chapters.Drop {
		argv = append(argv, "-map_chapters", "-1")
	} else {
		argv = append(argv, "-map_chapters", fmt.Sprintf("%d", plan.Chapters.FromSrcNum))
	}

	typeIndex := map[model.StreamType]int{}
	for i, item := range plan.Order {
		ti := typeIndex[item.Type]
		typeIndex[item.Type]++

		if plan.IsMP4 && item.Type == model.Sub {
			argv = append(argv, fmt.Sprintf("-c:%d", i), "mov_text")
		} else if !plan.Reencode && copyableCodecs[item.Codec] {
			argv = append(argv, fmt.Sprintf("-c:%d", i), "copy")
		}

		if item.Name != "" {
			argv = append(argv, fmt.Sprintf("-metadata:s:%d", i), "title="+item.Name)
		}
		if item.Lang != "" {
			argv = append(argv, fmt.Sprintf("-metadata:s:%d", i), "language="+item.Lang)
		}

		argv = append(argv, fmt.Sprintf("-disposition:%s:%d", item.Type.String(), ti), "0")
	}

	for i, item := range plan.Order {
		key := model.StreamKey{SrcNum: item.SrcNum, IStream: item.IStream}
		d := plan.Disposed[key]
		var flags string
		if d.Default {
			flags += "+default"
		}
		if d.Forced {
			flags += "+forced"
		}
		if flags != "" {
			argv = append(argv, fmt.Sprintf("-disposition:%d", i), flags)
		}
	}

	argv = append(argv, outPath)
	return argv
}

// buildMkvmergeArgv builds a native mkvmerge invocation. mkvmerge takes no
// ffmpeg-style flags: track selection, disposition flags, names/languages
// and chapters are all scoped per source file (the options preceding a
// filename apply to that filename), and the final track interleaving is a
// separate global --track-order option.
func buildMkvmergeArgv(plan Plan, outPath string) []string {
	argv := []string{"-o", outPath}

	byFile := map[int][]model.StreamsOrderItem{}
	for _, item := range plan.Order {
		byFile[item.SrcNum] = append(byFile[item.SrcNum], item)
	}

	for srcNum, src := range plan.Sources {
		argv = append(argv, mkvmergeFileArgs(plan, byFile[srcNum], srcNum)...)
		argv = append(argv, src)
	}

	for _, font := range plan.ExternalFonts {
		argv = append(argv, "--attach-file", font)
	}

	if len(plan.Order) > 0 {
		argv = append(argv, "--track-order", trackOrderArg(plan.Order))
	}

	return argv
}

// trackOrderArg renders "fid:tid,fid:tid,..." in final output order; fid is
// the source file's position in plan.Sources and tid is the stream's
// absolute index within that file, matching mkvmerge's own track numbering.
func trackOrderArg(order []model.StreamsOrderItem) string {
	parts := make([]string, len(order))
	for i, item := range order {
		parts[i] = fmt.Sprintf("%d:%d", item.SrcNum, item.IStream)
	}
	return strings.Join(parts, ",")
}

// mkvmergeFileArgs builds the options scoped to one source file: track and
// attachment selection, per-track disposition/name/language/charset, and
// this file's chapters policy.
func mkvmergeFileArgs(plan Plan, items []model.StreamsOrderItem, srcNum int) []string {
	var argv []string

	argv = append(argv, mkvmergeTrackSelection(items, model.Video, "-d", "--no-video")...)
	argv = append(argv, mkvmergeTrackSelection(items, model.Audio, "-a", "--no-audio")...)
	argv = append(argv, mkvmergeTrackSelection(items, model.Sub, "-s", "--no-subtitles")...)
	argv = append(argv, mkvmergeAttachmentSelection(items)...)

	for _, item := range items {
		if item.Type != model.Video && item.Type != model.Audio && item.Type != model.Sub {
			continue
		}
		key := model.StreamKey{SrcNum: item.SrcNum, IStream: item.IStream}
		d := plan.Disposed[key]
		argv = append(argv, "--default-track-flag", fmt.Sprintf("%d:%s", item.IStream, mkvmergeBool(d.Default)))
		argv = append(argv, "--forced-track-flag", fmt.Sprintf("%d:%s", item.IStream, mkvmergeBool(d.Forced)))
		if item.Name != "" {
			argv = append(argv, "--track-name", fmt.Sprintf("%d:%s", item.IStream, item.Name))
		}
		if item.Lang != "" {
			argv = append(argv, "--language", fmt.Sprintf("%d:%s", item.IStream, item.Lang))
		}
		if item.Type == model.Sub {
			if cr, ok := plan.Charsets[key]; ok && cr.Kind == charset.NamedLegacy {
				argv = append(argv, "--sub-charset", fmt.Sprintf("%d:%s", item.IStream, cr.Label))
			}
		}
	}

	if plan.Chapters.Drop || plan.Chapters.FromSrcNum != srcNum {
		argv = append(argv, "--no-chapters")
	}

	argv = append(argv, plan.Specials[srcNum]...)

	return argv
}

// mkvmergeTrackSelection renders the include/exclude pair for one track
// type: an explicit id list when the file contributes ≥1 stream of that
// type to the order, else the blanket "no-<type>" flag.
func mkvmergeTrackSelection(items []model.StreamsOrderItem, t model.StreamType, incl, excl string) []string {
	var ids []string
	for _, item := range items {
		if item.Type == t {
			ids = append(ids, fmt.Sprintf("%d", item.IStream))
		}
	}
	if len(ids) == 0 {
		return []string{excl}
	}
	return []string{incl, strings.Join(ids, ",")}
}

// mkvmergeAttachmentSelection covers both fonts and other attachments.
// mkvmerge numbers attachments independently of tracks, starting at 1, in
// the order they appear in the source file; absent a second mkvmerge
// --identify pass we approximate that order with the stream's probed index.
func mkvmergeAttachmentSelection(items []model.StreamsOrderItem) []string {
	var attach []model.StreamsOrderItem
	for _, item := range items {
		if item.Type == model.Font || item.Type == model.Attach {
			attach = append(attach, item)
		}
	}
	if len(attach) == 0 {
		return []string{"-M"}
	}
	sort.Slice(attach, func(i, j int) bool { return attach[i].IStream < attach[j].IStream })
	ids := make([]string, len(attach))
	for i := range attach {
		ids[i] = fmt.Sprintf("%d", i+1)
	}
	return []string{"--attachments", strings.Join(ids, ",")}
}

func mkvmergeBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
