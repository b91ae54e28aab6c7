// Package model holds the cross-cutting data model shared by every
// component: stream types, the Stream/StreamKey/StreamsOrderItem trio, and
// the Auto/User provenance wrapper Value[T].
package model

import "fmt"

// StreamType classifies one elementary stream. Declaration order is
// significant: it is the fixed enum order output streams sort by
// (Video < Audio < Sub < Other < Font < Attach).
type StreamType int

const (
	Video StreamType = iota
	Audio
	Sub
	Other
	Font
	Attach
)

func (t StreamType) String() string {
	switch t {
	case Video:
		return "video"
	case Audio:
		return "audio"
	case Sub:
		return "subs"
	case Font:
		return "fonts"
	case Attach:
		return "attachs"
	default:
		return "other"
	}
}

// ParseStreamType maps a stream-type keyword (as used by -t/--target and
// the --streams family of flags) back to a StreamType.
func ParseStreamType(s string) (StreamType, bool) {
	switch s {
	case "video":
		return Video, true
	case "audio":
		return Audio, true
	case "subs", "sub", "subtitle", "subtitles":
		return Sub, true
	case "fonts", "font":
		return Font, true
	case "attachs", "attach", "attachment", "attachments":
		return Attach, true
	case "other":
		return Other, true
	default:
		return 0, false
	}
}

// Value carries the provenance of a field: whether the core derived it
// (Auto) or the user supplied it explicitly (User). Only Auto entries are
// ever overridden by later derivation passes.
type Value[T any] struct {
	V      T
	IsUser bool
}

// Auto wraps v as a core-derived value.
func Auto[T any](v T) Value[T] { return Value[T]{V: v} }

// User wraps v as a user-supplied value.
func User[T any](v T) Value[T] { return Value[T]{V: v, IsUser: true} }

func (v Value[T]) String() string {
	tag := "auto"
	if v.IsUser {
		tag = "user"
	}
	return fmt.Sprintf("%s(%v)", tag, v.V)
}

// Stream is one elementary input stream.
type Stream struct {
	Type StreamType
	// Index is the stream's absolute index in its source file.
	Index int
	// TypeIndex is the stream's dense, zero-based index within its type.
	TypeIndex int
	Codec     string
	Lang      Value[string]
	Name      *Value[string]
	// Filename carries the container's own filename metadata for the
	// stream (attachments/fonts usually have one), verbatim.
	Filename string
}

// StreamKey is a cross-file handle: (src_num, i_stream) where src_num
// indexes into the group's ordered list of source files.
type StreamKey struct {
	SrcNum   int
	IStream  int
}

// SrcTimeRange is an optional retimed playback window on a source stream,
// in seconds.
type SrcTimeRange struct {
	Start, End float64
}

// RetimedPlan holds the source-time segments a retimed stream keeps;
// nothing populates it while retiming stays behind its capability flag.
type RetimedPlan struct {
	// Segments to keep, in source-time seconds, ascending and disjoint.
	Keep []SrcTimeRange
}

// StreamsOrderItem is one planned output slot.
type StreamsOrderItem struct {
	Type      StreamType
	SrcNum    int
	IStream   int
	// Key is the stream's source file path, kept alongside the numeric
	// SrcNum so later stages (muxer driver, tests) don't need to re-walk
	// the group's file list to print a path.
	Key       string
	KeyIStream int
	Retimed   *RetimedPlan
	SrcTime   *SrcTimeRange

	// denormalized fields copied out of the owning Stream at order-build
	// time, so downstream consumers (disposition planner, muxer driver)
	// don't need a second lookup.
	Lang string
	Name string
	Codec string
}
