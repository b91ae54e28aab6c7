// Package classify maps file extensions to the coarse roles discovery and
// streams introspection need: font, subtitle, matroska-container, or
// media (audio/video-bearing).
package classify

import "strings"

// Role is the coarse file-extension category.
type Role int

const (
	RoleOther Role = iota
	RoleMedia
	RoleFont
	RoleSubtitle
	RoleMatroska
)

var mediaExt = map[string]bool{
	"mkv": true, "mp4": true, "m4v": true, "mov": true, "avi": true,
	"webm": true, "ts": true, "m2ts": true, "wmv": true, "flv": true,
	"mpg": true, "mpeg": true, "flac": true, "mp3": true, "m4a": true,
	"aac": true, "opus": true, "ogg": true, "wav": true, "dts": true,
	"ac3": true, "eac3": true, "thd": true,
}

var matroskaExt = map[string]bool{
	"mkv": true, "mka": true, "mks": true, "webm": true,
}

var fontExt = map[string]bool{
	"ttf": true, "otf": true, "ttc": true, "woff": true, "woff2": true,
}

var subtitleExt = map[string]bool{
	"srt": true, "ass": true, "ssa": true, "sub": true, "sup": true,
	"vtt": true, "pgs": true, "idx": true,
}

// Ext returns the lowercase extension of name, without the leading dot.
func Ext(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// Of classifies a file name into its primary role. A name may satisfy more
// than one predicate (mkv is both Matroska and Media); callers that care
// about container-ness ask IsMatroska separately.
func Of(name string) Role {
	ext := Ext(name)
	switch {
	case fontExt[ext]:
		return RoleFont
	case subtitleExt[ext]:
		return RoleSubtitle
	case mediaExt[ext]:
		return RoleMedia
	default:
		return RoleOther
	}
}

// IsMedia reports whether name's extension is a recognized media container
// or elementary stream format.
func IsMedia(name string) bool { return mediaExt[Ext(name)] }

// IsFont reports whether name's extension is a recognized font format.
func IsFont(name string) bool { return fontExt[Ext(name)] }

// IsSubtitle reports whether name's extension is a recognized subtitle
// format.
func IsSubtitle(name string) bool { return subtitleExt[Ext(name)] }

// IsMatroska reports whether name's extension is a Matroska-family
// container, which mandates UTF-8 subtitle text.
func IsMatroska(name string) bool { return matroskaExt[Ext(name)] }

// fontCodecs are the known codec identifiers that mark a stream as a font
// even when the container tags it as a generic attachment.
var fontCodecs = map[string]bool{
	"ttf": true, "otf": true, "truetype": true, "opentype": true,
}

// IsFontCodec reports whether codec identifies an embedded-font stream
// among a container's generic attachment streams.
func IsFontCodec(codec string) bool { return fontCodecs[strings.ToLower(codec)] }

// imageCodecs are codecs that classify a container "video" stream as an
// Attach (cover art / poster) rather than true Video.
var imageCodecs = map[string]bool{
	"png": true, "mjpeg": true, "jpegls": true, "jpeg2000": true, "bmp": true,
}

// IsImageCodec reports whether codec is an image-only codec that should
// demote a container "video" stream to Attach.
func IsImageCodec(codec string) bool { return imageCodecs[strings.ToLower(codec)] }
