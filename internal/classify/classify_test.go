package classify

import "testing"

func TestExt(t *testing.T) {
	cases := map[string]string{
		"A.MKV":     "mkv",
		"A.en.srt":  "srt",
		"noext":     "",
		"trailing.": "",
	}
	for in, want := range cases {
		if got := Ext(in); got != want {
			t.Errorf("Ext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOf(t *testing.T) {
	cases := map[string]Role{
		"a.mkv": RoleMedia,
		"a.srt": RoleSubtitle,
		"a.ttf": RoleFont,
		"a.txt": RoleOther,
	}
	for in, want := range cases {
		if got := Of(in); got != want {
			t.Errorf("Of(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsMatroska(t *testing.T) {
	if !IsMatroska("a.mkv") || !IsMatroska("a.webm") {
		t.Errorf("mkv/webm should be Matroska-family")
	}
	if IsMatroska("a.mp4") {
		t.Errorf("mp4 is not Matroska-family")
	}
}

func TestIsFontCodec(t *testing.T) {
	if !IsFontCodec("TTF") {
		t.Errorf("IsFontCodec should be case-insensitive")
	}
	if IsFontCodec("h264") {
		t.Errorf("h264 is not a font codec")
	}
}

func TestIsImageCodec(t *testing.T) {
	if !IsImageCodec("mjpeg") {
		t.Errorf("mjpeg should be an image codec")
	}
	if IsImageCodec("hevc") {
		t.Errorf("hevc is not an image codec")
	}
}
