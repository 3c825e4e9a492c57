package resolver

import (
	"testing"

	"github.com/ryoka/teragrab-bot/pkg/enums/mediakind"
)

func TestExtractShareLink(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "bare link",
			text: "https://terabox.com/s/1abcDEF-ghi",
			want: "https://terabox.com/s/1abcDEF-ghi",
		},
		{
			name: "link inside chatter",
			text: "check this out https://1024terabox.com/s/1xyz please",
			want: "https://1024terabox.com/s/1xyz",
		},
		{
			name: "sharing path with surl",
			text: "https://www.terabox.app/sharing/link?surl=abc-123",
			want: "https://www.terabox.app/sharing/link?surl=abc-123",
		},
		{
			name: "mirror domain",
			text: "https://teraboxlink.com/s/1foo",
			want: "https://teraboxlink.com/s/1foo",
		},
		{
			name: "unrelated url",
			text: "https://example.com/s/1abc",
			want: "",
		},
		{
			name: "no url at all",
			text: "hello there",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractShareLink(tt.text); got != tt.want {
				t.Errorf("ExtractShareLink(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		name        string
		mediaURL    string
		contentType string
		want        mediakind.MediaKind
	}{
		{
			name:     "m3u8 extension",
			mediaURL: "https://cdn.example.com/video/master.m3u8?sign=abc",
			want:     mediakind.SegmentedPlaylist,
		},
		{
			name:     "m3u8 query value",
			mediaURL: "https://cdn.example.com/play?type=m3u8&fid=123",
			want:     mediakind.SegmentedPlaylist,
		},
		{
			name:     "hls query value",
			mediaURL: "https://cdn.example.com/play?fmt=hls",
			want:     mediakind.SegmentedPlaylist,
		},
		{
			name:        "mpegurl content type wins over mp4 path",
			mediaURL:    "https://cdn.example.com/video.mp4",
			contentType: "application/vnd.apple.mpegurl",
			want:        mediakind.SegmentedPlaylist,
		},
		{
			name:     "plain mp4",
			mediaURL: "https://cdn.example.com/d/video.mp4?sign=abc&expires=123",
			want:     mediakind.DirectFile,
		},
		{
			name:     "no extension defaults to direct",
			mediaURL: "https://cdn.example.com/d/8711452906",
			want:     mediakind.DirectFile,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyKind(tt.mediaURL, tt.contentType); got != tt.want {
				t.Errorf("classifyKind(%q, %q) = %v, want %v", tt.mediaURL, tt.contentType, got, tt.want)
			}
		})
	}
}

func TestSuggestName(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		mediaURL string
		kind     mediakind.MediaKind
		want     string
	}{
		{
			name:     "declared name kept",
			declared: "holiday clip.mp4",
			mediaURL: "https://cdn.example.com/d/123",
			kind:     mediakind.DirectFile,
			want:     "holiday clip.mp4",
		},
		{
			name:     "declared name gets mp4 suffix",
			declared: "holiday clip",
			mediaURL: "https://cdn.example.com/d/123",
			kind:     mediakind.DirectFile,
			want:     "holiday clip.mp4",
		},
		{
			name:     "unsafe characters stripped",
			declared: `a<b>:c"d.mkv`,
			mediaURL: "",
			kind:     mediakind.DirectFile,
			want:     "abcd.mkv",
		},
		{
			name:     "falls back to url path for direct files",
			declared: "",
			mediaURL: "https://cdn.example.com/files/video%20one.mp4?sign=x",
			kind:     mediakind.DirectFile,
			want:     "video one.mp4",
		},
		{
			name:     "playlist never uses url path",
			declared: "",
			mediaURL: "https://cdn.example.com/hls/master.m3u8",
			kind:     mediakind.SegmentedPlaylist,
			want:     "terabox_video.mp4",
		},
		{
			name:     "empty everything",
			declared: "",
			mediaURL: "",
			kind:     mediakind.DirectFile,
			want:     "terabox_video.mp4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := suggestName(tt.declared, tt.mediaURL, tt.kind); got != tt.want {
				t.Errorf("suggestName(%q, %q, %v) = %q, want %q", tt.declared, tt.mediaURL, tt.kind, got, tt.want)
			}
		})
	}
}
