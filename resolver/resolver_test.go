package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/imroc/req/v3"
	"github.com/ryoka/teragrab-bot/pkg/enums/mediakind"
)

func newTestResolver(baseURL string) *Resolver {
	return NewWithClient(req.C(), baseURL, "test-key")
}

const testLink = "https://terabox.com/s/1abcDEF"

func TestResolveJSONShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantURL  string
		wantKind mediakind.MediaKind
		wantName string
	}{
		{
			name:     "flat url field",
			body:     `{"url":"https://cdn.example.com/d/video.mp4","filename":"clip.mp4"}`,
			wantURL:  "https://cdn.example.com/d/video.mp4",
			wantKind: mediakind.DirectFile,
			wantName: "clip.mp4",
		},
		{
			name:     "stream_url with playlist",
			body:     `{"stream_url":"https://cdn.example.com/hls/master.m3u8","title":"movie"}`,
			wantURL:  "https://cdn.example.com/hls/master.m3u8",
			wantKind: mediakind.SegmentedPlaylist,
			wantName: "movie.mp4",
		},
		{
			name:     "nested under data",
			body:     `{"status":"ok","data":{"play_url":"https://cdn.example.com/play?type=m3u8","name":"ep1"}}`,
			wantURL:  "https://cdn.example.com/play?type=m3u8",
			wantKind: mediakind.SegmentedPlaylist,
			wantName: "ep1.mp4",
		},
		{
			name:     "nested under result",
			body:     `{"result":{"video_url":"https://cdn.example.com/d/8711452906","filename":"trip.mkv"}}`,
			wantURL:  "https://cdn.example.com/d/8711452906",
			wantKind: mediakind.DirectFile,
			wantName: "trip.mkv",
		},
		{
			name:     "plain text body with url scanned out",
			body:     "stream ready at https://cdn.example.com/d/video.mp4 enjoy",
			wantURL:  "https://cdn.example.com/d/video.mp4",
			wantKind: mediakind.DirectFile,
			wantName: "video.mp4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("url"); got != testLink {
					t.Errorf("api received url=%q, want %q", got, testLink)
				}
				if got := r.URL.Query().Get("key"); got != "test-key" {
					t.Errorf("api received key=%q, want test-key", got)
				}
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			desc, err := newTestResolver(server.URL).Resolve(context.Background(), testLink)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if desc.MediaURL != tt.wantURL {
				t.Errorf("MediaURL = %q, want %q", desc.MediaURL, tt.wantURL)
			}
			if desc.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", desc.Kind, tt.wantKind)
			}
			if desc.SuggestedName != tt.wantName {
				t.Errorf("SuggestedName = %q, want %q", desc.SuggestedName, tt.wantName)
			}
			if desc.SourceURL != testLink {
				t.Errorf("SourceURL = %q, want %q", desc.SourceURL, testLink)
			}
		})
	}
}

func TestResolveInvalidLink(t *testing.T) {
	_, err := newTestResolver("http://unused.invalid").Resolve(context.Background(), "https://example.com/not-a-share-link")
	if !errors.Is(err, ErrInvalidLink) {
		t.Errorf("Resolve() error = %v, want ErrInvalidLink", err)
	}
	if IsTransient(err) {
		t.Error("ErrInvalidLink must not be transient")
	}
}

func TestResolveNoStreamURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","message":"file not found"}`)
	}))
	defer server.Close()

	_, err := newTestResolver(server.URL).Resolve(context.Background(), testLink)
	if !errors.Is(err, ErrNoStreamURL) {
		t.Errorf("Resolve() error = %v, want ErrNoStreamURL", err)
	}
	if IsTransient(err) {
		t.Error("ErrNoStreamURL must not be transient")
	}
}

func TestResolveServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))
	defer server.Close()

	_, err := newTestResolver(server.URL).Resolve(context.Background(), testLink)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("Resolve() error = %v, want ErrUnreachable", err)
	}
	if !IsTransient(err) {
		t.Error("ErrUnreachable must be transient")
	}
}

func TestResolveConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newTestResolver(server.URL).Resolve(context.Background(), testLink)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("Resolve() error = %v, want ErrUnreachable", err)
	}
	if !IsTransient(err) {
		t.Error("connection failures must be transient")
	}
}
