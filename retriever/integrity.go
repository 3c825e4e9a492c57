package retriever

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ryoka/teragrab-bot/common/utils/fsutil"
	"github.com/ryoka/teragrab-bot/pkg/enums/mediakind"
	"github.com/yapingcat/gomedia/go-mp4"
)

// Minimum plausible output sizes. A real video is never this small; outputs
// under the floor are manifest text, error pages or truncated transfers that
// must not reach the user as a playable file. Playlist remuxes get a higher
// floor because a muxer that only wrote container headers still produces
// tens of kilobytes.
const (
	minDirectSize   = 1 << 10
	minPlaylistSize = 100 << 10
)

var m3u8Magic = []byte("#EXTM3U")

// validateOutput checks the finished file before it is handed to the caller.
// It never deletes the file; the caller removes it on error.
func validateOutput(outPath, name string, kind mediakind.MediaKind, maxSize int64) (*Result, error) {
	fi, err := os.Stat(outPath)
	if err != nil {
		return nil, newError(ReasonIntegrityCheckFailed, fmt.Errorf("output file missing: %w", err))
	}

	// The Content-Length guard in the direct path only catches declared
	// sizes; chunked responses and playlist remuxes are measured here.
	if maxSize > 0 && fi.Size() > maxSize {
		return nil, newError(ReasonUnsupportedFormat,
			fmt.Errorf("output is %d bytes, above the %d byte limit", fi.Size(), maxSize))
	}

	floor := int64(minDirectSize)
	if kind == mediakind.SegmentedPlaylist {
		floor = minPlaylistSize
	}
	if fi.Size() <= floor {
		return nil, newError(ReasonIntegrityCheckFailed,
			fmt.Errorf("output is %d bytes, below the %d byte floor for %s media", fi.Size(), floor, kind))
	}

	f, err := os.Open(outPath)
	if err != nil {
		return nil, newError(ReasonIntegrityCheckFailed, fmt.Errorf("reopening output: %w", err))
	}
	defer f.Close()

	head := make([]byte, len(m3u8Magic))
	if _, err := io.ReadFull(f, head); err == nil && bytes.Equal(head, m3u8Magic) {
		return nil, newError(ReasonIntegrityCheckFailed, fmt.Errorf("output is a playlist manifest, not media"))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, newError(ReasonIntegrityCheckFailed, fmt.Errorf("seeking output: %w", err))
	}

	result := &Result{
		LocalPath: outPath,
		FileName:  fixExt(outPath, name),
		SizeBytes: fi.Size(),
		Kind:      kind,
	}
	if info, err := probeMP4(f); err == nil {
		result.DurationSeconds = info.Duration
		result.Width = info.Width
		result.Height = info.Height
	} else {
		// Non-MP4 containers still pass validation; they just upload
		// without duration metadata.
		log.Debugf("Could not probe %s: %v", outPath, err)
	}
	return result, nil
}

// fixExt replaces the filename extension when content sniffing disagrees with
// the suggested name, e.g. a webm served from a ".mp4" URL.
func fixExt(outPath, name string) string {
	detected := fsutil.DetectFileExt(outPath)
	if detected == "" || strings.EqualFold(filepath.Ext(name), detected) {
		return name
	}
	switch detected {
	case ".mp4", ".mkv", ".webm", ".avi", ".mov":
		return strings.TrimSuffix(name, filepath.Ext(name)) + detected
	}
	return name
}

type mp4Info struct {
	Duration int
	Width    int
	Height   int
}

func probeMP4(r io.ReadSeeker) (*mp4Info, error) {
	d := mp4.CreateMp4Demuxer(r)
	tracks, err := d.ReadHead()
	if err != nil {
		return nil, err
	}
	for _, track := range tracks {
		if track.Cid == mp4.MP4_CODEC_H264 || track.Cid == mp4.MP4_CODEC_H265 {
			info := d.GetMp4Info()
			duration := 0
			if info.Timescale > 0 {
				duration = int(info.Duration / info.Timescale)
			}
			return &mp4Info{
				Duration: duration,
				Width:    int(track.Width),
				Height:   int(track.Height),
			}, nil
		}
	}
	return nil, fmt.Errorf("no video track found")
}
