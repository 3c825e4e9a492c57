package retriever

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	ffmpeg "github.com/krau/ffmpeg-go"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// remuxPlaylist drives ffmpeg to fetch every segment of an HLS playlist and
// stream-copy them into a single MP4 container. No re-encoding happens; the
// muxer only rewrites container framing, so a successful run produces the
// concatenated source video byte for byte.
func (r *Retriever) remuxPlaylist(ctx context.Context, mediaURL, outPath string) error {
	cmd := ffmpeg.Input(mediaURL, ffmpeg.KwArgs{
		"user_agent":         browserUA,
		"protocol_whitelist": "file,http,https,tcp,tls,crypto",
		"allowed_extensions": "ALL",
	}).Output(outPath, ffmpeg.KwArgs{
		"c":        "copy",
		"bsf:a":    "aac_adtstoasc",
		"movflags": "faststart",
		"f":        "mp4",
	}).OverWriteOutput().Silent(true).Compile()

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}
	waitCh := make(chan error, 1)
	go func() {
		waitCh <- cmd.Wait()
	}()
	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-waitCh
		return ctx.Err()
	case err := <-waitCh:
		if err != nil {
			return newError(remuxReason(stderr.String()), fmt.Errorf("ffmpeg: %v: %s", err, lastLine(stderr.String())))
		}
	}
	return nil
}

func remuxReason(stderr string) Reason {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "invalid data found"),
		strings.Contains(lower, "unknown format"),
		strings.Contains(lower, "could not find codec"):
		return ReasonUnsupportedFormat
	default:
		return ReasonNetworkFailure
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
