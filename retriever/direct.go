package retriever

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ryoka/teragrab-bot/common/utils/fsutil"
	"github.com/ryoka/teragrab-bot/common/utils/ioutil"
)

// fetchDirect streams a direct media URL to outPath. The response body is the
// finished video; a playlist manifest arriving here means the source was
// misclassified and is rejected instead of being saved as video bytes.
func (r *Retriever) fetchDirect(ctx context.Context, mediaURL, outPath string, progress ProgressFunc) error {
	resp, err := r.client.R().
		SetContext(ctx).
		Get(mediaURL)
	if err != nil {
		return newError(ReasonNetworkFailure, fmt.Errorf("requesting media: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := ReasonNetworkFailure
		if resp.StatusCode == http.StatusUnsupportedMediaType {
			reason = ReasonUnsupportedFormat
		}
		return newError(reason, fmt.Errorf("media server returned status %d", resp.StatusCode))
	}
	if ct := resp.Header.Get("Content-Type"); strings.Contains(strings.ToLower(ct), "mpegurl") {
		return newError(ReasonUnsupportedFormat, fmt.Errorf("direct download answered with playlist content type %q", ct))
	}

	total := resp.ContentLength
	if r.maxSize > 0 && total > r.maxSize {
		return newError(ReasonUnsupportedFormat, fmt.Errorf("file size %d exceeds limit %d", total, r.maxSize))
	}

	out, err := fsutil.CreateFile(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	var downloaded int64
	wr := ioutil.NewProgressWriter(out, func(n int) {
		downloaded += int64(n)
		if progress != nil {
			progress(downloaded, total)
		}
	})

	copyResultCh := make(chan error, 1)
	go func() {
		_, err := io.Copy(wr, resp.Body)
		copyResultCh <- err
	}()
	select {
	case err := <-copyResultCh:
		if err != nil {
			return newError(ReasonNetworkFailure, fmt.Errorf("copying media body: %w", err))
		}
	case <-ctx.Done():
		resp.Body.Close()
		<-copyResultCh
		return ctx.Err()
	}
	return out.Sync()
}
