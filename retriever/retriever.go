package retriever

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/imroc/req/v3"
	"github.com/ryoka/teragrab-bot/common/utils/strutil"
	"github.com/ryoka/teragrab-bot/config"
	"github.com/ryoka/teragrab-bot/pkg/enums/mediakind"
	"github.com/ryoka/teragrab-bot/pkg/stream"
)

// Reason classifies retrieval failures for user-facing messages and for the
// caller's bookkeeping. Retrieval is never retried regardless of reason: the
// media URL is spent the moment the first byte is requested.
type Reason string

const (
	ReasonNetworkFailure       Reason = "network_failure"
	ReasonTimeout              Reason = "timeout"
	ReasonIntegrityCheckFailed Reason = "integrity_check_failed"
	ReasonUnsupportedFormat    Reason = "unsupported_format"
)

type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("retrieval failed (%s): %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(reason Reason, err error) *Error {
	return &Error{Reason: reason, Err: err}
}

// ReasonOf extracts the failure reason from a retrieval error, defaulting to
// network failure for untagged errors.
func ReasonOf(err error) Reason {
	var re *Error
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonNetworkFailure
}

// Result describes a media file that passed integrity validation and sits on
// local disk ready for upload. The caller owns the file and its cleanup.
type Result struct {
	LocalPath       string
	FileName        string
	SizeBytes       int64
	DurationSeconds int
	Width           int
	Height          int
	Kind            mediakind.MediaKind
}

// Remove deletes the local file once the caller is done with it.
func (r *Result) Remove() error {
	err := os.Remove(r.LocalPath)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// ProgressFunc receives byte counts while a direct download is in flight.
// Playlist remuxes report no byte progress since the total is unknown until
// the muxer finishes.
type ProgressFunc func(downloaded, total int64)

type Retriever struct {
	client  *req.Client
	dir     string
	timeout time.Duration
	maxSize int64
}

func New() *Retriever {
	c := req.C().
		ImpersonateChrome().
		DisableAutoReadResponse().
		SetRedirectPolicy(req.MaxRedirectPolicy(10))
	return &Retriever{
		client:  c,
		dir:     config.C().Download.Dir,
		timeout: time.Duration(config.C().Download.Timeout) * time.Second,
		maxSize: config.C().Download.MaxFileSize,
	}
}

// Retrieve fetches the media behind a descriptor into the download directory
// and validates the output. Exactly one attempt is made; on any failure the
// partial output is removed before returning.
func (r *Retriever) Retrieve(ctx context.Context, desc *stream.Descriptor, taskID string, progress ProgressFunc) (*Result, error) {
	logger := log.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	name := strutil.SanitizeFilename(desc.SuggestedName)
	if name == "" {
		name = "terabox_video.mp4"
	}
	outPath := filepath.Join(r.dir, fmt.Sprintf("%s_%s", taskID, name))
	if err := os.MkdirAll(filepath.Dir(outPath), os.ModePerm); err != nil {
		return nil, newError(ReasonNetworkFailure, fmt.Errorf("creating download dir: %w", err))
	}

	var err error
	switch desc.Kind {
	case mediakind.DirectFile:
		err = r.fetchDirect(ctx, desc.MediaURL, outPath, progress)
	case mediakind.SegmentedPlaylist:
		err = r.remuxPlaylist(ctx, desc.MediaURL, outPath)
	default:
		return nil, newError(ReasonUnsupportedFormat, fmt.Errorf("unknown media kind %q", desc.Kind))
	}
	if err != nil {
		removeQuiet(outPath)
		if ctxCause := ctx.Err(); ctxCause != nil {
			if errors.Is(ctxCause, context.DeadlineExceeded) {
				return nil, newError(ReasonTimeout, fmt.Errorf("retrieval exceeded %s", r.timeout))
			}
			return nil, ctxCause
		}
		var re *Error
		if errors.As(err, &re) {
			return nil, re
		}
		return nil, newError(ReasonNetworkFailure, err)
	}

	result, err := validateOutput(outPath, name, desc.Kind, r.maxSize)
	if err != nil {
		removeQuiet(outPath)
		return nil, err
	}
	logger.Infof("Retrieved %s (%d bytes, %s)", result.FileName, result.SizeBytes, desc.Kind)
	return result, nil
}

func removeQuiet(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to remove partial file %s: %v", path, err)
	}
}
