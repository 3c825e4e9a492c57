package core

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/ryoka/teragrab-bot/admission"
	"github.com/ryoka/teragrab-bot/pkg/stream"
	"github.com/ryoka/teragrab-bot/resolver"
	"github.com/ryoka/teragrab-bot/retriever"
)

// FailKind tags where in the pipeline a delivery died. The chat layer maps
// each kind to its own user-facing message.
type FailKind string

const (
	FailQuotaExceeded FailKind = "quota_exceeded"
	FailResolution    FailKind = "resolution_failed"
	FailRetrieval     FailKind = "retrieval_failed"
	FailStorage       FailKind = "storage_failed"
)

type DeliveryError struct {
	Kind FailKind
	// Reason is set for retrieval failures only.
	Reason retriever.Reason
	// Decision carries quota standing for quota denials.
	Decision *admission.Decision
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed (%s): %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// deliver runs one request through the full pipeline: admission, pacing,
// resolution, retrieval, upload, bookkeeping. Quota is charged at the very
// end; any failure or cancellation on the way leaves quota and history
// untouched. The retrieved file is removed before returning.
func (o *Orchestrator) deliver(ctx context.Context, t *Task) (*retriever.Result, error) {
	logger := log.FromContext(ctx)

	decision, err := o.admitter.Admit(ctx, t.ChatID)
	if err != nil {
		// The store failing to answer is not a quota denial; the user
		// still has quota as far as anyone knows.
		return nil, &DeliveryError{Kind: FailStorage, Err: fmt.Errorf("evaluating quota: %w", err)}
	}
	if !decision.Allowed {
		logger.Infof("Denied task %s for chat %d: %d/%d used", t.ID, t.ChatID, decision.Used, decision.Limit)
		return nil, &DeliveryError{
			Kind:     FailQuotaExceeded,
			Decision: decision,
			Err:      fmt.Errorf("daily quota of %d reached", decision.Limit),
		}
	}

	// Pacing keeps the bot from hammering the upstream API. Free tier
	// requests wait longer.
	if delay := o.baseDelay * time.Duration(decision.DelayFactor); delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	desc, err := o.resolve(ctx, t.Link)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &DeliveryError{Kind: FailResolution, Err: err}
	}
	logger.Debugf("Task %s resolved to %s media", t.ID, desc.Kind)

	t.startedAt = time.Now()
	result, err := o.retriever.Retrieve(ctx, desc, t.ID, func(downloaded, total int64) {
		t.downloadedBytes.Store(downloaded)
		t.totalBytes.Store(total)
		if o.tracker != nil {
			o.tracker.OnProgress(ctx, t)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &DeliveryError{Kind: FailRetrieval, Reason: retriever.ReasonOf(err), Err: err}
	}
	defer func() {
		if err := result.Remove(); err != nil {
			logger.Warnf("Failed to remove delivered file %s: %v", result.LocalPath, err)
		}
	}()

	if err := o.sink.Deliver(ctx, t, result); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &DeliveryError{Kind: FailStorage, Err: err}
	}

	if err := o.admitter.RecordSuccess(ctx, t.ChatID, result.FileName, result.SizeBytes, string(result.Kind)); err != nil {
		// The user has the file; failing the delivery now would only
		// produce a confusing error under a finished video.
		logger.Errorf("Failed to record delivery for chat %d: %v", t.ChatID, err)
	}
	return result, nil
}

// resolve obtains a fresh stream descriptor, retrying once when the
// resolution API was unreachable. Every attempt is a full resolution from
// the share link; descriptors are never reused because their media URLs are
// short-lived.
func (o *Orchestrator) resolve(ctx context.Context, link string) (*stream.Descriptor, error) {
	var desc *stream.Descriptor
	attempt := func() error {
		d, err := o.resolver.Resolve(ctx, link)
		if err != nil {
			if resolver.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		desc = d
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1), ctx)
	if err := backoff.Retry(attempt, bo); err != nil {
		return nil, err
	}
	return desc, nil
}
