package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gotd/td/tg"
	"github.com/ryoka/teragrab-bot/admission"
	"github.com/ryoka/teragrab-bot/common/utils/dlutil"
	"github.com/ryoka/teragrab-bot/common/utils/tgutil"
	"github.com/ryoka/teragrab-bot/core"
	"github.com/ryoka/teragrab-bot/database"
	"github.com/ryoka/teragrab-bot/pkg/enums/tier"
	"github.com/ryoka/teragrab-bot/retriever"
)

// Tracker renders task lifecycle updates as edits of the status message the
// bot sent when the link was queued.
type Tracker struct {
	mu          sync.Mutex
	lastPercent map[string]int
}

func NewTracker() *Tracker {
	return &Tracker{lastPercent: make(map[string]int)}
}

func (tr *Tracker) OnStart(ctx context.Context, t *core.Task) {
	tctx := tgutil.ExtFromContext(ctx)
	if tctx == nil || tr.isSilent(ctx, t.ChatID) {
		return
	}
	tctx.EditMessage(t.ReplyChatID, &tg.MessagesEditMessageRequest{
		Message: "Resolving link...",
		ID:      t.ReplyMessageID,
	})
}

func (tr *Tracker) OnProgress(ctx context.Context, t *core.Task) {
	tctx := tgutil.ExtFromContext(ctx)
	if tctx == nil || tr.isSilent(ctx, t.ChatID) {
		return
	}
	downloaded, total := t.DownloadedBytes(), t.TotalBytes()

	tr.mu.Lock()
	last := tr.lastPercent[t.ID]
	if !dlutil.ShouldUpdateProgress(total, downloaded, last) {
		tr.mu.Unlock()
		return
	}
	tr.lastPercent[t.ID] = int(downloaded * 100 / total)
	tr.mu.Unlock()

	speed := dlutil.GetSpeed(downloaded, t.StartedAt())
	tctx.EditMessage(t.ReplyChatID, &tg.MessagesEditMessageRequest{
		Message: fmt.Sprintf("Downloading... %s / %s (%s/s)",
			humanize.IBytes(uint64(downloaded)),
			humanize.IBytes(uint64(total)),
			humanize.IBytes(uint64(speed))),
		ID: t.ReplyMessageID,
	})
}

func (tr *Tracker) OnDone(ctx context.Context, t *core.Task, result *retriever.Result, err error) {
	tr.mu.Lock()
	delete(tr.lastPercent, t.ID)
	tr.mu.Unlock()

	tctx := tgutil.ExtFromContext(ctx)
	if tctx == nil {
		return
	}
	switch {
	case errors.Is(err, context.Canceled):
		tctx.EditMessage(t.ReplyChatID, &tg.MessagesEditMessageRequest{
			Message: "Download cancelled.",
			ID:      t.ReplyMessageID,
		})
	case err != nil:
		tctx.EditMessage(t.ReplyChatID, &tg.MessagesEditMessageRequest{
			Message: renderDeliveryError(err),
			ID:      t.ReplyMessageID,
		})
	default:
		// The video message itself is the success signal; the status
		// message is removed rather than edited into a duplicate.
		if derr := tctx.DeleteMessages(t.ReplyChatID, []int{t.ReplyMessageID}); derr != nil {
			log.FromContext(ctx).Debugf("Failed to delete status message: %v", derr)
			tctx.EditMessage(t.ReplyChatID, &tg.MessagesEditMessageRequest{
				Message: fmt.Sprintf("Done: %s (%s)", result.FileName, humanize.IBytes(uint64(result.SizeBytes))),
				ID:      t.ReplyMessageID,
			})
		}
	}
}

func (tr *Tracker) isSilent(ctx context.Context, chatID int64) bool {
	u, err := database.GetUserByChatID(ctx, chatID)
	if err != nil {
		return false
	}
	return u.Silent
}

func renderDeliveryError(err error) string {
	var de *core.DeliveryError
	if !errors.As(err, &de) {
		return "Download failed, please try again later."
	}
	switch de.Kind {
	case core.FailQuotaExceeded:
		if de.Decision != nil {
			return quotaDeniedText(de.Decision)
		}
		return "Daily download limit reached. Try again after midnight UTC."
	case core.FailResolution:
		return "Could not resolve this link. It may be expired, deleted or private."
	case core.FailRetrieval:
		switch de.Reason {
		case retriever.ReasonTimeout:
			return "The download took too long and was aborted. Try again later."
		case retriever.ReasonIntegrityCheckFailed:
			return "The file arrived corrupted and was discarded. Try again later."
		case retriever.ReasonUnsupportedFormat:
			return "This file type or size is not supported."
		default:
			return "Downloading the video failed. Try again later."
		}
	case core.FailStorage:
		return "The video was fetched but uploading it to Telegram failed. Try again later."
	default:
		return "Download failed, please try again later."
	}
}

func quotaDeniedText(d *admission.Decision) string {
	text := fmt.Sprintf("Daily limit of %d downloads reached.\nYour quota resets in %s (midnight UTC).",
		d.Limit, humanDuration(time.Until(d.ResetAt)))
	if d.Tier == tier.Free {
		text += "\n\nPremium users get a higher limit and priority processing."
	}
	return text
}

func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	d = d.Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
