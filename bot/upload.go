package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/celestix/gotgproto/ext"
	tgtypes "github.com/celestix/gotgproto/types"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
	"github.com/ryoka/teragrab-bot/common/utils/tgutil"
	"github.com/ryoka/teragrab-bot/config"
	"github.com/ryoka/teragrab-bot/core"
	"github.com/ryoka/teragrab-bot/database"
	"github.com/ryoka/teragrab-bot/pkg/enums/tier"
	"github.com/ryoka/teragrab-bot/retriever"
)

const maxUploadPartSize = 512 * 1024

// Uploader sends retrieved videos back into Telegram. It implements
// core.Sink; an upload error fails the delivery, so quota is only charged
// for videos the user actually received.
type Uploader struct{}

func NewUploader() *Uploader {
	return &Uploader{}
}

func (u *Uploader) Deliver(ctx context.Context, t *core.Task, result *retriever.Result) error {
	tctx := tgutil.ExtFromContext(ctx)
	if tctx == nil {
		return fmt.Errorf("no telegram context for task %s", t.ID)
	}

	upler := uploader.NewUploader(tctx.Raw).
		WithPartSize(maxUploadPartSize).
		WithThreads(config.C().Workers)
	file, err := upler.FromPath(ctx, result.LocalPath)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", result.FileName, err)
	}

	attrs := []tg.DocumentAttributeClass{
		&tg.DocumentAttributeFilename{FileName: result.FileName},
	}
	if result.DurationSeconds > 0 {
		attrs = append(attrs, &tg.DocumentAttributeVideo{
			SupportsStreaming: true,
			Duration:          float64(result.DurationSeconds),
			W:                 result.Width,
			H:                 result.Height,
		})
	}
	sent, err := tctx.SendMedia(t.ChatID, &tg.MessagesSendMediaRequest{
		Media: &tg.InputMediaUploadedDocument{
			File:       file,
			MimeType:   "video/mp4",
			Attributes: attrs,
		},
		Message: fmt.Sprintf("%s\n%s", result.FileName, humanize.IBytes(uint64(result.SizeBytes))),
	})
	if err != nil {
		return fmt.Errorf("sending video to chat %d: %w", t.ChatID, err)
	}

	u.archive(ctx, tctx, t, sent)
	return nil
}

// archive copies the delivered message to the store channel and the user's
// forward channel. Both are best effort: the user already has the file.
func (u *Uploader) archive(ctx context.Context, tctx *ext.Context, t *core.Task, sent *tgtypes.Message) {
	logger := log.FromContext(ctx)
	if sent == nil || sent.Media == nil {
		return
	}

	if storeChannel := config.C().Telegram.StoreChannel; storeChannel != 0 {
		if _, err := copyMediaToChat(tctx, sent, storeChannel); err != nil {
			logger.Warnf("Failed to archive task %s to store channel: %v", t.ID, err)
		}
	}

	user, err := database.GetUserByChatID(ctx, t.ChatID)
	if err != nil || user.ForwardChatID == 0 {
		return
	}
	if user.EffectiveTier(time.Now()) != tier.Premium {
		return
	}
	if _, err := copyMediaToChat(tctx, sent, user.ForwardChatID); err != nil {
		logger.Warnf("Failed to forward task %s to chat %d: %v", t.ID, user.ForwardChatID, err)
	}
}

func copyMediaToChat(tctx *ext.Context, msg *tgtypes.Message, chatID int64) (*tgtypes.Message, error) {
	media, ok := msg.GetMedia()
	if !ok {
		return nil, fmt.Errorf("message has no media")
	}
	doc, ok := media.(*tg.MessageMediaDocument)
	if !ok {
		return nil, fmt.Errorf("unsupported media type %T", media)
	}
	document, ok := doc.Document.AsNotEmpty()
	if !ok {
		return nil, fmt.Errorf("empty document")
	}
	inputMedia := &tg.InputMediaDocument{ID: document.AsInput()}
	inputMedia.SetFlags()
	req := &tg.MessagesSendMediaRequest{
		Media:   inputMedia,
		Message: msg.Message.Message,
	}
	req.SetFlags()
	return tctx.SendMedia(chatID, req)
}
