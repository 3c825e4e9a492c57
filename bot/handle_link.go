package bot

import (
	"errors"
	"fmt"

	"github.com/celestix/gotgproto/dispatcher"
	"github.com/celestix/gotgproto/ext"
	"github.com/charmbracelet/log"
	"github.com/gotd/td/tg"
	"github.com/ryoka/teragrab-bot/common/utils/tgutil"
	"github.com/ryoka/teragrab-bot/core"
	"github.com/ryoka/teragrab-bot/resolver"
)

const shareLinkPattern = resolver.SharePattern

// handleLinkMessage turns a message containing a share link into a delivery
// task. The priority class comes from the user's current tier; quota itself
// is enforced inside the pipeline so a queued task that waits past midnight
// is judged against the fresh day.
func handleLinkMessage(ctx *ext.Context, update *ext.Update) error {
	logger := log.FromContext(ctx)
	chatID := update.GetUserChat().GetID()

	link := resolver.ExtractShareLink(update.EffectiveMessage.Text)
	if link == "" {
		return dispatcher.EndGroups
	}

	standing, err := ctrl.Peek(ctx, chatID)
	if err != nil {
		logger.Errorf("Failed to read quota for %d: %s", chatID, err)
		ctx.Reply(update, ext.ReplyTextString("Something went wrong, please try again."), nil)
		return dispatcher.EndGroups
	}
	if !standing.Allowed {
		ctx.Reply(update, ext.ReplyTextString(quotaDeniedText(standing)), nil)
		return dispatcher.EndGroups
	}

	replied, err := ctx.Reply(update, ext.ReplyTextString("Link received, queueing download..."), nil)
	if err != nil {
		logger.Errorf("Failed to reply: %s", err)
		return dispatcher.EndGroups
	}

	task := core.NewTask(chatID, link, chatID, replied.ID)
	err = orch.Enqueue(tgutil.ExtWithContext(ctx, ctx), task, standing.Priority)
	if err != nil {
		text := "Failed to queue your download, please try again."
		if errors.Is(err, core.ErrDuplicateTask) {
			text = "You already have a download in progress. Wait for it to finish or /cancel it."
		}
		ctx.EditMessage(chatID, &tg.MessagesEditMessageRequest{
			Message: text,
			ID:      replied.ID,
		})
		return dispatcher.EndGroups
	}

	logger.Infof("Queued task %s for chat %d (%s tier)", task.ID, chatID, standing.Tier)
	ctx.EditMessage(chatID, &tg.MessagesEditMessageRequest{
		Message:     fmt.Sprintf("Queued. %d task(s) ahead of you.", queuePosition()),
		ID:          replied.ID,
		ReplyMarkup: cancelMarkup(task.ID),
	})
	return dispatcher.EndGroups
}

func cancelMarkup(taskID string) *tg.ReplyInlineMarkup {
	return &tg.ReplyInlineMarkup{
		Rows: []tg.KeyboardButtonRow{
			{
				Buttons: []tg.KeyboardButtonClass{
					&tg.KeyboardButtonCallback{
						Text: "Cancel",
						Data: []byte(fmt.Sprintf("cancel %s", taskID)),
					},
				},
			},
		},
	}
}

func queuePosition() int {
	if n := orch.QueueLength(); n > 0 {
		return n - 1
	}
	return 0
}
