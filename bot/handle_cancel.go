package bot

import (
	"strings"

	"github.com/celestix/gotgproto/dispatcher"
	"github.com/celestix/gotgproto/ext"
	"github.com/gotd/td/tg"
)

func cancelCmd(ctx *ext.Context, update *ext.Update) error {
	chatID := update.GetUserChat().GetID()
	task, found := orch.TaskByChat(chatID)
	if !orch.CancelByChat(chatID) {
		ctx.Reply(update, ext.ReplyTextString("You have no download in progress."), nil)
		return dispatcher.EndGroups
	}
	if found {
		ctx.EditMessage(task.ReplyChatID, &tg.MessagesEditMessageRequest{
			Message: "Download cancelled.",
			ID:      task.ReplyMessageID,
		})
	}
	ctx.Reply(update, ext.ReplyTextString("Download cancelled."), nil)
	return dispatcher.EndGroups
}

func cancelCallback(ctx *ext.Context, update *ext.Update) error {
	args := strings.Split(string(update.CallbackQuery.Data), " ")
	if len(args) < 2 {
		return dispatcher.EndGroups
	}
	task, found := orch.TaskByID(args[1])
	message := "Task cancelled."
	if err := orch.CancelTask(args[1]); err != nil {
		message = "Task not found, it may have finished already."
	}
	// A pending task is dropped without a lifecycle event, so the status
	// message is updated here; for running tasks the second edit with the
	// same text is a no-op.
	if found {
		ctx.EditMessage(task.ReplyChatID, &tg.MessagesEditMessageRequest{
			Message: "Download cancelled.",
			ID:      task.ReplyMessageID,
		})
	}
	ctx.AnswerCallback(&tg.MessagesSetBotCallbackAnswerRequest{
		QueryID: update.CallbackQuery.QueryID,
		Message: message,
	})
	return dispatcher.EndGroups
}
