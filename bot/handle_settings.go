package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/celestix/gotgproto/dispatcher"
	"github.com/celestix/gotgproto/ext"
	"github.com/charmbracelet/log"
	"github.com/ryoka/teragrab-bot/database"
	"github.com/ryoka/teragrab-bot/pkg/enums/tier"
)

func silentCmd(ctx *ext.Context, update *ext.Update) error {
	chatID := update.GetUserChat().GetID()
	user, err := database.MutateUser(ctx, chatID, func(u *database.User) error {
		u.Silent = !u.Silent
		return nil
	})
	if err != nil {
		log.FromContext(ctx).Errorf("Failed to toggle silent for %d: %s", chatID, err)
		ctx.Reply(update, ext.ReplyTextString("Something went wrong, please try again."), nil)
		return dispatcher.EndGroups
	}
	state := "off: you will see download progress again"
	if user.Silent {
		state = "on: no more progress edits, just the video"
	}
	ctx.Reply(update, ext.ReplyTextString("Silent mode is now "+state+"."), nil)
	return dispatcher.EndGroups
}

// forwardCmd sets or clears the channel that finished videos are copied to.
// Premium only; the bot must be able to post in the target chat.
func forwardCmd(ctx *ext.Context, update *ext.Update) error {
	chatID := update.GetUserChat().GetID()
	user, err := database.GetUserByChatID(ctx, chatID)
	if err != nil {
		log.FromContext(ctx).Errorf("Failed to get user %d: %s", chatID, err)
		return dispatcher.EndGroups
	}
	if user.EffectiveTier(time.Now()) != tier.Premium {
		ctx.Reply(update, ext.ReplyTextString("Auto-forwarding is a premium feature."), nil)
		return dispatcher.EndGroups
	}

	arg := strings.TrimSpace(strings.TrimPrefix(update.EffectiveMessage.Text, "/forward"))
	if arg == "" || arg == "off" {
		if err := database.SetForwardChat(ctx, chatID, 0); err != nil {
			ctx.Reply(update, ext.ReplyTextString("Failed to update settings, please try again."), nil)
			return dispatcher.EndGroups
		}
		ctx.Reply(update, ext.ReplyTextString("Auto-forwarding disabled.\nUse /forward <chat id> to enable it."), nil)
		return dispatcher.EndGroups
	}

	target, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		ctx.Reply(update, ext.ReplyTextString("That does not look like a chat ID. Usage: /forward <chat id>"), nil)
		return dispatcher.EndGroups
	}
	if err := database.SetForwardChat(ctx, chatID, target); err != nil {
		ctx.Reply(update, ext.ReplyTextString("Failed to update settings, please try again."), nil)
		return dispatcher.EndGroups
	}
	ctx.Reply(update, ext.ReplyTextString(fmt.Sprintf("Finished videos will be forwarded to chat %d.", target)), nil)
	return dispatcher.EndGroups
}
