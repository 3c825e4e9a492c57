package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/celestix/gotgproto/dispatcher"
	"github.com/celestix/gotgproto/ext"
	"github.com/charmbracelet/log"
	"github.com/gotd/td/tg"
	"github.com/ryoka/teragrab-bot/common/cache"
	"github.com/ryoka/teragrab-bot/config"
	"github.com/ryoka/teragrab-bot/database"
)

func requireAdmin(ctx *ext.Context, update *ext.Update) bool {
	if config.C().IsAdmin(update.GetUserChat().GetID()) {
		return true
	}
	ctx.Reply(update, ext.ReplyTextString("This command is for admins only."), nil)
	return false
}

// grantCmd grants premium access: /grant <chat id> <days>.
func grantCmd(ctx *ext.Context, update *ext.Update) error {
	if !requireAdmin(ctx, update) {
		return dispatcher.EndGroups
	}
	args := strings.Fields(update.EffectiveMessage.Text)
	if len(args) != 3 {
		ctx.Reply(update, ext.ReplyTextString("Usage: /grant <chat id> <days>"), nil)
		return dispatcher.EndGroups
	}
	chatID, err1 := strconv.ParseInt(args[1], 10, 64)
	days, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil || days <= 0 {
		ctx.Reply(update, ext.ReplyTextString("Usage: /grant <chat id> <days>"), nil)
		return dispatcher.EndGroups
	}

	until := time.Now().UTC().AddDate(0, 0, days)
	if err := database.SetPremiumUntil(ctx, chatID, until); err != nil {
		log.FromContext(ctx).Errorf("Failed to grant premium to %d: %s", chatID, err)
		ctx.Reply(update, ext.ReplyTextString("Failed to grant premium. Has the user started the bot?"), nil)
		return dispatcher.EndGroups
	}
	ctx.Reply(update, ext.ReplyTextString(fmt.Sprintf("Granted premium to %d until %s.",
		chatID, until.Format("2006-01-02 15:04 MST"))), nil)
	return dispatcher.EndGroups
}

func revokeCmd(ctx *ext.Context, update *ext.Update) error {
	if !requireAdmin(ctx, update) {
		return dispatcher.EndGroups
	}
	args := strings.Fields(update.EffectiveMessage.Text)
	if len(args) != 2 {
		ctx.Reply(update, ext.ReplyTextString("Usage: /revoke <chat id>"), nil)
		return dispatcher.EndGroups
	}
	chatID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		ctx.Reply(update, ext.ReplyTextString("Usage: /revoke <chat id>"), nil)
		return dispatcher.EndGroups
	}
	if err := database.SetPremiumUntil(ctx, chatID, time.Time{}); err != nil {
		log.FromContext(ctx).Errorf("Failed to revoke premium for %d: %s", chatID, err)
		ctx.Reply(update, ext.ReplyTextString("Failed to revoke premium."), nil)
		return dispatcher.EndGroups
	}
	ctx.Reply(update, ext.ReplyTextString(fmt.Sprintf("Revoked premium for %d.", chatID)), nil)
	return dispatcher.EndGroups
}

const statsCacheKey = "bot:stats"

func statsCmd(ctx *ext.Context, update *ext.Update) error {
	if !requireAdmin(ctx, update) {
		return dispatcher.EndGroups
	}
	if text, ok := cache.Get[string](statsCacheKey); ok {
		ctx.Reply(update, ext.ReplyTextString(text), nil)
		return dispatcher.EndGroups
	}

	users, err := database.CountUsers(ctx)
	if err != nil {
		log.FromContext(ctx).Errorf("Failed to count users: %s", err)
		ctx.Reply(update, ext.ReplyTextString("Failed to gather stats."), nil)
		return dispatcher.EndGroups
	}
	text := fmt.Sprintf("Users: %d\nQueued tasks: %d\nRunning tasks: %d",
		users, orch.QueueLength(), orch.RunningLength())
	if err := cache.Set(statsCacheKey, text); err != nil {
		log.FromContext(ctx).Debugf("Failed to cache stats: %s", err)
	}
	ctx.Reply(update, ext.ReplyTextString(text), nil)
	return dispatcher.EndGroups
}

// broadcastCmd sends a message to every known user. Slow by design; the
// rate limit middleware paces the sends.
func broadcastCmd(ctx *ext.Context, update *ext.Update) error {
	if !requireAdmin(ctx, update) {
		return dispatcher.EndGroups
	}
	logger := log.FromContext(ctx)
	text := strings.TrimSpace(strings.TrimPrefix(update.EffectiveMessage.Text, "/broadcast"))
	if text == "" {
		ctx.Reply(update, ext.ReplyTextString("Usage: /broadcast <message>"), nil)
		return dispatcher.EndGroups
	}
	users, err := database.GetAllUsers(ctx)
	if err != nil {
		logger.Errorf("Failed to list users: %s", err)
		ctx.Reply(update, ext.ReplyTextString("Failed to list users."), nil)
		return dispatcher.EndGroups
	}

	sent := 0
	for _, user := range users {
		if _, err := ctx.SendMessage(user.ChatID, &tg.MessagesSendMessageRequest{Message: text}); err != nil {
			logger.Debugf("Broadcast to %d failed: %s", user.ChatID, err)
			continue
		}
		sent++
	}
	ctx.Reply(update, ext.ReplyTextString(fmt.Sprintf("Broadcast delivered to %d/%d users.", sent, len(users))), nil)
	return dispatcher.EndGroups
}
