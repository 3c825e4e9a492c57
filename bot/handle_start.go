package bot

import (
	"fmt"

	"github.com/celestix/gotgproto/dispatcher"
	"github.com/celestix/gotgproto/ext"
	"github.com/dustin/go-humanize"
	"github.com/ryoka/teragrab-bot/config"
)

const helpTextTemplate = `TeraGrab - download Terabox videos right in Telegram

Send me a Terabox share link and I will fetch the video for you.

Commands:
/start - Start using the bot
/help - Show this help
/status - Your quota and recent downloads
/cancel - Cancel the current download
/silent - Toggle silent mode (no progress edits)
/forward - Set a channel for auto-forwarding (premium)

Free tier: %d downloads per day.
Premium tier: %d downloads per day, priority processing.
Quotas reset at midnight UTC. Maximum file size: %s.`

func start(ctx *ext.Context, update *ext.Update) error {
	ctx.Reply(update, ext.ReplyTextString(fmt.Sprintf(
		"Hi %s! Send me a Terabox share link to get started.\nUse /help to see what I can do.",
		update.GetUserChat().FirstName)), nil)
	return dispatcher.EndGroups
}

func help(ctx *ext.Context, update *ext.Update) error {
	q := config.C().Quota
	ctx.Reply(update, ext.ReplyTextString(fmt.Sprintf(helpTextTemplate,
		q.FreeDaily, q.PremiumDaily,
		humanize.IBytes(uint64(config.C().Download.MaxFileSize)))), nil)
	return dispatcher.EndGroups
}
