package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/celestix/gotgproto/dispatcher"
	"github.com/celestix/gotgproto/ext"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/ryoka/teragrab-bot/database"
	"github.com/ryoka/teragrab-bot/pkg/enums/tier"
)

const statusHistoryLimit = 5

func statusCmd(ctx *ext.Context, update *ext.Update) error {
	logger := log.FromContext(ctx)
	chatID := update.GetUserChat().GetID()

	standing, err := ctrl.Peek(ctx, chatID)
	if err != nil {
		logger.Errorf("Failed to read quota for %d: %s", chatID, err)
		ctx.Reply(update, ext.ReplyTextString("Something went wrong, please try again."), nil)
		return dispatcher.EndGroups
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tier: %s\n", tier.GetDisplay(standing.Tier))
	fmt.Fprintf(&b, "Downloads today: %d / %d\n", standing.Used, standing.Limit)
	fmt.Fprintf(&b, "Quota resets in %s\n", humanDuration(time.Until(standing.ResetAt)))
	if standing.Tier == tier.Premium {
		if u, err := database.GetUserByChatID(ctx, chatID); err == nil {
			fmt.Fprintf(&b, "Premium until: %s\n", u.PremiumUntil.UTC().Format("2006-01-02 15:04 MST"))
		}
	}

	records, err := database.GetHistory(ctx, chatID, statusHistoryLimit)
	if err != nil {
		logger.Errorf("Failed to read history for %d: %s", chatID, err)
	}
	if len(records) > 0 {
		b.WriteString("\nRecent downloads:\n")
		for _, rec := range records {
			fmt.Fprintf(&b, "- %s (%s)\n", rec.FileName, humanize.IBytes(uint64(rec.SizeBytes)))
		}
	}

	ctx.Reply(update, ext.ReplyTextString(b.String()), nil)
	return dispatcher.EndGroups
}
