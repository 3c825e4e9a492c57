package bot

import (
	"github.com/celestix/gotgproto/dispatcher"
	"github.com/celestix/gotgproto/dispatcher/handlers"
	"github.com/celestix/gotgproto/dispatcher/handlers/filters"
	"github.com/celestix/gotgproto/ext"
	"github.com/charmbracelet/log"
	"github.com/ryoka/teragrab-bot/database"
)

func RegisterHandlers(disp dispatcher.Dispatcher) {
	disp.AddHandler(handlers.NewMessage(filters.Message.All, ensureUser))
	disp.AddHandler(handlers.NewCommand("start", start))
	disp.AddHandler(handlers.NewCommand("help", help))
	disp.AddHandler(handlers.NewCommand("status", statusCmd))
	disp.AddHandler(handlers.NewCommand("cancel", cancelCmd))
	disp.AddHandler(handlers.NewCommand("silent", silentCmd))
	disp.AddHandler(handlers.NewCommand("forward", forwardCmd))
	disp.AddHandler(handlers.NewCommand("grant", grantCmd))
	disp.AddHandler(handlers.NewCommand("revoke", revokeCmd))
	disp.AddHandler(handlers.NewCommand("stats", statsCmd))
	disp.AddHandler(handlers.NewCommand("broadcast", broadcastCmd))
	linkFilter, err := filters.Message.Regex(shareLinkPattern)
	if err != nil {
		log.Fatalf("Failed to create link filter: %s", err)
	}
	disp.AddHandler(handlers.NewMessage(linkFilter, handleLinkMessage))
	disp.AddHandler(handlers.NewCallbackQuery(filters.CallbackQuery.Prefix("cancel"), cancelCallback))
}

// ensureUser upserts the sender's row so every later handler can assume the
// user exists. The bot is public; there is no whitelist.
func ensureUser(ctx *ext.Context, update *ext.Update) error {
	chat := update.GetUserChat()
	if chat == nil {
		return dispatcher.ContinueGroups
	}
	if err := database.CreateUser(ctx, chat.GetID(), chat.FirstName, chat.Username); err != nil {
		log.FromContext(ctx).Errorf("Failed to upsert user %d: %s", chat.GetID(), err)
	}
	return dispatcher.ContinueGroups
}
