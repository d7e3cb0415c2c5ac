// Package bot implements the Telegram marketplace bot: the add/update
// product wizard, product management, deep-link product views and the
// channel/group broadcast plumbing.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/zensof/telegram-shop-bot/config"
	"github.com/zensof/telegram-shop-bot/internal/store"
)

// BotAPI is the surface of tgbotapi.BotAPI the bot uses. Kept narrow so
// tests can substitute a mock.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMediaGroup(c tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
	GetChatMember(c tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot wires the Telegram API, configuration and stores together and owns
// the per-user session registry.
type Bot struct {
	tg       BotAPI
	cfg      *config.Config
	state    *BotState
	products store.ProductStore
	sellers  store.SellerStore
	users    store.UserStore
}

func NewBot(
	tg BotAPI,
	cfg *config.Config,
	products store.ProductStore,
	sellers store.SellerStore,
	users store.UserStore,
) *Bot {
	b := &Bot{
		tg:       tg,
		cfg:      cfg,
		products: products,
		sellers:  sellers,
		users:    users,
	}
	b.state = b.NewBotState()
	return b
}

// Run consumes updates until ctx is cancelled, then stops all session
// workers.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	log.Info().Msg("bot started, waiting for updates")
	for {
		select {
		case <-ctx.Done():
			b.state.Shutdown()
			return ctx.Err()
		case update := <-updates:
			b.dispatchUpdate(ctx, update)
		}
	}
}

// dispatchUpdate queues an update onto the owning user's session worker.
// Processing is sequential per user and concurrent across users.
func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.Chat == nil || !msg.Chat.IsPrivate() {
			// Broadcast chats are write-only for the bot.
			return
		}
		session := b.state.getUserSession(msg.From.ID)
		session.Send(SessionMessage{Type: "message", Ctx: ctx, Message: msg})

	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		// Ack immediately so the client stops its spinner regardless of
		// how long the handler takes.
		if _, err := b.tg.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			log.Debug().Err(err).Msg("failed to ack callback query")
		}
		session := b.state.getUserSession(query.From.ID)
		session.Send(SessionMessage{Type: "callback", Ctx: ctx, CallbackQuery: query})
	}
}

// handleUpdateSync dispatches an update and waits for it to be fully
// processed. Used by tests.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		session := b.state.getUserSession(update.Message.From.ID)
		session.SendSync(SessionMessage{Type: "message", Ctx: ctx, Message: update.Message})
	case update.CallbackQuery != nil:
		session := b.state.getUserSession(update.CallbackQuery.From.ID)
		session.SendSync(SessionMessage{Type: "callback", Ctx: ctx, CallbackQuery: update.CallbackQuery})
	}
}

// HandleSessionMessage is the MessageHandler entry point, invoked by each
// session's worker goroutine.
func (b *Bot) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	switch msg.Type {
	case "callback":
		b.handleCallbackQuery(ctx, session, msg.CallbackQuery)
	case "message":
		b.handleMessage(ctx, session, msg.Message)
	default:
		log.Error().Str("type", msg.Type).Msg("unknown session message type")
	}
}

func (b *Bot) handleMessage(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	// Commands win over the wizard so /cancel always works mid-flow.
	if strings.HasPrefix(message.Text, "/") {
		b.handleCommand(ctx, session, message)
		return
	}
	if session.wizard != nil {
		b.handleWizardMessage(ctx, session, message)
		return
	}
	session.reply(MsgNoActiveFlow)
}

func (b *Bot) handleCommand(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	command, args := parseCommand(message.Text)
	log.Info().
		Int64("userId", session.userID).
		Str("command", command).
		Msg("handling command")

	switch command {
	case "/start":
		b.handleStart(ctx, session, message, args)
	case "/addproduct":
		if !b.requireSubscription(session) {
			return
		}
		b.startCreateWizard(ctx, session)
	case "/myproducts":
		b.handleMyProducts(ctx, session)
	case "/help":
		b.handleHelp(session)
	case "/cancel":
		b.cancelWizard(session)
	default:
		session.reply(MsgUnknownCommand)
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	switch {
	case strings.HasPrefix(query.Data, cbWizardPrefix):
		b.handleWizardCallback(ctx, session, query)
	case strings.HasPrefix(query.Data, cbProductPrefix):
		b.handleProductCallback(ctx, session, query)
	default:
		log.Warn().Str("data", query.Data).Msg("unhandled callback query")
	}
}
