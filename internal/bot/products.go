package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zensof/telegram-shop-bot/internal/store"
)

const (
	cbProductPrefix = "product:"
	cbProductUpdate = "product:update:"
	cbProductDelete = "product:delete:"
)

// handleMyProducts renders the caller's active listings, one message per
// product with Update and Delete buttons. A previously rendered list is
// deleted first so the user only ever sees one copy.
func (b *Bot) handleMyProducts(ctx context.Context, session *UserSession) {
	seller, err := b.sellers.FindByTelegramID(ctx, session.userID)
	if errors.Is(err, store.ErrNotFound) {
		session.reply(MsgNoActiveProducts)
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userID).Msg("failed to look up seller")
		session.reply(MsgListFailed)
		return
	}

	products, err := b.products.FindActiveBySeller(ctx, seller.ID)
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userID).Msg("failed to list products")
		session.reply(MsgListFailed)
		return
	}
	if len(products) == 0 {
		session.reply(MsgNoActiveProducts)
		return
	}

	for _, msgID := range session.productMsgIDs {
		if _, err := b.tg.Request(tgbotapi.NewDeleteMessage(session.userID, msgID)); err != nil {
			// Messages older than 48h cannot be deleted; nothing to do.
			log.Debug().Err(err).Int("messageId", msgID).Msg("failed to delete stale product message")
		}
	}
	session.productMsgIDs = nil

	for i := range products {
		p := &products[i]
		photo := tgbotapi.NewPhoto(session.userID, tgbotapi.FileID(p.PrimaryImageID))
		photo.Caption = buildListCaption(p)
		photo.ParseMode = tgbotapi.ModeMarkdownV2
		photo.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(BtnUpdate, cbProductUpdate+p.ID.Hex()),
				tgbotapi.NewInlineKeyboardButtonData(BtnDelete, cbProductDelete+p.ID.Hex()),
			),
		)
		sent, err := b.tg.Send(photo)
		if err != nil {
			log.Error().Err(err).Str("productId", p.ID.Hex()).Msg("failed to send product entry")
			continue
		}
		session.productMsgIDs = append(session.productMsgIDs, sent.MessageID)
	}
}

// handleProductCallback routes Update and Delete presses from the
// /myproducts list. Ownership is re-checked on every press; a stale button
// from another chat cannot touch someone else's listing.
func (b *Bot) handleProductCallback(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	var hexID string
	var update bool
	switch {
	case strings.HasPrefix(query.Data, cbProductUpdate):
		hexID, update = strings.TrimPrefix(query.Data, cbProductUpdate), true
	case strings.HasPrefix(query.Data, cbProductDelete):
		hexID, update = strings.TrimPrefix(query.Data, cbProductDelete), false
	default:
		log.Warn().Str("data", query.Data).Msg("unknown product callback")
		return
	}

	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		session.reply(MsgProductNotFound)
		return
	}

	seller, err := b.sellers.FindByTelegramID(ctx, session.userID)
	if errors.Is(err, store.ErrNotFound) {
		session.reply(MsgNotOwner)
		return
	}
	if err != nil {
		session.replyWithError(err)
		return
	}

	product, err := b.products.FindOwned(ctx, id, seller.ID)
	if errors.Is(err, store.ErrNotFound) {
		session.reply(MsgNotOwner)
		return
	}
	if err != nil {
		session.replyWithError(err)
		return
	}

	if update {
		b.startUpdateWizard(ctx, session, product)
		return
	}
	b.markSold(ctx, session, product)
}

// markSold deactivates the listing and rewrites both broadcast messages
// with a sold-out caption. The deep-link button is removed so the post is a
// dead end for buyers.
func (b *Bot) markSold(ctx context.Context, session *UserSession, p *store.Product) {
	if err := b.products.Deactivate(ctx, p.ID); err != nil {
		log.Error().Err(err).Str("productId", p.ID.Hex()).Msg("failed to deactivate product")
		session.reply(MsgMarkSoldFailed)
		return
	}

	caption := buildSoldOutCaption(p)

	channelEdit := tgbotapi.EditMessageCaptionConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChannelUsername: b.cfg.ChannelUsername,
			MessageID:       p.ChannelMessageID,
		},
		Caption:   caption,
		ParseMode: tgbotapi.ModeMarkdownV2,
	}
	editFailed := false
	if _, err := b.tg.Request(channelEdit); err != nil {
		log.Error().Err(err).Str("productId", p.ID.Hex()).Msg("failed to rewrite channel broadcast")
		editFailed = true
	}

	groupEdit := tgbotapi.EditMessageCaptionConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:    b.cfg.GroupID,
			MessageID: p.GroupMessageID,
		},
		Caption:   caption,
		ParseMode: tgbotapi.ModeMarkdownV2,
	}
	if _, err := b.tg.Request(groupEdit); err != nil {
		log.Error().Err(err).Str("productId", p.ID.Hex()).Msg("failed to rewrite group broadcast")
		editFailed = true
	}

	// The product stays deactivated either way; the user is told the
	// broadcast rewrite did not go through.
	if editFailed {
		session.reply(MsgMarkSoldFailed)
		return
	}

	log.Info().
		Str("productId", p.ID.Hex()).
		Int64("userId", session.userID).
		Msg("product marked sold")

	session.reply(MsgMarkedSold)
}
