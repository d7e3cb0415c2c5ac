package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zensof/telegram-shop-bot/internal/store"
)

// handleStart greets the user, or renders a product view when the command
// carries a deep-link payload (the product ID from a broadcast button).
func (b *Bot) handleStart(ctx context.Context, session *UserSession, message *tgbotapi.Message, args string) {
	user := &store.User{
		TelegramID: session.userID,
		CreatedAt:  time.Now(),
	}
	if message.From != nil {
		user.Username = message.From.UserName
		user.FirstName = message.From.FirstName
	}
	if _, err := b.users.Ensure(ctx, user); err != nil {
		log.Error().Err(err).Int64("userId", session.userID).Msg("failed to ensure user record")
	}

	if args == "" {
		name := ""
		if user.FirstName != "" {
			name = " " + user.FirstName
		}
		session.reply(MsgWelcome, name)
		return
	}
	b.showProduct(ctx, session, args)
}

// showProduct renders the deep-linked product to a prospective buyer: all
// images as a media group with the broadcast caption, followed by the
// seller's contact details. Viewing also feeds the viewer's category
// preferences.
func (b *Bot) showProduct(ctx context.Context, session *UserSession, hexID string) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		session.reply(MsgProductNotFound)
		return
	}

	product, err := b.products.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		session.reply(MsgProductNotFound)
		return
	}
	if err != nil {
		session.replyWithError(err)
		return
	}
	if !product.IsActive {
		session.reply(MsgSoldOutSuffix)
		return
	}

	caption := buildCaption(productCaptionFields(product))
	imageIDs := product.AllImageIDs()
	media := make([]interface{}, 0, len(imageIDs))
	for i, fileID := range imageIDs {
		photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(fileID))
		if i == 0 {
			photo.Caption = caption
			photo.ParseMode = tgbotapi.ModeMarkdownV2
		}
		media = append(media, photo)
	}
	group := tgbotapi.MediaGroupConfig{ChatID: session.userID, Media: media}
	if _, err := b.tg.SendMediaGroup(group); err != nil {
		log.Error().Err(err).Str("productId", hexID).Msg("failed to send product view")
		session.reply(MsgUnexpectedErr)
		return
	}

	b.sendSellerContact(ctx, session, product)

	err = b.users.AddCategoryPreferences(ctx, session.userID, product.GeneralCategory, product.SpecificCategory)
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userID).Msg("failed to record category preferences")
	}
}

// sendSellerContact follows a product view with the seller's name, username
// and phone so the buyer can get in touch.
func (b *Bot) sendSellerContact(ctx context.Context, session *UserSession, p *store.Product) {
	name := ""
	phone := p.ContactPhone
	seller, err := b.sellers.FindByID(ctx, p.SellerID)
	if err != nil {
		log.Error().Err(err).Str("productId", p.ID.Hex()).Msg("failed to look up seller for contact message")
	} else {
		name = seller.FirstName
		if seller.Username != "" {
			name = strings.TrimSpace(name + " (@" + seller.Username + ")")
		}
		if seller.Phone != "" {
			phone = seller.Phone
		}
	}
	if name == "" {
		name = "Seller"
	}
	session.reply(MsgSellerContact, name, phone)
}
