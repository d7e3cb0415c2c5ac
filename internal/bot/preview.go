package bot

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/zensof/telegram-shop-bot/internal/store"
)

// Callback data for wizard buttons: "wizard:" plus an action, with
// single-field edits encoded as "wizard:field:<step>".
const (
	cbWizardPrefix  = "wizard:"
	cbWizardConfirm = "wizard:confirm"
	cbWizardSave    = "wizard:save"
	cbWizardEdit    = "wizard:edit"
	cbWizardPreview = "wizard:preview"
	cbWizardCancel  = "wizard:cancel"
	cbWizardField   = "wizard:field:"
)

// editableSteps drives the field-edit menu, in display order.
var editableSteps = []struct {
	label string
	step  Step
}{
	{BtnEditPrimaryImage, StepPrimaryImage},
	{BtnEditAddlImages, StepAdditionalImages},
	{BtnEditCategory, StepCategory},
	{BtnEditSubCategory, StepSubCategory},
	{BtnEditName, StepName},
	{BtnEditLocation, StepLocation},
	{BtnEditPrice, StepPrice},
	{BtnEditDescription, StepDescription},
	{BtnEditPhone, StepPhone},
}

// sendPreview shows the draft exactly as it will appear in the channel:
// a media group with the broadcast caption on the first photo, followed by
// the action keyboard.
func (b *Bot) sendPreview(ctx context.Context, session *UserSession) {
	w := session.wizard
	w.Step = StepPreview

	caption := buildCaption(w.Draft.captionFields())
	media := make([]interface{}, 0, 1+len(w.Draft.AdditionalImageIDs))
	first := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(w.Draft.PrimaryImageID))
	first.Caption = caption
	first.ParseMode = tgbotapi.ModeMarkdownV2
	media = append(media, first)
	for _, id := range w.Draft.AdditionalImageIDs {
		media = append(media, tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(id)))
	}

	group := tgbotapi.MediaGroupConfig{ChatID: session.userID, Media: media}
	if _, err := b.tg.SendMediaGroup(group); err != nil {
		// Still send the action keyboard below; without it the only way
		// out of the preview step would be /cancel.
		log.Error().Err(err).Int64("userId", session.userID).Msg("failed to send preview media group")
		session.reply(MsgPreviewFailed)
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if w.Flow == flowUpdate {
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnSaveChanges, cbWizardSave)))
	} else {
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnConfirmPost, cbWizardConfirm)))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnEdit, cbWizardEdit)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnCancel, cbWizardCancel)),
	)

	msg := tgbotapi.MessageConfig{Text: MsgChooseAction}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	session.replyWithMessage(msg)
}

// sendEditMenu shows the single-field edit keyboard. It is the hub of the
// update flow and reachable from the create flow's preview via Edit.
func (b *Bot) sendEditMenu(session *UserSession) {
	w := session.wizard
	w.Step = StepEditMenu

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(editableSteps)/2+3)
	for i := 0; i < len(editableSteps); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(editableSteps[i].label, cbWizardField+string(editableSteps[i].step)),
		}
		if i+1 < len(editableSteps) {
			row = append(row,
				tgbotapi.NewInlineKeyboardButtonData(editableSteps[i+1].label, cbWizardField+string(editableSteps[i+1].step)))
		}
		rows = append(rows, row)
	}
	if w.Flow == flowUpdate {
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnBackToPreview, cbWizardPreview)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnSaveChanges, cbWizardSave)),
		)
	} else {
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnBackToPreview, cbWizardPreview)))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnCancel, cbWizardCancel)))

	msg := tgbotapi.MessageConfig{Text: MsgSelectEditField}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	session.replyWithMessage(msg)
}

// handleWizardCallback routes preview and edit-menu button presses.
func (b *Bot) handleWizardCallback(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	w := session.wizard
	if w == nil {
		session.reply(MsgNothingToCancel)
		return
	}

	data := query.Data
	switch {
	case data == cbWizardConfirm:
		b.publishProduct(ctx, session)
	case data == cbWizardSave:
		b.saveUpdate(ctx, session)
	case data == cbWizardEdit:
		b.sendEditMenu(session)
	case data == cbWizardPreview:
		b.sendPreview(ctx, session)
	case data == cbWizardCancel:
		b.cancelWizard(session)
	case strings.HasPrefix(data, cbWizardField):
		b.startFieldEdit(session, Step(strings.TrimPrefix(data, cbWizardField)))
	default:
		log.Warn().Str("data", data).Int64("userId", session.userID).Msg("unknown wizard callback")
	}
}

func (b *Bot) startFieldEdit(session *UserSession, step Step) {
	if _, ok := stepSpecs[step]; !ok {
		log.Warn().Str("step", string(step)).Msg("field edit requested for unknown step")
		return
	}
	w := session.wizard
	w.Step = step
	if w.Flow == flowCreate {
		w.FromEdit = true
	}
	// Re-collect from scratch for list-valued fields.
	if step == StepAdditionalImages {
		w.Draft.AdditionalImageIDs = nil
	}
	b.promptStep(session)
}

func (b *Bot) draftToProduct(w *WizardSession) *store.Product {
	return &store.Product{
		SellerID:           w.SellerID,
		Name:               w.Draft.Name,
		PrimaryImageID:     w.Draft.PrimaryImageID,
		AdditionalImageIDs: append([]string(nil), w.Draft.AdditionalImageIDs...),
		GeneralCategory:    w.Draft.GeneralCategory,
		SpecificCategory:   w.Draft.SpecificCategory,
		ShortDescription:   w.Draft.Description,
		Price:              w.Draft.captionFields().Price,
		Location:           w.Draft.Location,
		ContactPhone:       w.Draft.Phone,
	}
}

// productKeyboard is the single SHOP/view deep-link button broadcast
// messages carry.
func (b *Bot) productKeyboard(productID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(BtnShopView, b.cfg.ProductDeepLink(productID)),
		),
	)
}

// publishProduct persists the draft and broadcasts it to the channel and
// the group. The stored product only becomes reachable through /myproducts
// and deep links once the broadcast message IDs are recorded.
func (b *Bot) publishProduct(ctx context.Context, session *UserSession) {
	w := session.wizard

	product := b.draftToProduct(w)
	product.IsActive = true
	product.CreatedAt = time.Now()
	id, err := b.products.Insert(ctx, product)
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userID).Msg("failed to insert product")
		session.reply(MsgPostFailed)
		b.sendPreview(ctx, session)
		return
	}

	caption := buildCaption(w.Draft.captionFields())
	keyboard := b.productKeyboard(id.Hex())

	channelPost := tgbotapi.NewPhotoToChannel(b.cfg.ChannelUsername, tgbotapi.FileID(w.Draft.PrimaryImageID))
	channelPost.Caption = caption
	channelPost.ParseMode = tgbotapi.ModeMarkdownV2
	channelPost.ReplyMarkup = keyboard
	channelMsg, err := b.tg.Send(channelPost)
	if err != nil {
		log.Error().Err(err).Str("productId", id.Hex()).Msg("failed to post product to channel")
		session.reply(MsgPostFailed)
		b.sendPreview(ctx, session)
		return
	}

	groupPost := tgbotapi.NewPhoto(b.cfg.GroupID, tgbotapi.FileID(w.Draft.PrimaryImageID))
	groupPost.Caption = caption
	groupPost.ParseMode = tgbotapi.ModeMarkdownV2
	groupPost.ReplyMarkup = keyboard
	groupMsg, err := b.tg.Send(groupPost)
	if err != nil {
		log.Error().Err(err).Str("productId", id.Hex()).Msg("failed to post product to group")
		session.reply(MsgPostFailed)
		b.sendPreview(ctx, session)
		return
	}

	if err := b.products.SetBroadcastIDs(ctx, id, channelMsg.MessageID, groupMsg.MessageID); err != nil {
		log.Error().Err(err).Str("productId", id.Hex()).Msg("failed to record broadcast message ids")
		session.reply(MsgPostFailed)
		b.sendPreview(ctx, session)
		return
	}

	log.Info().
		Str("productId", id.Hex()).
		Int64("userId", session.userID).
		Int("channelMessageId", channelMsg.MessageID).
		Int("groupMessageId", groupMsg.MessageID).
		Msg("product published")

	session.wizard = nil
	session.replyAndRemoveCustomKeyboard(MsgPosted)
}

// saveUpdate persists the edited draft and rewrites both broadcast messages
// in place so channel and group always match the stored listing.
func (b *Bot) saveUpdate(ctx context.Context, session *UserSession) {
	w := session.wizard

	product := b.draftToProduct(w)
	if err := b.products.Update(ctx, w.ProductID, product); err != nil {
		log.Error().Err(err).Str("productId", w.ProductID.Hex()).Msg("failed to update product")
		session.reply(MsgUpdateFailed)
		b.sendEditMenu(session)
		return
	}

	caption := buildCaption(w.Draft.captionFields())
	keyboard := b.productKeyboard(w.ProductID.Hex())
	media := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(w.Draft.PrimaryImageID))
	media.Caption = caption
	media.ParseMode = tgbotapi.ModeMarkdownV2

	channelEdit := tgbotapi.EditMessageMediaConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChannelUsername: b.cfg.ChannelUsername,
			MessageID:       w.ChannelMessageID,
			ReplyMarkup:     &keyboard,
		},
		Media: media,
	}
	editFailed := false
	if _, err := b.tg.Request(channelEdit); err != nil {
		log.Error().Err(err).Str("productId", w.ProductID.Hex()).Msg("failed to edit channel broadcast")
		editFailed = true
	}

	groupEdit := tgbotapi.EditMessageMediaConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:      b.cfg.GroupID,
			MessageID:   w.GroupMessageID,
			ReplyMarkup: &keyboard,
		},
		Media: media,
	}
	if _, err := b.tg.Request(groupEdit); err != nil {
		log.Error().Err(err).Str("productId", w.ProductID.Hex()).Msg("failed to edit group broadcast")
		editFailed = true
	}

	// The stored record is already updated and stays that way; a failed
	// broadcast rewrite is reported and the edit menu kept so the user
	// can save again.
	if editFailed {
		session.reply(MsgUpdateFailed)
		b.sendEditMenu(session)
		return
	}

	log.Info().
		Str("productId", w.ProductID.Hex()).
		Int64("userId", session.userID).
		Msg("product updated")

	session.wizard = nil
	session.replyAndRemoveCustomKeyboard(MsgUpdated)
}
