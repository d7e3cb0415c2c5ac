package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zensof/telegram-shop-bot/internal/store"
	"github.com/zensof/telegram-shop-bot/internal/taxonomy"
)

// FlowKind tells a wizard apart: creating a new listing or updating a
// published one.
type FlowKind string

const (
	flowCreate FlowKind = "create"
	flowUpdate FlowKind = "update"
)

// Step identifies the wizard step currently waiting for input.
type Step string

const (
	StepPrimaryImage     Step = "primaryImage"
	StepAdditionalImages Step = "additionalImages"
	StepCategory         Step = "category"
	StepSubCategory      Step = "subCategory"
	StepName             Step = "name"
	StepLocation         Step = "location"
	StepPrice            Step = "price"
	StepDescription      Step = "description"
	StepPhone            Step = "phone"
	StepPreview          Step = "preview"
	StepEditMenu         Step = "editMenu"
)

const maxAdditionalImages = 3
const maxDescriptionWords = 50

// Draft accumulates the listing fields as the wizard progresses. All images
// are Telegram file IDs.
type Draft struct {
	PrimaryImageID     string
	AdditionalImageIDs []string
	GeneralCategory    string
	SpecificCategory   string
	Name               string
	Location           string
	Price              string
	Description        string
	Phone              string
}

// WizardSession is the state of one in-flight add/update flow. It lives on
// the UserSession and is only ever touched by that session's worker.
type WizardSession struct {
	Flow    FlowKind
	Step    Step
	History []Step
	Draft   Draft

	// FromEdit marks a single-field re-entry from the preview screen:
	// completing the step returns to the preview instead of advancing.
	FromEdit bool

	// Update-flow context, loaded from the product being edited.
	ProductID        primitive.ObjectID
	SellerID         primitive.ObjectID
	ChannelMessageID int
	GroupMessageID   int
}

type stepSpec struct {
	next      Step
	allowBack bool
	// chainsNext forces the next step even during a single-field edit.
	// Changing the category invalidates the sub-category, so both are
	// collected again.
	chainsNext bool
	clear      func(*Draft)
}

var stepSpecs = map[Step]stepSpec{
	StepPrimaryImage: {
		next:  StepAdditionalImages,
		clear: func(d *Draft) { d.PrimaryImageID = "" },
	},
	StepAdditionalImages: {
		next:      StepCategory,
		allowBack: true,
		clear:     func(d *Draft) { d.AdditionalImageIDs = nil },
	},
	StepCategory: {
		next:       StepSubCategory,
		allowBack:  true,
		chainsNext: true,
		clear:      func(d *Draft) { d.GeneralCategory = "" },
	},
	StepSubCategory: {
		next:      StepName,
		allowBack: true,
		clear:     func(d *Draft) { d.SpecificCategory = "" },
	},
	StepName: {
		next:      StepLocation,
		allowBack: true,
		clear:     func(d *Draft) { d.Name = "" },
	},
	StepLocation: {
		next:      StepPrice,
		allowBack: true,
		clear:     func(d *Draft) { d.Location = "" },
	},
	StepPrice: {
		next:      StepDescription,
		allowBack: true,
		clear:     func(d *Draft) { d.Price = "" },
	},
	StepDescription: {
		next:      StepPhone,
		allowBack: true,
		clear:     func(d *Draft) { d.Description = "" },
	},
	StepPhone: {
		next:      StepPreview,
		allowBack: true,
		clear:     func(d *Draft) { d.Phone = "" },
	},
}

func draftFromProduct(p *store.Product, phone string) Draft {
	return Draft{
		PrimaryImageID:     p.PrimaryImageID,
		AdditionalImageIDs: append([]string(nil), p.AdditionalImageIDs...),
		GeneralCategory:    p.GeneralCategory,
		SpecificCategory:   p.SpecificCategory,
		Name:               p.Name,
		Location:           p.Location,
		Price:              p.Price,
		Description:        p.ShortDescription,
		Phone:              phone,
	}
}

func (d Draft) captionFields() captionFields {
	price := d.Price
	if strings.TrimSpace(price) == "" {
		price = MsgCaptionNotSetTag
	}
	return captionFields{
		GeneralCategory:  d.GeneralCategory,
		SpecificCategory: d.SpecificCategory,
		Name:             d.Name,
		Description:      d.Description,
		Location:         d.Location,
		Price:            price,
	}
}

// =============================================================================
// Flow entry points
// =============================================================================

func (b *Bot) startCreateWizard(ctx context.Context, session *UserSession) {
	if session.wizard != nil {
		session.reply(MsgWizardInProgress)
		return
	}
	session.wizard = &WizardSession{
		Flow: flowCreate,
		Step: StepPrimaryImage,
	}
	log.Info().Int64("userId", session.userID).Msg("starting add product wizard")
	b.promptStep(session)
}

func (b *Bot) startUpdateWizard(ctx context.Context, session *UserSession, p *store.Product) {
	if session.wizard != nil {
		session.reply(MsgWizardInProgress)
		return
	}

	phone := p.ContactPhone
	if phone == "" {
		if seller, err := b.sellers.FindByID(ctx, p.SellerID); err == nil {
			phone = seller.Phone
		}
	}

	session.wizard = &WizardSession{
		Flow:             flowUpdate,
		Step:             StepEditMenu,
		Draft:            draftFromProduct(p, phone),
		ProductID:        p.ID,
		SellerID:         p.SellerID,
		ChannelMessageID: p.ChannelMessageID,
		GroupMessageID:   p.GroupMessageID,
	}
	log.Info().
		Int64("userId", session.userID).
		Str("productId", p.ID.Hex()).
		Msg("starting update product wizard")
	b.sendEditMenu(session)
}

func (b *Bot) cancelWizard(session *UserSession) {
	w := session.wizard
	if w == nil {
		session.reply(MsgNothingToCancel)
		return
	}
	session.wizard = nil
	if w.Flow == flowUpdate {
		session.replyAndRemoveCustomKeyboard(MsgUpdateCanceled)
	} else {
		session.replyAndRemoveCustomKeyboard(MsgListingCanceled)
	}
}

// =============================================================================
// Step routing
// =============================================================================

// handleWizardMessage routes an inbound message to the active step handler.
// Cancel and Back are intercepted before step-specific validation.
func (b *Bot) handleWizardMessage(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	w := session.wizard
	text := strings.TrimSpace(message.Text)

	if isCancelInput(text) {
		b.cancelWizard(session)
		return
	}
	if isBackInput(text) {
		b.goBack(session)
		return
	}

	switch w.Step {
	case StepPrimaryImage:
		b.handlePrimaryImageStep(ctx, session, message)
	case StepAdditionalImages:
		b.handleAdditionalImagesStep(ctx, session, message, text)
	case StepCategory:
		b.handleCategoryStep(session, text)
	case StepSubCategory:
		b.handleSubCategoryStep(session, text)
	case StepName:
		b.handleNameStep(session, text)
	case StepLocation:
		b.handleLocationStep(session, text)
	case StepPrice:
		b.handlePriceStep(session, text)
	case StepDescription:
		b.handleDescriptionStep(session, text)
	case StepPhone:
		b.handlePhoneStep(ctx, session, message)
	case StepPreview, StepEditMenu:
		// These steps are driven by inline buttons only.
		session.reply(MsgUseButtons)
	default:
		log.Error().
			Int64("userId", session.userID).
			Str("step", string(w.Step)).
			Msg("message received on unknown wizard step")
		session.reply(MsgUnexpectedErr)
	}
}

// advance records the completed step and moves to the next one. Single-field
// edits return to the screen they came from instead, unless the step chains
// into another.
func (b *Bot) advance(ctx context.Context, session *UserSession) {
	w := session.wizard
	spec := stepSpecs[w.Step]

	if (w.FromEdit || w.Flow == flowUpdate) && !spec.chainsNext {
		w.FromEdit = false
		w.History = nil
		if w.Flow == flowUpdate {
			w.Step = StepEditMenu
			b.sendEditMenu(session)
		} else {
			w.Step = StepPreview
			b.sendPreview(ctx, session)
		}
		return
	}

	if !w.FromEdit && w.Flow == flowCreate {
		w.History = append(w.History, w.Step)
	}
	w.Step = spec.next
	if w.Step == StepPreview {
		b.sendPreview(ctx, session)
		return
	}
	b.promptStep(session)
}

// goBack returns to the previous step. The current step's value and the
// value collected at the step being returned to are both discarded so the
// user re-enters them.
func (b *Bot) goBack(session *UserSession) {
	w := session.wizard
	spec := stepSpecs[w.Step]
	if !spec.allowBack {
		b.promptStep(session)
		return
	}
	// A single-field edit backs out to the screen it came from, keeping
	// the value it was about to replace.
	if w.FromEdit || w.Flow == flowUpdate {
		w.FromEdit = false
		if w.Flow == flowUpdate {
			w.Step = StepEditMenu
			b.sendEditMenu(session)
		} else {
			w.Step = StepPreview
			b.sendPreview(context.Background(), session)
		}
		return
	}

	if len(w.History) == 0 {
		b.promptStep(session)
		return
	}
	if spec.clear != nil {
		spec.clear(&w.Draft)
	}
	prev := w.History[len(w.History)-1]
	w.History = w.History[:len(w.History)-1]
	if prevSpec := stepSpecs[prev]; prevSpec.clear != nil {
		prevSpec.clear(&w.Draft)
	}
	w.Step = prev
	b.promptStep(session)
}

// =============================================================================
// Step prompts
// =============================================================================

func navRow(w *WizardSession) []tgbotapi.KeyboardButton {
	spec := stepSpecs[w.Step]
	canBack := spec.allowBack && (len(w.History) > 0 || w.FromEdit || w.Flow == flowUpdate)
	if canBack {
		return tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnBack),
			tgbotapi.NewKeyboardButton(BtnCancel),
		)
	}
	return tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnCancel))
}

func labelKeyboard(w *WizardSession, labels []string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(labels)/2+2)
	for i := 0; i < len(labels); i += 2 {
		row := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(labels[i])}
		if i+1 < len(labels) {
			row = append(row, tgbotapi.NewKeyboardButton(labels[i+1]))
		}
		rows = append(rows, row)
	}
	rows = append(rows, navRow(w))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	return kb
}

func (b *Bot) promptStep(session *UserSession) {
	w := session.wizard
	msg := tgbotapi.MessageConfig{ParseMode: tgbotapi.ModeMarkdown}

	switch w.Step {
	case StepPrimaryImage:
		if w.FromEdit || w.Flow == flowUpdate {
			msg.Text = MsgPromptNewPrimaryImage
		} else {
			msg.Text = MsgPromptPrimaryImage
		}
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(navRow(w))
	case StepAdditionalImages:
		msg.Text = MsgPromptAdditionalImages
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnDone)),
			navRow(w),
		)
	case StepCategory:
		msg.Text = MsgPromptCategory
		msg.ReplyMarkup = labelKeyboard(w, taxonomy.Categories())
	case StepSubCategory:
		msg.Text = fmt.Sprintf(MsgPromptSubCategory, w.Draft.GeneralCategory)
		msg.ReplyMarkup = labelKeyboard(w, taxonomy.SubCategories(w.Draft.GeneralCategory))
	case StepName:
		msg.Text = MsgPromptName
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(navRow(w))
	case StepLocation:
		msg.Text = MsgPromptLocation
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(navRow(w))
	case StepPrice:
		msg.Text = MsgPromptPrice
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(navRow(w))
	case StepDescription:
		msg.Text = MsgPromptDescription
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(navRow(w))
	case StepPhone:
		msg.Text = MsgPromptPhone
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(BtnShareContact)),
			navRow(w),
		)
	default:
		log.Error().Str("step", string(w.Step)).Msg("no prompt for wizard step")
		return
	}

	session.replyWithMessage(msg)
}

// =============================================================================
// Step handlers
// =============================================================================

func (b *Bot) handlePrimaryImageStep(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	fileID, ok, err := b.extractImageFileID(ctx, message)
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userID).Msg("failed to process primary image")
		session.reply(MsgImageFailed)
		return
	}
	if !ok {
		session.reply(MsgInvalidImage)
		return
	}
	session.wizard.Draft.PrimaryImageID = fileID
	b.advance(ctx, session)
}

func (b *Bot) handleAdditionalImagesStep(ctx context.Context, session *UserSession, message *tgbotapi.Message, text string) {
	w := session.wizard
	if isDoneInput(text) {
		b.advance(ctx, session)
		return
	}

	fileID, ok, err := b.extractImageFileID(ctx, message)
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userID).Msg("failed to process additional image")
		session.reply(MsgImageFailed)
		return
	}
	if !ok {
		session.reply(MsgInvalidImageOrDone)
		return
	}

	w.Draft.AdditionalImageIDs = append(w.Draft.AdditionalImageIDs, fileID)
	if len(w.Draft.AdditionalImageIDs) >= maxAdditionalImages {
		b.advance(ctx, session)
		return
	}
	session.reply(MsgAdditionalImageAdded, len(w.Draft.AdditionalImageIDs))
}

func (b *Bot) handleCategoryStep(session *UserSession, text string) {
	if !taxonomy.IsCategory(text) {
		session.reply(MsgInvalidCategory)
		return
	}
	w := session.wizard
	w.Draft.GeneralCategory = text
	// The sub-category depends on the category, so it is always collected
	// right after, even on a single-field edit.
	b.advance(context.Background(), session)
}

func (b *Bot) handleSubCategoryStep(session *UserSession, text string) {
	w := session.wizard
	if !taxonomy.IsSubCategory(w.Draft.GeneralCategory, text) {
		session.reply(MsgInvalidSubCategory)
		return
	}
	w.Draft.SpecificCategory = taxonomy.Hashtag(text)
	b.advance(context.Background(), session)
}

func (b *Bot) handleNameStep(session *UserSession, text string) {
	if text == "" {
		session.reply(MsgEmptyName)
		return
	}
	session.wizard.Draft.Name = text
	b.advance(context.Background(), session)
}

func (b *Bot) handleLocationStep(session *UserSession, text string) {
	if text == "" {
		session.reply(MsgEmptyLocation)
		return
	}
	session.wizard.Draft.Location = text
	b.advance(context.Background(), session)
}

var numericPriceRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// normalizePrice validates price input. Blank input falls back to the
// not-set tag, numeric input must be greater than zero, and anything else
// is kept verbatim as a free-text tag such as "Negotiable".
func normalizePrice(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return MsgCaptionNotSetTag, true
	}
	if numericPriceRe.MatchString(text) {
		value, err := strconv.ParseFloat(text, 64)
		if err != nil || value <= 0 {
			return "", false
		}
		return text, true
	}
	return text, true
}

func (b *Bot) handlePriceStep(session *UserSession, text string) {
	price, ok := normalizePrice(text)
	if !ok {
		session.reply(MsgInvalidPrice)
		return
	}
	session.wizard.Draft.Price = price
	b.advance(context.Background(), session)
}

func (b *Bot) handleDescriptionStep(session *UserSession, text string) {
	words := len(strings.Fields(text))
	if words < 1 || words > maxDescriptionWords {
		session.reply(MsgInvalidDescription)
		return
	}
	session.wizard.Draft.Description = text
	b.advance(context.Background(), session)
}

func (b *Bot) handlePhoneStep(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	if message.Contact == nil || message.Contact.PhoneNumber == "" {
		session.reply(MsgShareContact)
		return
	}
	w := session.wizard
	w.Draft.Phone = message.Contact.PhoneNumber

	seller := &store.Seller{
		TelegramID: session.userID,
		Phone:      w.Draft.Phone,
		CreatedAt:  time.Now(),
	}
	if message.From != nil {
		seller.Username = message.From.UserName
		seller.FirstName = message.From.FirstName
	}
	sellerID, err := b.sellers.Upsert(ctx, seller)
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userID).Msg("failed to upsert seller")
		session.reply(MsgPhoneSaveFailed)
		return
	}
	w.SellerID = sellerID
	b.advance(ctx, session)
}
