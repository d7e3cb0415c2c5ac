package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `
	*How this bot works* 🛍

	/addproduct - post a new product for sale. The bot walks you through
	images, category, name, location, price and description, shows you a
	preview and then broadcasts your listing to the channel and group.

	/myproducts - list your active products. From there you can update a
	listing or mark it as sold.

	/cancel - abort the listing you are currently filling in.

	Buyers reach you through the phone number you share during listing.`

// handleHelp sends usage instructions with the channel and support links.
func (b *Bot) handleHelp(session *UserSession) {
	msg := tgbotapi.MessageConfig{
		Text:      formatReplyText(helpText),
		ParseMode: tgbotapi.ModeMarkdown,
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(BtnJoinChannel, b.cfg.ChannelJoinURL()),
			tgbotapi.NewInlineKeyboardButtonURL(BtnContactSupport, b.cfg.SupportURL),
		),
	)
	session.replyWithMessage(msg)
}
