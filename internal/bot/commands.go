package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// RegisterCommands publishes the command menu shown in the Telegram client.
func RegisterCommands(tg BotAPI) error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start the bot"},
		tgbotapi.BotCommand{Command: "addproduct", Description: "Post a product for sale"},
		tgbotapi.BotCommand{Command: "myproducts", Description: "Manage your active products"},
		tgbotapi.BotCommand{Command: "help", Description: "How to use the bot"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Cancel the current listing"},
	)
	if _, err := tg.Request(cfg); err != nil {
		return fmt.Errorf("failed to register bot commands: %w", err)
	}
	return nil
}
