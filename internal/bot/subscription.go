package bot

import (
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// isSubscribed reports whether the user is a member of the public channel.
// Selling is gated on membership so the marketplace audience and seller
// pool stay the same crowd.
func (b *Bot) isSubscribed(userID int64) (bool, error) {
	member, err := b.tg.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: b.cfg.ChannelUsername,
			UserID:             userID,
		},
	})
	if err != nil {
		// Telegram answers 400 for users it cannot associate with the
		// channel at all; treat that as not subscribed.
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 400 {
			return false, nil
		}
		return false, err
	}

	switch member.Status {
	case "member", "administrator", "creator":
		return true, nil
	default:
		return false, nil
	}
}

// requireSubscription checks channel membership and tells the user how to
// join when the check fails. Returns true when the caller may proceed.
func (b *Bot) requireSubscription(session *UserSession) bool {
	subscribed, err := b.isSubscribed(session.userID)
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userID).Msg("failed to check channel membership")
		session.reply(MsgUnexpectedErr)
		return false
	}
	if !subscribed {
		session.reply(MsgNotSubscribed, b.cfg.ChannelJoinURL())
		return false
	}
	return true
}
