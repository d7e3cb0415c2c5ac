package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// extractImageFileID resolves an inbound message to a photo file ID usable
// in sendPhoto and media groups. Compressed photos are used directly (the
// largest size Telegram provides). Uncompressed image documents cannot go
// into a photo media group, so they are re-uploaded as a photo through the
// relay channel and the resulting file ID is used instead.
//
// ok is false when the message carries no usable image.
func (b *Bot) extractImageFileID(ctx context.Context, message *tgbotapi.Message) (fileID string, ok bool, err error) {
	if len(message.Photo) > 0 {
		// Sizes are ordered smallest to largest; take the largest.
		return message.Photo[len(message.Photo)-1].FileID, true, nil
	}

	doc := message.Document
	if doc == nil || !strings.HasPrefix(doc.MimeType, "image/") {
		return "", false, nil
	}

	fileID, err = b.relayDocumentImage(ctx, doc)
	if err != nil {
		return "", false, err
	}
	return fileID, true, nil
}

// relayDocumentImage downloads an image document and re-uploads it as a
// compressed photo to the relay channel.
func (b *Bot) relayDocumentImage(ctx context.Context, doc *tgbotapi.Document) (string, error) {
	log.Info().
		Str("fileId", doc.FileID).
		Str("mimeType", doc.MimeType).
		Msg("relaying image document as photo")

	data, err := downloadFileID(b.tg.GetFileDirectURL, doc.FileID)
	if err != nil {
		return "", fmt.Errorf("failed to download image document: %w", err)
	}

	name := doc.FileName
	if name == "" {
		name = "image"
	}
	photo := tgbotapi.NewPhoto(b.cfg.RelayChatID, tgbotapi.FileBytes{
		Name:  name,
		Bytes: data,
	})
	sent, err := b.tg.Send(photo)
	if err != nil {
		return "", fmt.Errorf("failed to relay image: %w", err)
	}
	if len(sent.Photo) == 0 {
		return "", fmt.Errorf("relay reply carried no photo sizes")
	}
	return sent.Photo[len(sent.Photo)-1].FileID, nil
}
