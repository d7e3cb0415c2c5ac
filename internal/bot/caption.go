package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zensof/telegram-shop-bot/internal/store"
	"github.com/zensof/telegram-shop-bot/internal/taxonomy"
)

// captionDisplayWords caps how much of the description a broadcast caption shows.
const captionDisplayWords = 15

// escapeMarkdownV2 escapes the full MarkdownV2 special-character set. Every
// user-supplied value must pass through here before it is inserted into a
// caption or formatted message.
func escapeMarkdownV2(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, text)
}

// limitWords truncates text to max non-blank words, appending "..." when
// something was cut.
func limitWords(text string, max int) string {
	words := strings.Split(text, " ")
	count := 0
	var out []string
	for _, w := range words {
		if strings.TrimSpace(w) != "" {
			count++
		}
		out = append(out, w)
		if count >= max {
			out = append(out, "...")
			break
		}
	}
	return strings.Join(out, " ")
}

// captionFields is the value set a broadcast caption is rendered from.
// Both wizard drafts and stored products convert to it.
type captionFields struct {
	GeneralCategory  string
	SpecificCategory string
	Name             string
	Description      string
	Location         string
	Price            string
}

func productCaptionFields(p *store.Product) captionFields {
	return captionFields{
		GeneralCategory:  p.GeneralCategory,
		SpecificCategory: p.SpecificCategory,
		Name:             p.Name,
		Description:      p.ShortDescription,
		Location:         p.Location,
		Price:            p.Price,
	}
}

// buildCaption renders the MarkdownV2 caption used for previews, broadcasts
// and deep-link product views.
func buildCaption(f captionFields) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛒 \\#%s \\>\\> %s\n",
		escapeMarkdownV2(taxonomy.CategoryWord(f.GeneralCategory)),
		escapeMarkdownV2(f.SpecificCategory))
	fmt.Fprintf(&b, "*%s*\n\n", escapeMarkdownV2(f.Name))
	fmt.Fprintf(&b, "📝_%s_\n_%s_\n\n",
		escapeMarkdownV2(MsgDescriptionLabel),
		escapeMarkdownV2(limitWords(f.Description, captionDisplayWords)))
	b.WriteString(MsgCaptionSeparator + "\n")
	fmt.Fprintf(&b, "📍 Location: *%s*\n", escapeMarkdownV2(f.Location))
	fmt.Fprintf(&b, "💰 Price: *%s*", escapeMarkdownV2(f.Price))
	return b.String()
}

// buildListCaption renders the short caption for a /myproducts entry.
func buildListCaption(p *store.Product) string {
	return fmt.Sprintf("🛍 *%s*\n💰 %s\n📍 %s \\> %s\n📝 %s",
		escapeMarkdownV2(p.Name),
		escapeMarkdownV2(p.Price),
		escapeMarkdownV2(p.GeneralCategory),
		escapeMarkdownV2(p.SpecificCategory),
		escapeMarkdownV2(p.ShortDescription))
}

// buildSoldOutCaption renders the caption both broadcast messages are
// rewritten to when a product is marked sold.
func buildSoldOutCaption(p *store.Product) string {
	return fmt.Sprintf("🛍 *%s* \\(Sold Out\\)\n💰 %s\n📍 %s \\> %s\n📝 %s\n%s",
		escapeMarkdownV2(p.Name),
		escapeMarkdownV2(p.Price),
		escapeMarkdownV2(p.GeneralCategory),
		escapeMarkdownV2(p.SpecificCategory),
		escapeMarkdownV2(p.ShortDescription),
		escapeMarkdownV2(MsgSoldOutSuffix))
}
