package bot

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

func formatReplyText(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

func parseCommand(s string) (string, string) {
	command, args, _ := strings.Cut(s, " ")
	// Strip the @botname suffix commands carry in groups
	command, _, _ = strings.Cut(command, "@")
	return command, strings.TrimSpace(args)
}

// isCancelInput matches the /cancel command (case-insensitive) or the
// literal Cancel button label.
func isCancelInput(text string) bool {
	return strings.EqualFold(text, "/cancel") || text == BtnCancel
}

// isBackInput matches the Back button label, case-insensitively.
func isBackInput(text string) bool {
	return strings.EqualFold(text, BtnBack)
}

// isDoneInput matches the 'done' terminator for image collection.
func isDoneInput(text string) bool {
	return strings.EqualFold(text, BtnDone)
}
