package handlers

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/shoplistbot/internal/models"
	"github.com/Kerhoff/shoplistbot/internal/state"
)

// renderGroups renders the directory's visible set as a numbered list. The
// affordance per entry follows its membership tag: joined groups are
// openable, found groups are joinable.
func renderGroups(groups []models.Group) string {
	if len(groups) == 0 {
		return "📂 *No groups here yet.*\n\nCreate one with `/newgroup <name> <password>` or find one with `/search <name>`."
	}

	var sb strings.Builder
	sb.WriteString("📂 *Groups*\n\n")
	joinable := false
	for i, g := range groups {
		if g.Joined() {
			sb.WriteString(fmt.Sprintf("%d. 👥 %s — %d items, %d members\n",
				i+1, g.Name, len(g.Items), len(g.Members)))
		} else {
			joinable = true
			sb.WriteString(fmt.Sprintf("%d. 🔍 %s — not joined\n", i+1, g.Name))
		}
	}
	sb.WriteString("\n_Open one with_ `/open <number>`")
	if joinable {
		sb.WriteString("\n_Join one with_ `/join <number> <password>`")
	}
	return sb.String()
}

// renderDetail renders the open group: its items, its members and the
// group-level affordance (delete for the owner, leave for everyone else —
// never both).
func renderDetail(group models.Group, userID string) string {
	var sb strings.Builder
	isOwner := group.Owner.ID == userID

	sb.WriteString(fmt.Sprintf("📝 *%s*\n\n", group.Name))

	if len(group.Items) == 0 {
		sb.WriteString("_No items yet. Add one with_ `/add <name>`\n")
	} else {
		var bought int
		for i, item := range group.Items {
			if item.IsBought {
				bought++
				sb.WriteString(fmt.Sprintf("%d. ✅ ~%s~\n", i+1, item.Title))
			} else {
				sb.WriteString(fmt.Sprintf("%d. ⬜ %s\n", i+1, item.Title))
			}
		}
		sb.WriteString(fmt.Sprintf("_%d remaining, %d bought_\n", len(group.Items)-bought, bought))
	}

	sb.WriteString("\n👥 *Members*\n")
	for i, m := range group.Members {
		marker := ""
		if m.ID == group.Owner.ID {
			marker = " 👑"
		}
		if m.ID == userID {
			marker += " (you)"
		}
		sb.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, m.DisplayName(), marker))
	}

	if isOwner {
		sb.WriteString("\n_You own this group. /delgroup deletes it for everyone._")
	} else {
		sb.WriteString("\n_/leave exits this group._")
	}
	return sb.String()
}

// detailKeyboard builds per-entity inline buttons for the open group:
// toggle and delete per item, kick per member (never for yourself). A
// pending entity keeps its button, the view model rejects the duplicate.
func detailKeyboard(group models.Group, userID string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for i, item := range group.Items {
		toggleLabel := fmt.Sprintf("✅ buy %d", i+1)
		if item.IsBought {
			toggleLabel = fmt.Sprintf("↩️ undo %d", i+1)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggleLabel, "item:t:"+item.ID),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🗑 %d", i+1), "item:d:"+item.ID),
		))
	}

	var kicks []tgbotapi.InlineKeyboardButton
	for i, m := range group.Members {
		if m.ID == userID {
			continue
		}
		kicks = append(kicks, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("🚪 kick %d", i+1), "member:k:"+m.ID))
		if len(kicks) == 3 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(kicks...))
			kicks = nil
		}
	}
	if len(kicks) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(kicks...))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// sendDetailView sends a fresh rendering of the open group.
func sendDetailView(bot *tgbotapi.BotAPI, chatID int64, detail *state.Detail) error {
	group := detail.Group()
	msg := tgbotapi.NewMessage(chatID, renderDetail(group, detail.UserID()))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = detailKeyboard(group, detail.UserID())
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send group view: %w", err)
	}
	return nil
}

// editDetailView re-renders the open group in place of an existing message,
// used after a callback-button mutation succeeds.
func editDetailView(bot *tgbotapi.BotAPI, chatID int64, messageID int, detail *state.Detail) error {
	group := detail.Group()
	msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
		renderDetail(group, detail.UserID()),
		detailKeyboard(group, detail.UserID()))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to edit group view: %w", err)
	}
	return nil
}

// renderUsers renders a user search result as a numbered list for /invite.
func renderUsers(users []models.Member) string {
	if len(users) == 0 {
		return "🔎 *No users found.*"
	}
	var sb strings.Builder
	sb.WriteString("🔎 *Users*\n\n")
	for i, u := range users {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, u.DisplayName(), u.Name))
	}
	sb.WriteString("\n_Add one with_ `/invite <number>`")
	return sb.String()
}

// parseIndex turns a 1-based list reference into a slice index.
func parseIndex(arg string, length int) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > length {
		return 0, state.ErrUnknownEntry
	}
	return n - 1, nil
}
