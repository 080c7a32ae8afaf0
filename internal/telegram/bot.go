package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"recipe-catalog/internal/app"
	"recipe-catalog/internal/config"
	"recipe-catalog/internal/mealplan"
	"recipe-catalog/internal/recipe"
	"recipe-catalog/internal/session"
	"recipe-catalog/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// WebhookPath is where Telegram posts updates.
const WebhookPath = "/webhook"

// Sender is the part of the Telegram API the bot uses to reply.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot serves the catalog over Telegram. Every chat has its own session.
type Bot struct {
	sender  Sender
	app     *app.App
	allowed map[int64]bool
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	slog.Info("Authorized on telegram", "account", api.Self.UserName)

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		slog.Info("Webhook set", "response", resp.Description)
	}

	return newBot(api, a, cfg.TelegramAllowedUserIDs), nil
}

func newBot(sender Sender, a *app.App, allowedIDs []int64) *Bot {
	allowed := make(map[int64]bool, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = true
	}
	return &Bot{sender: sender, app: a, allowed: allowed}
}

// WebhookHandler returns the handler for Telegram updates.
func (b *Bot) WebhookHandler() http.Handler {
	return http.HandlerFunc(b.handleWebhook)
}

// RegisterHandlers registers the webhook handler on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("POST "+WebhookPath, b.WebhookHandler())
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		slog.Warn("Error parsing update", "error", err)
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	if !b.allowed[msg.From.ID] {
		slog.Warn("Unauthorized access attempt", "user_id", msg.From.ID, "username", msg.From.UserName)
		return
	}

	go b.processMessage(msg)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	text := b.reply(ctx, msg.Chat.ID, msg.Text)
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.sender.Send(out); err != nil {
		slog.Error("Failed to send reply", "chat", msg.Chat.ID, "error", err)
	}
}

// reply runs one command against the chat's session and returns the answer.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) string {
	id := "tg-" + strconv.FormatInt(chatID, 10)
	if _, err := b.app.EnsureSession(ctx, id); err != nil {
		return errorText(err)
	}

	cmd, args := parseCommand(text)
	var filter recipe.Filter
	var err error

	switch cmd {
	case "home", "favorites":
		_, err = b.app.SetTab(ctx, id, cmd)
	case "recipes":
		filter.Query = strings.Join(args, " ")
		_, err = b.app.SetTab(ctx, id, cmd)
	case "planner":
		if len(args) > 0 {
			_, err = b.app.SelectDate(ctx, id, args[0])
		}
		if err == nil {
			_, err = b.app.SetTab(ctx, id, cmd)
		}
	case "login":
		if len(args) != 2 {
			return "Usage: /login <email> <password>"
		}
		var s session.Session
		s, err = b.app.Login(ctx, id, session.Credentials{Email: args[0], Password: args[1]})
		if err == nil {
			return fmt.Sprintf("👋 Logged in as %s", escape(s.DisplayName()))
		}
	case "logout":
		_, err = b.app.Logout(ctx, id)
		if err == nil {
			return "Logged out."
		}
	case "add", "remove":
		edit, ok := parseEdit(args)
		if !ok {
			return fmt.Sprintf("Usage: /%s <YYYY-MM-DD> <breakfast|lunch|dinner> <recipe id>", cmd)
		}
		if cmd == "add" {
			_, err = b.app.AddToSlot(ctx, id, edit)
		} else {
			_, err = b.app.RemoveFromSlot(ctx, id, edit)
		}
		if err == nil {
			_, err = b.app.SelectDate(ctx, id, edit.Day)
		}
		if err == nil {
			_, err = b.app.SetTab(ctx, id, string(session.TabPlanner))
		}
	default:
		return helpText
	}
	if err != nil {
		return errorText(err)
	}

	res, _, err := b.app.View(ctx, id, filter)
	if err != nil {
		return errorText(err)
	}
	return formatViewMarkdown(res)
}

const helpText = `*Recipe Catalog*

/home - popular recipes
/recipes [search] - all recipes
/planner [YYYY-MM-DD] - meal plan for a day
/favorites - favorite recipes
/login <email> <password>
/logout
/add <date> <meal> <recipe id>
/remove <date> <meal> <recipe id>`

// parseCommand splits "/cmd@bot arg1 arg2" into "cmd" and its arguments.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), fields[1:]
}

func parseEdit(args []string) (app.SlotEdit, bool) {
	if len(args) != 3 {
		return app.SlotEdit{}, false
	}
	id, err := strconv.Atoi(args[2])
	if err != nil {
		return app.SlotEdit{}, false
	}
	return app.SlotEdit{Day: args[0], Meal: args[1], RecipeID: id}, true
}

func errorText(err error) string {
	var verr *session.ValidationError
	switch {
	case errors.As(err, &verr):
		return "⚠️ " + escape(verr.Message)
	case errors.Is(err, mealplan.ErrPermissionDenied):
		return "🔒 Log in to change the meal plan: /login <email> <password>"
	case errors.Is(err, recipe.ErrNotFound):
		return "⚠️ No recipe with that id."
	case errors.Is(err, mealplan.ErrUnknownMealTime):
		return "⚠️ Meal must be breakfast, lunch or dinner."
	case errors.Is(err, mealplan.ErrInvalidDay):
		return "⚠️ Dates look like 2024-01-31."
	}
	slog.Error("Telegram command failed", "error", err)
	return "❌ Something went wrong, please try again."
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// formatViewMarkdown renders a view as a Telegram Markdown message.
func formatViewMarkdown(res view.Result) string {
	var sb strings.Builder

	switch res.Tab {
	case session.TabRecipes:
		sb.WriteString("📖 *Recipes*\n")
		if q := strings.TrimSpace(res.Filter.Query); q != "" {
			sb.WriteString(fmt.Sprintf("_Search: %s_\n", escape(q)))
		}
	case session.TabPlanner:
		sb.WriteString(fmt.Sprintf("📅 *Meal plan for %s*\n", res.SelectedDate))
		for _, slot := range res.Slots {
			sb.WriteString(fmt.Sprintf("\n*%s*\n", slot.Meal))
			if len(slot.Cards) == 0 {
				sb.WriteString("_nothing planned_\n")
			}
			for _, c := range slot.Cards {
				sb.WriteString(fmt.Sprintf("• %s (#%d)\n", escape(c.Title), c.ID))
			}
		}
		if !res.CanEdit {
			sb.WriteString("\n_Log in to plan meals._")
		}
		return sb.String()
	case session.TabFavorites:
		sb.WriteString("⭐ *Favorites*\n")
		if res.State == view.StateLoginRequired {
			sb.WriteString("\n🔒 Log in to see your favorite recipes.")
			return sb.String()
		}
	default:
		sb.WriteString("🏠 *Popular recipes*\n")
	}

	if res.State == view.StateEmpty {
		sb.WriteString("\n_No recipes found._")
		return sb.String()
	}
	for _, c := range res.Cards {
		sb.WriteString(fmt.Sprintf("\n• *%s* (#%d)\n", escape(c.Title), c.ID))
		sb.WriteString(fmt.Sprintf("  %s · %s", escape(c.CookTime), escape(string(c.Difficulty))))
		if c.Category != "" {
			sb.WriteString(" · " + escape(c.Category))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
