// Package handler wires Telegram updates to the settings store and the
// deletion scheduler.
package handler

import (
	"context"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-autodelete/internal/logger"
	"tg-autodelete/internal/scheduler"
	"tg-autodelete/internal/service"
)

// BotAPI is the outbound messaging surface, satisfied by *telego.Bot.
type BotAPI interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Handler dispatches inbound updates to the bot's commands and the
// deletion scheduler.
type Handler struct {
	api      BotAPI
	store    *service.SettingsStore
	auth     *service.AdminAuthorizer
	sched    *scheduler.Scheduler
	commands map[string]func(ctx context.Context, message telego.Message) error
}

func New(api BotAPI, store *service.SettingsStore, auth *service.AdminAuthorizer, sched *scheduler.Scheduler) *Handler {
	h := &Handler{
		api:   api,
		store: store,
		auth:  auth,
		sched: sched,
	}
	// explicit dispatch table, one entry per supported command
	h.commands = map[string]func(ctx context.Context, message telego.Message) error{
		"start":    h.handleStart,
		"help":     h.handleHelp,
		"set_time": h.handleSetTime,
		"settings": h.handleSettings,
	}
	return h
}

// Register attaches the handler to the bot's update stream.
func (h *Handler) Register(bh *th.BotHandler) {
	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		if name, ok := commandName(message.Text); ok {
			if fn, found := h.commands[name]; found {
				return fn(ctx.Context(), message)
			}
		}
		return h.handleGroupMessage(ctx.Context(), message)
	})

	bh.Handle(func(ctx *th.Context, update telego.Update) error {
		return h.handleMyChatMember(ctx.Context(), update)
	}, th.AnyMyChatMember())
}

// handleGroupMessage schedules auto-deletion for a qualifying group message.
func (h *Handler) handleGroupMessage(ctx context.Context, message telego.Message) error {
	// Skip service messages and bot senders
	if message.From == nil || message.From.IsBot {
		return nil
	}
	if len(message.NewChatMembers) > 0 || message.LeftChatMember != nil {
		return nil
	}
	if !isGroupChat(message.Chat) {
		return nil
	}

	h.sched.OnMessage(message.Chat.ID, message.MessageID, time.Unix(message.Date, 0))
	return nil
}

// handleMyChatMember creates the default setting when the bot is added to a
// group.
func (h *Handler) handleMyChatMember(ctx context.Context, update telego.Update) error {
	if update.MyChatMember == nil {
		return nil
	}
	chat := update.MyChatMember.Chat
	if !isGroupChat(chat) {
		return nil
	}

	switch update.MyChatMember.NewChatMember.MemberStatus() {
	case telego.MemberStatusMember, telego.MemberStatusAdministrator:
		logger.Infof("Bot added to group %d (%s)", chat.ID, chat.Title)
		if err := h.store.EnsureDefault(chat.ID); err != nil {
			logger.Warningf("Error creating default setting for group %d: %v", chat.ID, err)
		}
	}
	return nil
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) error {
	_, err := h.api.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: "HTML",
	})
	return err
}

func isGroupChat(chat telego.Chat) bool {
	return chat.Type == telego.ChatTypeGroup || chat.Type == telego.ChatTypeSupergroup
}

// commandName extracts the command from a message like "/set_time 45" or
// "/set_time@SomeBot 45".
func commandName(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", false
	}
	return name, true
}

func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}
