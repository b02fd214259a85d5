package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/mymmrac/telego"

	"tg-autodelete/internal/logger"
	"tg-autodelete/internal/service"
	"tg-autodelete/internal/timespec"
)

const helpText = `<b>Auto-delete bot</b>

I delete group messages automatically after a configurable delay.

Add me to your group as an admin with delete permission, then:
/set_time &lt;time&gt; - set the delay, e.g. <code>45</code>, <code>10m</code>, <code>2h</code>, <code>1d</code> (30s to 1w)
/set_time off - disable auto-delete
/settings - show the current delay`

// handleStart greets a user in private chat with usage instructions.
func (h *Handler) handleStart(ctx context.Context, message telego.Message) error {
	if message.Chat.Type != telego.ChatTypePrivate {
		return nil
	}
	return h.reply(ctx, message.Chat.ID, helpText)
}

func (h *Handler) handleHelp(ctx context.Context, message telego.Message) error {
	return h.reply(ctx, message.Chat.ID, helpText)
}

// handleSetTime processes /set_time: parse, authorize, persist, confirm.
func (h *Handler) handleSetTime(ctx context.Context, message telego.Message) error {
	if !isGroupChat(message.Chat) {
		return h.reply(ctx, message.Chat.ID, "This command can only be used in groups.")
	}
	if message.From == nil {
		return nil
	}

	args := commandArgs(message.Text)
	if len(args) != 1 {
		return h.reply(ctx, message.Chat.ID, "Usage: /set_time &lt;time&gt;, e.g. <code>45</code>, <code>10m</code>, <code>2h</code>, or <code>off</code>.")
	}

	// "off" and "0" are the explicit disable forms; everything else goes
	// through the parser, which rejects values outside 30s..1w.
	var delay time.Duration
	if args[0] != "off" && args[0] != "0" {
		parsed, err := timespec.Parse(args[0])
		if err != nil {
			return h.reply(ctx, message.Chat.ID,
				fmt.Sprintf("Invalid time %q. Use a number with an optional unit (s, m, h, d, w) between %s and %s.",
					args[0], timespec.Format(timespec.MinDeleteAfter), timespec.Format(timespec.MaxDeleteAfter)))
		}
		delay = parsed
	}

	switch h.auth.IsAdmin(ctx, message.Chat.ID, message.From.ID) {
	case service.VerdictNotAdmin:
		return h.reply(ctx, message.Chat.ID, "Only group admins can change the auto-delete time.")
	case service.VerdictUnknown:
		return h.reply(ctx, message.Chat.ID, "Could not verify your admin rights, please try again.")
	}

	if err := h.store.Set(message.Chat.ID, delay); err != nil {
		logger.Warningf("Error saving setting for group %d: %v", message.Chat.ID, err)
		return h.reply(ctx, message.Chat.ID, "Failed to save the setting, please try again later.")
	}

	if delay == 0 {
		return h.reply(ctx, message.Chat.ID, "Auto-delete is now off for this group.")
	}
	return h.reply(ctx, message.Chat.ID,
		fmt.Sprintf("Messages in this group will be deleted after %s.", timespec.Format(delay)))
}

// handleSettings shows the group's current auto-delete delay.
func (h *Handler) handleSettings(ctx context.Context, message telego.Message) error {
	if !isGroupChat(message.Chat) {
		return h.reply(ctx, message.Chat.ID, "This command can only be used in groups.")
	}

	delay := h.store.Get(message.Chat.ID)
	if delay == 0 {
		return h.reply(ctx, message.Chat.ID, "Auto-delete is off for this group.")
	}
	return h.reply(ctx, message.Chat.ID,
		fmt.Sprintf("Messages in this group are deleted after %s.", timespec.Format(delay)))
}
