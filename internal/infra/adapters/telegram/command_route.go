package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-video-access/internal/infra/logging"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start": r.handleStartCommand,
		"menu":  r.handleMenuCommand,
		"my":    r.handleMyCommand,

		// Admin only.
		"corp":    r.adminOnly(r.handleCorpCommand(true)),
		"uncorp":  r.adminOnly(r.handleCorpCommand(false)),
		"cp":      r.adminOnly(r.handleCopyCommand),
		"rmvideo": r.adminOnly(r.handleWithdrawCommand),
		"stats":   r.adminOnly(r.handleStatsCommand),
	}
}

func (r *RealTelegramBotAdapter) isAdmin(id int64) bool {
	_, ok := r.adminIDsMap[id]
	return ok
}

func (r *RealTelegramBotAdapter) adminOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if !r.isAdmin(message.From.ID) {
			logging.With(ctx, r.log).Warn().Str("command", commandName(message)).Msg("unauthorized admin command")
			return r.sendPlain(ctx, message.Chat.ID, "Команда доступна только администраторам.")
		}
		return next(ctx, message)
	}
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	rep, err := r.facade.HandleStart(ctx, message.From.ID)
	return r.respond(ctx, message.Chat.ID, rep, err)
}

func (r *RealTelegramBotAdapter) handleMenuCommand(ctx context.Context, message *tgbotapi.Message) error {
	rep, err := r.facade.HandleMenu(ctx, message.From.ID)
	return r.respond(ctx, message.Chat.ID, rep, err)
}

func (r *RealTelegramBotAdapter) handleMyCommand(ctx context.Context, message *tgbotapi.Message) error {
	rep, err := r.facade.HandleMyVideos(ctx, message.From.ID)
	return r.respond(ctx, message.Chat.ID, rep, err)
}

// handleCorpCommand handles "/corp <telegram id>" and "/uncorp <telegram id>".
func (r *RealTelegramBotAdapter) handleCorpCommand(privileged bool) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		text, err := r.facade.HandleCorporate(ctx, message.CommandArguments(), privileged)
		if err != nil {
			logging.With(ctx, r.log).Error().Err(err).Msg("corporate command failed")
			text = genericErrorText
		}
		return r.sendPlain(ctx, message.Chat.ID, text)
	}
}

// adminText sends the result of an admin facade call as a plain message.
func (r *RealTelegramBotAdapter) adminText(ctx context.Context, chatID int64, text string, err error) error {
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("admin command failed")
		text = genericErrorText
	}
	return r.sendPlain(ctx, chatID, text)
}

// handleCopyCommand answers a bare "/cp" with instructions. The video itself arrives with the command as its caption.
func (r *RealTelegramBotAdapter) handleCopyCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleCopyFile(ctx, "", "")
	return r.adminText(ctx, message.Chat.ID, text, err)
}

// handleVideoUpload handles a video captioned "/cp [lesson] [title]".
func (r *RealTelegramBotAdapter) handleVideoUpload(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleCopyFile(ctx, message.Video.FileID, copyCaptionArgs(message.Caption))
	return r.adminText(ctx, message.Chat.ID, text, err)
}

func (r *RealTelegramBotAdapter) handleWithdrawCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleWithdraw(ctx, message.CommandArguments())
	return r.adminText(ctx, message.Chat.ID, text, err)
}

func (r *RealTelegramBotAdapter) handleStatsCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleStats(ctx)
	return r.adminText(ctx, message.Chat.ID, text, err)
}

// isCopyCaption matches "/cp", "/cp@bot" and "/cp <args>".
func isCopyCaption(caption string) bool {
	head, _, _ := strings.Cut(strings.TrimSpace(caption), " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.EqualFold(head, "/cp")
}

func copyCaptionArgs(caption string) string {
	_, args, _ := strings.Cut(strings.TrimSpace(caption), " ")
	return strings.TrimSpace(args)
}

// commandName names the command of message, including captioned uploads.
func commandName(message *tgbotapi.Message) string {
	if cmd := message.Command(); cmd != "" {
		return cmd
	}
	if message.Video != nil {
		return "cp"
	}
	return ""
}
