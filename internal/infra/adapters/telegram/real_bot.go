package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-video-access/internal/application"
	"telegram-video-access/internal/config"
	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/ports/adapter"
	"telegram-video-access/internal/domain/ports/repository"
	"telegram-video-access/internal/infra/logging"
	"telegram-video-access/internal/infra/metrics"
	"telegram-video-access/internal/infra/worker"
)

var _ adapter.ChatTransport = (*RealTelegramBotAdapter)(nil)

// Per-user update budget.
const (
	updateLimit  = 30
	updateWindow = time.Minute
)

const genericErrorText = "Произошла ошибка. Попробуйте позже."

// botAPI is the part of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// RealTelegramBotAdapter polls updates, routes them to BotFacade and implements adapter.ChatTransport.
type RealTelegramBotAdapter struct {
	bot         botAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	chats       repository.ChatStateRepository // optional
	rateLimiter adapter.RateLimiter            // optional

	adminIDsMap   map[int64]struct{}
	updateWorkers int
	cancelPolling context.CancelFunc
	log           *zerolog.Logger
}

func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	facade *application.BotFacade,
	chats repository.ChatStateRepository,
	rateLimiter adapter.RateLimiter,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return newAdapter(bot, cfg, facade, chats, rateLimiter, logger), nil
}

func newAdapter(
	bot botAPI,
	cfg *config.BotConfig,
	facade *application.BotFacade,
	chats repository.ChatStateRepository,
	rateLimiter adapter.RateLimiter,
	logger *zerolog.Logger,
) *RealTelegramBotAdapter {
	adminMap := map[int64]struct{}{}
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	l := logger.With().Str("component", "TelegramBot").Logger()
	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		facade:        facade,
		chats:         chats,
		rateLimiter:   rateLimiter,
		adminIDsMap:   adminMap,
		updateWorkers: workers,
		log:           &l,
	}
}

// SetFacade attaches the facade after construction. The ledger needs the transport
// before the facade can be built.
func (r *RealTelegramBotAdapter) SetFacade(f *application.BotFacade) { r.facade = f }

// StartPolling blocks until ctx is cancelled or StopPolling is called.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	if r.facade == nil {
		return errors.New("bot facade is nil")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)
	defer r.bot.StopReceivingUpdates()

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel
	defer cancel()

	pool := worker.NewPool("telegram_updates", r.updateWorkers, r.log)
	// Handlers finish their current update even after polling stops.
	pool.Start(context.WithoutCancel(ctx))
	defer pool.Stop()

	r.log.Info().Int("workers", r.updateWorkers).Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("telegram polling stopped")
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if err := pool.Submit(ctx, func(ctx context.Context) error { return r.handleUpdate(ctx, up) }); err != nil {
				return ctx.Err()
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	ctx = logging.WithTraceID(ctx, uuid.NewString())

	// ----- Inline button callbacks -----
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}

	// ----- Regular messages -----
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		metrics.IncTelegramUpdate("ignored")
		return nil
	}
	ctx = logging.WithChatID(logging.WithUserID(ctx, msg.From.ID), msg.Chat.ID)

	if msg.Video != nil && isCopyCaption(msg.Caption) {
		metrics.IncTelegramUpdate("video_upload")
		return r.adminOnly(r.handleVideoUpload)(ctx, msg)
	}
	if !msg.IsCommand() {
		metrics.IncTelegramUpdate("text")
		return r.reply(ctx, msg.Chat.ID, r.menuReply(ctx, msg.From.ID))
	}
	if r.limited(ctx, msg.From.ID, "command") {
		return r.sendPlain(ctx, msg.Chat.ID, "Слишком много запросов. Попробуйте через минуту.")
	}

	cmd := strings.ToLower(msg.Command())
	handler, ok := r.commandRoutes()[cmd]
	if !ok {
		metrics.IncTelegramUpdate("unknown_command")
		return r.reply(ctx, msg.Chat.ID, r.menuReply(ctx, msg.From.ID))
	}
	metrics.IncTelegramUpdate("cmd_" + cmd)
	return handler(ctx, msg)
}

func (r *RealTelegramBotAdapter) limited(ctx context.Context, userID int64, action string) bool {
	if r.rateLimiter == nil {
		return false
	}
	ok, err := r.rateLimiter.Allow(ctx, adapter.RateLimitKey(userID, action), updateLimit, updateWindow)
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		return false
	}
	if !ok {
		metrics.IncRateLimitTriggered(action)
	}
	return !ok
}

// respond turns a facade result into a chat reply.
func (r *RealTelegramBotAdapter) respond(ctx context.Context, chatID int64, rep application.Reply, err error) error {
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("handler failed")
		return r.reply(ctx, chatID, application.Reply{Text: genericErrorText})
	}
	if rep.Text == "" && len(rep.Rows) == 0 {
		return nil
	}
	return r.reply(ctx, chatID, rep)
}

func (r *RealTelegramBotAdapter) menuReply(ctx context.Context, userID int64) application.Reply {
	rep, err := r.facade.HandleMenu(ctx, userID)
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("menu failed")
		return application.Reply{Text: genericErrorText}
	}
	return rep
}

// reply sends rep and removes the previous bot message of the chat, so only one menu is visible.
func (r *RealTelegramBotAdapter) reply(ctx context.Context, chatID int64, rep application.Reply) error {
	msgID, err := r.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: rep.Text, Rows: rep.Rows})
	if err != nil {
		return err
	}
	if r.chats == nil {
		return nil
	}

	prev, err := r.chats.GetLastMessage(ctx, chatID)
	switch {
	case err == nil && prev != msgID:
		if derr := r.DeleteMessage(ctx, chatID, prev); derr != nil {
			logging.With(ctx, r.log).Debug().Err(derr).Int("message_id", prev).Msg("previous message not deleted")
		}
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		logging.With(ctx, r.log).Warn().Err(err).Msg("chat state unavailable")
	}
	if err := r.chats.SetLastMessage(ctx, chatID, msgID); err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("chat state not saved")
	}
	return nil
}

// sendPlain sends a message that does not replace the menu.
func (r *RealTelegramBotAdapter) sendPlain(ctx context.Context, chatID int64, text string) error {
	_, err := r.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text})
	return err
}

// ---- adapter.ChatTransport ----

// SendMessage sends text with optional inline buttons.
// - If btn.URL is set, the button opens a link
// - Else if btn.Data is set, the button sends callback data
// - Else a safe fallback uses btn.Text as callback data
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(params.ChatID, params.Text)
	if kb, ok := buildKeyboard(params.Rows); ok {
		msg.ReplyMarkup = kb
	}
	sent, err := r.bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// SendVideo sends a protected video: Telegram clients will not forward or save it.
// VideoConfig in this library version has no protect_content field, so the call is built by hand.
func (r *RealTelegramBotAdapter) SendVideo(ctx context.Context, chatID int64, fileID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	params := tgbotapi.Params{
		"chat_id":         strconv.FormatInt(chatID, 10),
		"video":           fileID,
		"protect_content": "true",
	}
	resp, err := r.bot.MakeRequest("sendVideo", params)
	if err != nil {
		return 0, err
	}
	var sent tgbotapi.Message
	if err := json.Unmarshal(resp.Result, &sent); err != nil {
		return 0, fmt.Errorf("decode sendVideo result: %w", err)
	}
	return sent.MessageID, nil
}

func (r *RealTelegramBotAdapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func buildKeyboard(rows [][]adapter.InlineButton) (tgbotapi.InlineKeyboardMarkup, bool) {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			r = append(r, kb)
		}
		kbRows = append(kbRows, r)
	}
	if len(kbRows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...), true
}
