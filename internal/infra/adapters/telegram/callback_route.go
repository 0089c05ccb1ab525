package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-video-access/internal/application"
	"telegram-video-access/internal/infra/logging"
	"telegram-video-access/internal/infra/metrics"
)

var errUnknownCallback = errors.New("unknown callback data")

// cbHandler receives the callback data with the route prefix stripped.
type cbHandler func(ctx context.Context, userID, chatID int64, arg string) error

type prefixCB struct {
	Prefix string
	Route  string
	Fn     cbHandler
}

// Exact-match callbacks
func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		application.CBMenu: func(ctx context.Context, userID, chatID int64, _ string) error {
			rep, err := r.facade.HandleMenu(ctx, userID)
			return r.respond(ctx, chatID, rep, err)
		},
		application.CBMyVideos: func(ctx context.Context, userID, chatID int64, _ string) error {
			rep, err := r.facade.HandleMyVideos(ctx, userID)
			return r.respond(ctx, chatID, rep, err)
		},
	}
}

// Prefix-match callbacks
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{
			Prefix: application.CBSelect,
			Route:  "select",
			Fn: func(ctx context.Context, userID, chatID int64, arg string) error {
				days, ids, err := application.ParseSelection(arg)
				if err != nil {
					return r.respond(ctx, chatID, application.Reply{Text: "Некорректный выбор."}, nil)
				}
				rep, err := r.facade.HandleSelect(ctx, userID, days, ids)
				return r.respond(ctx, chatID, rep, err)
			},
		},
		{
			Prefix: application.CBBuy,
			Route:  "buy",
			Fn: func(ctx context.Context, userID, chatID int64, arg string) error {
				days, ids, err := application.ParseSelection(arg)
				if err != nil {
					return r.respond(ctx, chatID, application.Reply{Text: "Некорректный выбор."}, nil)
				}
				rep, err := r.facade.HandleBuy(ctx, userID, days, ids)
				return r.respond(ctx, chatID, rep, err)
			},
		},
		{
			Prefix: application.CBPayCheck,
			Route:  "pay_check",
			Fn: func(ctx context.Context, userID, chatID int64, arg string) error {
				ctx = logging.WithPaymentID(ctx, arg)
				rep, err := r.facade.HandlePaymentCheck(ctx, userID, arg)
				return r.respond(ctx, chatID, rep, err)
			},
		},
		{
			Prefix: application.CBVideo,
			Route:  "video",
			Fn: func(ctx context.Context, userID, chatID int64, arg string) error {
				id, err := application.ParseVideoID(arg)
				if err != nil {
					return r.respond(ctx, chatID, application.Reply{Text: "Некорректный урок."}, nil)
				}
				rep, err := r.facade.HandleVideo(ctx, userID, chatID, id)
				return r.respond(ctx, chatID, rep, err)
			},
		},
	}
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop telegram spinner when we return
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	userID := query.From.ID
	chatID := userID
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	}
	ctx = logging.WithChatID(logging.WithUserID(ctx, userID), chatID)

	if r.limited(ctx, userID, "callback") {
		metrics.IncTelegramUpdate("cb_limited")
		return nil
	}

	data := strings.TrimSpace(query.Data)

	// Exact matches
	if fn, ok := r.cbRoutes()[data]; ok {
		metrics.IncTelegramUpdate("cb_" + data)
		return fn(ctx, userID, chatID, "")
	}
	// Prefix matches
	for _, pr := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, pr.Prefix) {
			metrics.IncTelegramUpdate("cb_" + pr.Route)
			return pr.Fn(ctx, userID, chatID, strings.TrimPrefix(data, pr.Prefix))
		}
	}
	metrics.IncTelegramUpdate("cb_unknown")
	return errUnknownCallback
}
