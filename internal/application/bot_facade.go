package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/adapter"
	"telegram-video-access/internal/usecase"
)

// Callback data understood by the bot.
const (
	CBMenu     = "menu"
	CBMyVideos = "my"
	CBSelect   = "sel:"       // sel:<days>:<ids>
	CBBuy      = "buy:"       // buy:<days>:<ids>
	CBPayCheck = "pay:check:" // pay:check:<payment id>
	CBVideo    = "video:"     // video:<id>
)

// Reply is what the adapter shows in the chat.
type Reply struct {
	Text string
	Rows [][]adapter.InlineButton
}

// BotFacade composes usecases into high-level bot commands.
// Domain outcomes come back as replies; only unexpected failures are returned as errors.
type BotFacade struct {
	Users    usecase.UserUseCase
	Catalog  usecase.CatalogUseCase
	Ledger   usecase.LedgerUseCase
	Access   usecase.AccessUseCase
	Delivery usecase.DeliveryUseCase
	Stats    usecase.StatsUseCase

	now func() time.Time
	log *zerolog.Logger
}

func NewBotFacade(
	users usecase.UserUseCase,
	catalog usecase.CatalogUseCase,
	ledger usecase.LedgerUseCase,
	access usecase.AccessUseCase,
	delivery usecase.DeliveryUseCase,
	stats usecase.StatsUseCase,
	logger *zerolog.Logger,
) *BotFacade {
	l := logger.With().Str("component", "BotFacade").Logger()
	return &BotFacade{
		Users:    users,
		Catalog:  catalog,
		Ledger:   ledger,
		Access:   access,
		Delivery: delivery,
		Stats:    stats,
		now:      time.Now,
		log:      &l,
	}
}

// HandleStart registers the user and shows the main menu.
func (b *BotFacade) HandleStart(ctx context.Context, tgID int64) (Reply, error) {
	u, err := b.Users.RegisterOrFetch(ctx, tgID)
	if err != nil {
		return Reply{}, fmt.Errorf("register user: %w", err)
	}
	return b.mainMenu(u, "Добро пожаловать! Здесь можно купить доступ к видео-урокам."), nil
}

// HandleMenu shows the main menu without a greeting.
func (b *BotFacade) HandleMenu(ctx context.Context, tgID int64) (Reply, error) {
	u, err := b.Users.RegisterOrFetch(ctx, tgID)
	if err != nil {
		return Reply{}, fmt.Errorf("register user: %w", err)
	}
	return b.mainMenu(u, "Выберите действие:"), nil
}

func (b *BotFacade) mainMenu(u *model.User, intro string) Reply {
	rows := [][]adapter.InlineButton{{{Text: "Мои видео", Data: CBMyVideos}}}
	if u.IsPrivileged {
		intro += "\nУ вас корпоративный доступ ко всем урокам."
	} else {
		rows = append(rows, []adapter.InlineButton{{Text: "Купить доступ", Data: SelectData(model.DurationMonth, nil)}})
	}
	return Reply{Text: intro, Rows: rows}
}

// HandleMyVideos lists what the user can watch right now.
func (b *BotFacade) HandleMyVideos(ctx context.Context, tgID int64) (Reply, error) {
	u, err := b.Users.RegisterOrFetch(ctx, tgID)
	if err != nil {
		return Reply{}, fmt.Errorf("register user: %w", err)
	}

	var rows [][]adapter.InlineButton
	sb := strings.Builder{}

	if u.IsPrivileged {
		videos, err := b.Catalog.ListForSale(ctx)
		if err != nil {
			return Reply{}, fmt.Errorf("list videos: %w", err)
		}
		sb.WriteString("Корпоративный доступ: доступны все уроки.\n")
		for _, v := range videos {
			rows = append(rows, []adapter.InlineButton{{Text: v.Title, Data: VideoData(v.ID)}})
		}
	} else {
		now := b.now().UTC()
		grants, err := b.Access.AccessibleItems(ctx, u.ID, now)
		if err != nil {
			return Reply{}, fmt.Errorf("list access: %w", err)
		}
		if len(grants) == 0 {
			return Reply{
				Text: "У вас пока нет доступных уроков.",
				Rows: [][]adapter.InlineButton{
					{{Text: "Купить доступ", Data: SelectData(model.DurationMonth, nil)}},
					{{Text: "Главное меню", Data: CBMenu}},
				},
			}, nil
		}
		titles := b.lessonTitles(ctx)
		sb.WriteString("Ваши уроки:\n")
		for _, g := range grants {
			title, ok := titles[g.VideoID]
			if !ok {
				title = model.DefaultVideoTitle(g.VideoID)
			}
			sb.WriteString(fmt.Sprintf("%s: до %s (осталось %d дн.)\n",
				title, g.AccessUntil.UTC().Format("02.01.2006 15:04"), model.RemainingDays(g.AccessUntil, now)))
			rows = append(rows, []adapter.InlineButton{{Text: title, Data: VideoData(g.VideoID)}})
		}
	}
	rows = append(rows, []adapter.InlineButton{{Text: "Главное меню", Data: CBMenu}})
	return Reply{Text: sb.String(), Rows: rows}, nil
}

// lessonTitles maps lesson ids to catalog titles. A catalog failure only costs the custom titles.
func (b *BotFacade) lessonTitles(ctx context.Context) map[int]string {
	videos, err := b.Catalog.List(ctx)
	if err != nil {
		b.log.Warn().Err(err).Msg("catalog titles unavailable")
		return nil
	}
	out := make(map[int]string, len(videos))
	for _, v := range videos {
		out[v.ID] = v.Title
	}
	return out
}

// HandleSelect renders the lesson picker. The selection lives in the callback data itself.
func (b *BotFacade) HandleSelect(ctx context.Context, tgID int64, days int, selected []int) (Reply, error) {
	u, err := b.Users.RegisterOrFetch(ctx, tgID)
	if err != nil {
		return Reply{}, fmt.Errorf("register user: %w", err)
	}
	if u.IsPrivileged {
		return privilegedReply(), nil
	}
	if !model.ValidDuration(days) {
		days = model.DurationMonth
	}
	videos, err := b.Catalog.ListForSale(ctx)
	if err != nil {
		return Reply{}, fmt.Errorf("list videos: %w", err)
	}
	if len(videos) == 0 {
		return Reply{Text: "Сейчас нет доступных уроков.", Rows: menuRow()}, nil
	}

	forSale := make(map[int]bool, len(videos))
	all := make([]int, 0, len(videos))
	for _, v := range videos {
		forSale[v.ID] = true
		all = append(all, v.ID)
	}
	picked := make(map[int]bool)
	for _, id := range model.NormalizeVideoIDs(selected) {
		if forSale[id] {
			picked[id] = true
		}
	}
	ids := keys(picked)

	var rows [][]adapter.InlineButton
	for _, v := range videos {
		mark := ""
		if picked[v.ID] {
			mark = "✅ "
		}
		rows = append(rows, []adapter.InlineButton{{Text: mark + v.Title, Data: SelectData(days, toggle(ids, v.ID))}})
	}
	rows = append(rows,
		[]adapter.InlineButton{
			{Text: "Выбрать все", Data: SelectData(days, all)},
			{Text: "Очистить", Data: SelectData(days, nil)},
		},
		[]adapter.InlineButton{
			{Text: checkMark(days == model.DurationWeek) + "1 неделя", Data: SelectData(model.DurationWeek, ids)},
			{Text: checkMark(days == model.DurationMonth) + "1 месяц", Data: SelectData(model.DurationMonth, ids)},
		},
	)
	if len(ids) > 0 {
		rows = append(rows, []adapter.InlineButton{{Text: "Оплатить", Data: BuyData(days, ids)}})
	}
	rows = append(rows, menuRow()...)

	text := fmt.Sprintf("Выберите уроки и срок доступа.\nСрок: %s\nВыбрано: %s\nСтоимость: %d ₽",
		durationLabel(days), joinIDs(ids, ", ", "ничего"), usecase.CalculateTotal(len(ids), days))
	return Reply{Text: text, Rows: rows}, nil
}

// HandleBuy issues (or reuses) a payment link for the selection.
func (b *BotFacade) HandleBuy(ctx context.Context, tgID int64, days int, ids []int) (Reply, error) {
	p, url, err := b.Ledger.StartPurchase(ctx, tgID, ids, days)
	switch {
	case errors.Is(err, domain.ErrPrivilegedUser):
		return privilegedReply(), nil
	case errors.Is(err, domain.ErrPaymentsDisabled):
		return Reply{Text: "Оплата временно недоступна. Попробуйте позже.", Rows: menuRow()}, nil
	case errors.Is(err, domain.ErrInvalidArgument):
		return Reply{Text: "Некорректный выбор уроков.", Rows: menuRow()}, nil
	case err != nil:
		return Reply{}, fmt.Errorf("start purchase: %w", err)
	}

	text := fmt.Sprintf("К оплате: %d ₽\nУроки: %s\nСрок доступа: %s\n\nПосле оплаты доступ откроется автоматически.",
		p.Amount, joinIDs(p.VideoIDs, ", ", "-"), durationLabel(p.DurationDays))
	return Reply{
		Text: text,
		Rows: [][]adapter.InlineButton{
			{{Text: "Перейти к оплате", URL: url}},
			{{Text: "Проверить оплату", Data: CBPayCheck + p.ID}},
			{{Text: "Главное меню", Data: CBMenu}},
		},
	}, nil
}

// HandlePaymentCheck runs the manual check of one payment.
func (b *BotFacade) HandlePaymentCheck(ctx context.Context, tgID int64, paymentID string) (Reply, error) {
	res, _, err := b.Ledger.CheckPayment(ctx, tgID, paymentID)
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return Reply{Text: "Слишком много проверок. Подождите минуту.", Rows: checkRows(paymentID)}, nil
	case errors.Is(err, domain.ErrNotFound):
		return Reply{Text: "Платёж не найден.", Rows: menuRow()}, nil
	case errors.Is(err, domain.ErrPaymentsDisabled):
		return Reply{Text: "Оплата временно недоступна. Попробуйте позже.", Rows: menuRow()}, nil
	case err != nil:
		return Reply{}, fmt.Errorf("check payment: %w", err)
	}

	switch res {
	case usecase.CheckConfirmed:
		return Reply{Text: "Оплата подтверждена, доступ открыт.", Rows: myVideosRows()}, nil
	case usecase.CheckAlreadyProcessed:
		return Reply{Text: "Этот платёж уже обработан.", Rows: myVideosRows()}, nil
	default:
		return Reply{Text: "Оплата пока не поступила. Проверьте ещё раз через минуту.", Rows: checkRows(paymentID)}, nil
	}
}

// HandleVideo sends a protected copy of the video when the user has access.
// An empty reply text means the video itself was the answer.
func (b *BotFacade) HandleVideo(ctx context.Context, tgID, chatID int64, videoID int) (Reply, error) {
	u, err := b.Users.RegisterOrFetch(ctx, tgID)
	if err != nil {
		return Reply{}, fmt.Errorf("register user: %w", err)
	}
	rec, err := b.Delivery.DeliverVideo(ctx, u, chatID, videoID)
	switch {
	case errors.Is(err, domain.ErrAccessDenied):
		return Reply{
			Text: "Доступ к этому уроку закончился или не был куплен.",
			Rows: [][]adapter.InlineButton{
				{{Text: "Купить доступ", Data: SelectData(model.DurationMonth, []int{videoID})}},
				{{Text: "Главное меню", Data: CBMenu}},
			},
		}, nil
	case errors.Is(err, domain.ErrNoFileID), errors.Is(err, domain.ErrNotFound):
		return Reply{Text: "Этот урок пока недоступен.", Rows: menuRow()}, nil
	case errors.Is(err, domain.ErrTransport):
		return Reply{Text: "Не удалось отправить видео. Попробуйте ещё раз.", Rows: menuRow()}, nil
	case err != nil:
		return Reply{}, fmt.Errorf("deliver video: %w", err)
	}
	return Reply{
		Text: fmt.Sprintf("Видео будет удалено из чата %s UTC.", rec.DeleteAfter.UTC().Format("02.01.2006 15:04")),
		Rows: myVideosRows(),
	}, nil
}

// HandleCorporate toggles privileged access for a user. Admin only.
func (b *BotFacade) HandleCorporate(ctx context.Context, args string, privileged bool) (string, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || id <= 0 {
		return "Использование: /corp <telegram id>", nil
	}
	if err := b.Users.SetPrivileged(ctx, id, privileged); err != nil {
		return "", fmt.Errorf("set privileged: %w", err)
	}
	b.log.Info().Int64("user_id", id).Bool("privileged", privileged).Msg("corporate access changed")
	if privileged {
		return fmt.Sprintf("Пользователь %d получил корпоративный доступ.", id), nil
	}
	return fmt.Sprintf("Пользователь %d переведён в обычный режим.", id), nil
}

// CopyUsage explains how admins put uploaded videos into the catalog.
const CopyUsage = "Отправьте видео с подписью /cp, чтобы узнать его file_id.\n" +
	"Подпись /cp <номер урока> [название] сразу привяжет видео к уроку.\n" +
	"Снять урок с продажи: /rmvideo <номер урока>."

// HandleCopyFile handles a video uploaded by an admin. caption is the text after /cp:
// empty returns the file id, "<lesson> [title]" also attaches the file to that lesson. Admin only.
func (b *BotFacade) HandleCopyFile(ctx context.Context, fileID, caption string) (string, error) {
	if fileID == "" {
		return CopyUsage, nil
	}
	fields := strings.Fields(caption)
	if len(fields) == 0 {
		return fmt.Sprintf("file_id: %s", fileID), nil
	}
	videoID, err := strconv.Atoi(fields[0])
	if err != nil {
		return CopyUsage, nil
	}
	title := strings.Join(fields[1:], " ")
	v, err := b.Catalog.AttachFile(ctx, videoID, fileID, title)
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return fmt.Sprintf("Номер урока должен быть от 1 до %d.", usecase.CatalogSize), nil
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("Урок %d не найден.", videoID), nil
	case err != nil:
		return "", fmt.Errorf("attach file: %w", err)
	}
	return fmt.Sprintf("Урок %d «%s» теперь в продаже.\nfile_id: %s", v.ID, v.Title, fileID), nil
}

// HandleWithdraw handles "/rmvideo <lesson>". Admin only.
func (b *BotFacade) HandleWithdraw(ctx context.Context, args string) (string, error) {
	videoID, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return "Использование: /rmvideo <номер урока>", nil
	}
	err = b.Catalog.Withdraw(ctx, videoID)
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return fmt.Sprintf("Номер урока должен быть от 1 до %d.", usecase.CatalogSize), nil
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("Урок %d не найден.", videoID), nil
	case err != nil:
		return "", fmt.Errorf("withdraw lesson: %w", err)
	}
	return fmt.Sprintf("Урок %d снят с продажи.", videoID), nil
}

// HandleStats renders the admin dashboard. Admin only.
func (b *BotFacade) HandleStats(ctx context.Context) (string, error) {
	s, err := b.Stats.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("stats snapshot: %w", err)
	}
	return fmt.Sprintf("Пользователи: %d (корпоративных: %d)\n"+
		"С активным доступом: %d\n"+
		"Уроки: %d (в продаже: %d)\n"+
		"Платежи: %d (успешных: %d, ожидают: %d)",
		s.Users, s.Privileged, s.ActiveUsers,
		s.VideosTotal, s.VideosForSale,
		s.PaymentsTotal, s.PaymentsSuccess, s.PaymentsPending), nil
}

// ---- callback data ----

func SelectData(days int, ids []int) string {
	return fmt.Sprintf("%s%d:%s", CBSelect, days, joinIDs(model.NormalizeVideoIDs(ids), ",", ""))
}

func BuyData(days int, ids []int) string {
	return fmt.Sprintf("%s%d:%s", CBBuy, days, joinIDs(model.NormalizeVideoIDs(ids), ",", ""))
}

func VideoData(id int) string { return CBVideo + strconv.Itoa(id) }

// ParseSelection decodes "<days>:<id,id,...>" as produced by SelectData and BuyData.
func ParseSelection(s string) (int, []int, error) {
	daysPart, idsPart, ok := strings.Cut(s, ":")
	if !ok {
		return 0, nil, domain.ErrInvalidArgument
	}
	days, err := strconv.Atoi(daysPart)
	if err != nil || !model.ValidDuration(days) {
		return 0, nil, domain.ErrInvalidArgument
	}
	var ids []int
	for _, part := range strings.Split(idsPart, ",") {
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return 0, nil, domain.ErrInvalidArgument
		}
		ids = append(ids, id)
	}
	return days, model.NormalizeVideoIDs(ids), nil
}

func ParseVideoID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidArgument
	}
	return id, nil
}

// ---- helpers ----

func privilegedReply() Reply {
	return Reply{Text: "У вас корпоративный доступ. Покупка не требуется.", Rows: myVideosRows()}
}

func menuRow() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{{{Text: "Главное меню", Data: CBMenu}}}
}

func myVideosRows() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: "Мои видео", Data: CBMyVideos}},
		{{Text: "Главное меню", Data: CBMenu}},
	}
}

func checkRows(paymentID string) [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: "Проверить оплату", Data: CBPayCheck + paymentID}},
		{{Text: "Главное меню", Data: CBMenu}},
	}
}

func durationLabel(days int) string {
	if days == model.DurationWeek {
		return "1 неделя"
	}
	return "1 месяц"
}

func checkMark(on bool) string {
	if on {
		return "✅ "
	}
	return ""
}

func toggle(ids []int, id int) []int {
	out := make([]int, 0, len(ids)+1)
	found := false
	for _, x := range ids {
		if x == id {
			found = true
			continue
		}
		out = append(out, x)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

func keys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return model.NormalizeVideoIDs(out)
}

func joinIDs(ids []int, sep, empty string) string {
	if len(ids) == 0 {
		return empty
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, sep)
}
