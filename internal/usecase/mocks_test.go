// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/adapter"
	"telegram-video-access/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// fixedClock returns a clock that always reports t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

// ---- Payments ----

type memPaymentRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Payment
	saveErr error
	listErr error

	listCalls int
}

var _ repository.PaymentRepository = (*memPaymentRepo)(nil)

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: map[string]*model.Payment{}}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if existing.Label == p.Label {
			return domain.ErrLabelConflict
		}
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindLatestPendingByUser(ctx context.Context, tx repository.Tx, userID int64) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Payment
	for _, p := range m.store {
		if p.UserID != userID || !p.IsPending() {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memPaymentRepo) ListPending(ctx context.Context, tx repository.Tx, after *repository.PendingCursor, limit int) ([]*model.Payment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var out []*model.Payment
	for _, p := range m.store {
		if !p.IsPending() {
			continue
		}
		if after != nil && !pendingAfter(p, after) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func pendingAfter(p *model.Payment, c *repository.PendingCursor) bool {
	if !p.CreatedAt.Equal(c.CreatedAt) {
		return p.CreatedAt.After(c.CreatedAt)
	}
	return p.ID > c.ID
}

func (m *memPaymentRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.PaymentStatus]int, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.PaymentStatus]int{}
	for _, p := range m.store {
		out[p.Status]++
	}
	return out, nil
}

func (m *memPaymentRepo) MarkSuccess(ctx context.Context, tx repository.Tx, id string, paidAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || !p.IsPending() {
		return false, nil
	}
	p.Status = model.PaymentStatusSuccess
	t := paidAt
	p.PaidAt = &t
	return true, nil
}

// ---- Access ----

type accessKey struct {
	user  int64
	video int
}

type memAccessRepo struct {
	mu        sync.Mutex
	until     map[accessKey]time.Time
	extendErr error
}

var _ repository.AccessRepository = (*memAccessRepo)(nil)

func newMemAccessRepo() *memAccessRepo {
	return &memAccessRepo{until: map[accessKey]time.Time{}}
}

func (m *memAccessRepo) set(userID int64, videoID int, until time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.until[accessKey{userID, videoID}] = until
}

func (m *memAccessRepo) FindUntil(ctx context.Context, tx repository.Tx, userID int64, videoID int) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.until[accessKey{userID, videoID}]
	if !ok {
		return time.Time{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *memAccessRepo) Extend(ctx context.Context, tx repository.Tx, userID int64, videoID int, now time.Time, days int) (time.Time, error) {
	if m.extendErr != nil {
		return time.Time{}, m.extendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := accessKey{userID, videoID}
	var cur *time.Time
	if u, ok := m.until[k]; ok {
		cur = &u
	}
	next := model.ExtendAccess(cur, now, days)
	m.until[k] = next
	return next, nil
}

func (m *memAccessRepo) ListActive(ctx context.Context, tx repository.Tx, userID int64, asOf time.Time) ([]*model.AccessGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AccessGrant
	for k, u := range m.until {
		if k.user == userID && u.After(asOf) {
			out = append(out, &model.AccessGrant{UserID: k.user, VideoID: k.video, AccessUntil: u})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VideoID < out[j].VideoID })
	return out, nil
}

func (m *memAccessRepo) MaxUntil(ctx context.Context, tx repository.Tx, userID int64) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var max time.Time
	found := false
	for k, u := range m.until {
		if k.user == userID && (!found || u.After(max)) {
			max, found = u, true
		}
	}
	if !found {
		return time.Time{}, domain.ErrNotFound
	}
	return max, nil
}

func (m *memAccessRepo) ListUserMaxUntil(ctx context.Context, tx repository.Tx) ([]*model.UserExpiry, error) {
	m.mu.Lock()
	byUser := map[int64]time.Time{}
	for k, u := range m.until {
		if cur, ok := byUser[k.user]; !ok || u.After(cur) {
			byUser[k.user] = u
		}
	}
	m.mu.Unlock()
	var out []*model.UserExpiry
	for id, u := range byUser {
		out = append(out, &model.UserExpiry{UserID: id, MaxUntil: u})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *memAccessRepo) CountActiveUsers(ctx context.Context, tx repository.Tx, asOf time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := map[int64]bool{}
	for k, u := range m.until {
		if u.After(asOf) {
			users[k.user] = true
		}
	}
	return len(users), nil
}

// ---- Watermarks ----

type memWatermarkRepo struct {
	mu     sync.Mutex
	data   map[int64]time.Time
	setErr error
}

func newMemWatermarkRepo() *memWatermarkRepo {
	return &memWatermarkRepo{data: map[int64]time.Time{}}
}

func (m *memWatermarkRepo) Get(ctx context.Context, tx repository.Tx, userID int64) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[userID]
	if !ok {
		return time.Time{}, domain.ErrNotFound
	}
	return v, nil
}

func (m *memWatermarkRepo) Set(ctx context.Context, tx repository.Tx, userID int64, notifiedUntil time.Time) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = notifiedUntil
	return nil
}

// ---- Deliveries ----

type memDeliveryRepo struct {
	mu     sync.Mutex
	seq    int
	store  map[string]*model.ScheduledDeletion
	delErr error
}

func newMemDeliveryRepo() *memDeliveryRepo {
	return &memDeliveryRepo{store: map[string]*model.ScheduledDeletion{}}
}

func (m *memDeliveryRepo) Save(ctx context.Context, tx repository.Tx, d *model.ScheduledDeletion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	d.ID = fmt.Sprintf("del-%d", m.seq)
	cp := *d
	m.store[d.ID] = &cp
	return nil
}

func (m *memDeliveryRepo) ListDue(ctx context.Context, tx repository.Tx, asOf time.Time, limit int) ([]*model.ScheduledDeletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ScheduledDeletion
	for _, d := range m.store {
		if !d.DeleteAfter.After(asOf) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeleteAfter.Before(out[j].DeleteAfter) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memDeliveryRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

// ---- Users and videos ----

type memUserRepo struct {
	mu    sync.Mutex
	store map[int64]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: map[int64]*model.User{}}
}

func (m *memUserRepo) GetOrCreate(ctx context.Context, tx repository.Tx, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		u = &model.User{ID: id, CreatedAt: time.Now()}
		m.store[id] = u
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) SetPrivileged(ctx context.Context, tx repository.Tx, id int64, privileged bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsPrivileged = privileged
	return nil
}

func (m *memUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	privileged := 0
	for _, u := range m.store {
		if u.IsPrivileged {
			privileged++
		}
	}
	return len(m.store), privileged, nil
}

type memVideoRepo struct {
	mu    sync.Mutex
	store map[int]*model.Video
}

func newMemVideoRepo(videos ...*model.Video) *memVideoRepo {
	m := &memVideoRepo{store: map[int]*model.Video{}}
	for _, v := range videos {
		m.store[v.ID] = v
	}
	return m
}

func (m *memVideoRepo) FindByID(ctx context.Context, tx repository.Tx, id int) (*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memVideoRepo) ListForSale(ctx context.Context, tx repository.Tx) ([]*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Video
	for _, v := range m.store {
		if v.ForSale() {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memVideoRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Video, 0, len(m.store))
	for _, v := range m.store {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memVideoRepo) Update(ctx context.Context, tx repository.Tx, v *model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.store[v.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Title = v.Title
	existing.FileID = v.FileID
	return nil
}

func (m *memVideoRepo) Seed(ctx context.Context, tx repository.Tx, videos []*model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range videos {
		existing, ok := m.store[v.ID]
		if !ok {
			cp := *v
			m.store[v.ID] = &cp
			continue
		}
		if v.FileID != "" {
			existing.FileID = v.FileID
		}
	}
	return nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc overrides it.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Gateway ----

type mockGateway struct {
	mu      sync.Mutex
	enabled bool
	paid    map[string]bool
	checks  int
	lastURL string
}

var _ adapter.PaymentGateway = (*mockGateway)(nil)

func newMockGateway() *mockGateway {
	return &mockGateway{enabled: true, paid: map[string]bool{}}
}

func (g *mockGateway) Name() string  { return "mock" }
func (g *mockGateway) Enabled() bool { return g.enabled }

func (g *mockGateway) BuildPaymentURL(amount int64, label, targets string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastURL = fmt.Sprintf("https://pay.test/?sum=%d&label=%s", amount, label)
	return g.lastURL
}

func (g *mockGateway) CheckPayment(ctx context.Context, label string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checks++
	return g.paid[label]
}

func (g *mockGateway) markPaid(label string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paid[label] = true
}

// ---- Chat transport ----

type sentVideo struct {
	ChatID int64
	FileID string
}

type deletedMessage struct {
	ChatID    int64
	MessageID int
}

type mockTransport struct {
	mu        sync.Mutex
	nextID    int
	Messages  []adapter.SendMessageParams
	Videos    []sentVideo
	Deleted   []deletedMessage
	SendErr   error
	VideoErr  error
	DeleteErr error
}

var _ adapter.ChatTransport = (*mockTransport)(nil)

func (m *mockTransport) SendMessage(ctx context.Context, params adapter.SendMessageParams) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return 0, m.SendErr
	}
	m.nextID++
	m.Messages = append(m.Messages, params)
	return m.nextID, nil
}

func (m *mockTransport) SendVideo(ctx context.Context, chatID int64, fileID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.VideoErr != nil {
		return 0, m.VideoErr
	}
	m.nextID++
	m.Videos = append(m.Videos, sentVideo{ChatID: chatID, FileID: fileID})
	return m.nextID, nil
}

func (m *mockTransport) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, deletedMessage{ChatID: chatID, MessageID: messageID})
	return m.DeleteErr
}

func (m *mockTransport) messageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages)
}

// ---- Rate limiter ----

type mockLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return m.AllowFunc(ctx, key, limit, window)
}

var errStorage = errors.Join(domain.ErrOperationFailed, errors.New("connection reset"))
