// File: internal/infra/adapters/payment/yoomoney_gateway.go
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain/ports/adapter"
	"telegram-video-access/internal/infra/logging"
	"telegram-video-access/internal/infra/metrics"
)

var _ adapter.PaymentGateway = (*YooMoneyGateway)(nil)

const (
	defaultHistoryURL = "https://yoomoney.ru/api/operation-history"
	defaultPaymentURL = "https://yoomoney.ru/quickpay/confirm.xml"
)

// YooMoneyGateway builds quickpay links for a personal wallet and confirms them
// by looking the label up in the wallet's operation history.
type YooMoneyGateway struct {
	token      string
	wallet     string
	historyURL string
	paymentURL string
	client     *http.Client
	dev        bool // log labels in clear
	log        zerolog.Logger
}

func NewYooMoneyGateway(token, wallet, historyURL, paymentURL string, dev bool, logger *zerolog.Logger) *YooMoneyGateway {
	if historyURL == "" {
		historyURL = defaultHistoryURL
	}
	if paymentURL == "" {
		paymentURL = defaultPaymentURL
	}
	return &YooMoneyGateway{
		token:      strings.TrimSpace(token),
		wallet:     strings.TrimSpace(wallet),
		historyURL: historyURL,
		paymentURL: paymentURL,
		client:     &http.Client{Timeout: 15 * time.Second},
		dev:        dev,
		log:        logger.With().Str("component", "yoomoney").Logger(),
	}
}

func (g *YooMoneyGateway) Name() string { return "yoomoney" }

func (g *YooMoneyGateway) Enabled() bool { return g.token != "" && g.wallet != "" }

// BuildPaymentURL returns a quickpay link. Bank card is the only payment type offered.
func (g *YooMoneyGateway) BuildPaymentURL(amount int64, label, targets string) string {
	q := url.Values{}
	q.Set("receiver", g.wallet)
	q.Set("quickpay-form", "shop")
	q.Set("targets", targets)
	q.Set("paymentType", "SB")
	q.Set("sum", strconv.FormatInt(amount, 10))
	q.Set("label", label)
	return g.paymentURL + "?" + q.Encode()
}

type operationHistory struct {
	Error      string `json:"error"`
	Operations []struct {
		OperationID string          `json:"operation_id"`
		Status      string          `json:"status"`
		Label       string          `json:"label"`
		Amount      json.RawMessage `json:"amount"`
	} `json:"operations"`
}

// CheckPayment asks the operation history for label. Any failure reads as "not paid yet";
// the reconciler retries on its next tick.
func (g *YooMoneyGateway) CheckPayment(ctx context.Context, label string) bool {
	if !g.Enabled() || label == "" {
		return false
	}
	start := time.Now()
	paid := g.check(ctx, label)
	metrics.ObserveGatewayCheck(g.Name(), paid, time.Since(start).Seconds())
	return paid
}

func (g *YooMoneyGateway) check(ctx context.Context, label string) bool {
	form := url.Values{}
	form.Set("label", label)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.historyURL, strings.NewReader(form.Encode()))
	if err != nil {
		g.log.Error().Err(err).Msg("build history request")
		return false
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn().Err(err).Str("label", logging.Redact(label, g.dev)).Msg("history request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		g.log.Warn().Int("status", resp.StatusCode).Str("body", string(body)).Msg("history request rejected")
		return false
	}

	var out operationHistory
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		g.log.Warn().Err(err).Msg("decode history response")
		return false
	}
	if out.Error != "" {
		g.log.Warn().Str("error", out.Error).Msg("history api error")
		return false
	}
	for _, op := range out.Operations {
		if op.Label == label && op.Status == "success" {
			return true
		}
	}
	return false
}

func (g *YooMoneyGateway) String() string {
	return fmt.Sprintf("yoomoney(wallet=%s, enabled=%t)", g.wallet, g.Enabled())
}
