package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/config"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"
)

// HTTPPayoutGateway инициирует выплаты операторам через внешний шлюз.
// Отказ шлюза НЕ финален: комиссия остается в pendiente, и ретрай
// запускается отдельно.
type HTTPPayoutGateway struct {
	cfg    config.PaymentsConfig
	client *http.Client
	log    *logger.Logger
}

func NewHTTPPayoutGateway(cfg config.PaymentsConfig, log *logger.Logger) *HTTPPayoutGateway {
	return &HTTPPayoutGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

type payoutRequest struct {
	Token      string  `json:"token"`
	Monto      float64 `json:"monto"`
	Moneda     string  `json:"moneda"`
	Referencia string  `json:"referencia"`
}

type payoutResponse struct {
	Codigo     string `json:"codigo"`
	Referencia string `json:"referencia"`
	Mensaje    string `json:"mensaje"`
}

// Pagar отправляет выплату по сохраненному токену водителя
func (g *HTTPPayoutGateway) Pagar(ctx context.Context, payoutToken string, monto float64, referencia string) (string, error) {
	if g.cfg.PayoutURL == "" {
		return "", fmt.Errorf("%w: payout gateway not configured", domain.ErrCollaboratorUnavailable)
	}

	body, err := json.Marshal(payoutRequest{
		Token:      payoutToken,
		Monto:      monto,
		Moneda:     "DOP",
		Referencia: referencia,
	})
	if err != nil {
		return "", fmt.Errorf("marshal payout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.PayoutURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build payout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.PayoutAPIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: payout gateway returned %d", domain.ErrCollaboratorUnavailable, resp.StatusCode)
	}

	var pr payoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("decode payout response: %w", err)
	}
	if pr.Codigo != g.cfg.SuccessCode {
		return "", fmt.Errorf("%w: payout rejected with code %s", domain.ErrCollaboratorUnavailable, pr.Codigo)
	}

	g.log.Info(logger.Entry{
		Action:  "payout_sent",
		Message: referencia,
		Additional: map[string]any{
			"monto":      monto,
			"referencia": pr.Referencia,
		},
	})

	return pr.Referencia, nil
}
