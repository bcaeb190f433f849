package transport

import (
	"encoding/json"
	"net/http"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/in"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"
)

// WebhookHandler принимает уведомления платежного шлюза.
// Шлюз ретраит любой не-2xx ответ, поэтому контракт жесткий:
// разобранный запрос всегда получает {"received":true}, какой бы ни была
// внутренняя судьба платежа. 400 только на нечитаемое тело.
type WebhookHandler struct {
	liquidarUC in.LiquidarPagoUseCase
	log        *logger.Logger
}

func NewWebhookHandler(liquidarUC in.LiquidarPagoUseCase, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{liquidarUC: liquidarUC, log: log}
}

// RegisterRoutes регистрирует webhook endpoint. Шлюз не шлет JWT:
// аутентификации здесь нет, защита — идемпотентность обработки.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/pagos", h.handlePago)
}

// PagoWebhookRequest — payload уведомления шлюза.
// Шлюз шлет ключи в PascalCase (TransactionId, ResponseCode, OrderNumber);
// snake_case принимается тоже, его используют внутренние реплеи.
type PagoWebhookRequest struct {
	TransactionID string `json:"TransactionId"`
	ResponseCode  string `json:"ResponseCode"`
	OrderNumber   string `json:"OrderNumber"`

	TransactionIDAlt string `json:"transaction_id,omitempty"`
	ResponseCodeAlt  string `json:"response_code,omitempty"`
	OrderNumberAlt   string `json:"order_number,omitempty"`
}

// normalizar сводит обе формы ключей к основным полям.
func (r *PagoWebhookRequest) normalizar() {
	if r.TransactionID == "" {
		r.TransactionID = r.TransactionIDAlt
	}
	if r.ResponseCode == "" {
		r.ResponseCode = r.ResponseCodeAlt
	}
	if r.OrderNumber == "" {
		r.OrderNumber = r.OrderNumberAlt
	}
}

func (h *WebhookHandler) handlePago(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req PagoWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error(logger.Entry{
			Action:  "webhook_parse_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		h.respond(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	req.normalizar()

	if err := h.liquidarUC.Execute(r.Context(), in.LiquidarPagoInput{
		TransactionID: req.TransactionID,
		ResponseCode:  req.ResponseCode,
		OrderNumber:   req.OrderNumber,
	}); err != nil {
		// Ошибку не возвращаем шлюзу: его ретрай ничего не исправит,
		// разбор идет по логам
		h.log.Error(logger.Entry{
			Action:  "webhook_settlement_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
			Additional: map[string]any{
				"transaction_id": req.TransactionID,
				"order_number":   req.OrderNumber,
			},
		})
	}

	h.respond(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *WebhookHandler) respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error(logger.Entry{
			Action:  "encode_response_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
}
