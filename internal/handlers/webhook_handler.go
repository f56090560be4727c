package handlers

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/harentsoaR/wellness-api/internal/services"
)

const (
	webhookHashHeader  = "verif-hash"
	maxWebhookBodySize = 1 << 20
)

// webhookFields appears either at the top level of a delivery or inside its
// "data" envelope. Numbers arrive as strings or numbers depending on the sender.
type webhookFields struct {
	Status        string          `json:"status"`
	TxRef         string          `json:"tx_ref"`
	TransactionID json.RawMessage `json:"transaction_id"`
	ID            json.RawMessage `json:"id"`
	Amount        json.RawMessage `json:"amount"`
	Currency      string          `json:"currency"`
}

type webhookPayload struct {
	webhookFields
	Event string         `json:"event"`
	Data  *webhookFields `json:"data"`
}

// FlutterwaveWebhook applies a payment notification. Anything parseable is
// acknowledged with 200 so the provider stops retrying, even when ignored.
func (h *Handler) FlutterwaveWebhook(c *gin.Context) {
	if h.WebhookHash != "" {
		got := c.GetHeader(webhookHashHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.WebhookHash)) != 1 {
			log.WithField("client_ip", c.ClientIP()).Warn("flutterwave webhook rejected: bad verif-hash")
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid webhook signature"})
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodySize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid webhook payload"})
		return
	}
	ev, err := parseWebhookEvent(body)
	if err != nil {
		log.WithError(err).Warn("flutterwave webhook: unparseable payload")
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid webhook payload"})
		return
	}

	if _, err := h.Subscriptions.HandleWebhook(c.Request.Context(), ev); err != nil {
		respondError(c, err, "Webhook processing failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Webhook processed successfully"})
}

func parseWebhookEvent(body []byte) (services.WebhookEvent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return services.WebhookEvent{}, errors.New("webhook body must be a JSON object")
	}
	var p webhookPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return services.WebhookEvent{}, err
	}

	f := p.webhookFields
	if p.Data != nil && f.Status == "" && f.TxRef == "" {
		f = *p.Data
	}
	txID := rawScalar(f.TransactionID)
	if txID == "" {
		txID = rawScalar(f.ID)
	}
	amount, _ := strconv.ParseFloat(rawScalar(f.Amount), 64)

	return services.WebhookEvent{
		Status:        strings.ToLower(strings.TrimSpace(f.Status)),
		TxRef:         strings.TrimSpace(f.TxRef),
		TransactionID: txID,
		Amount:        amount,
		Currency:      f.Currency,
	}, nil
}

// rawScalar renders a JSON string or number as plain text.
func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
