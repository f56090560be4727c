package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PaymentRequest describes a hosted checkout to open with the payment provider.
type PaymentRequest struct {
	TxRef         string
	Amount        float64
	Currency      string
	RedirectURL   string
	CustomerEmail string
	CustomerName  string
}

// PaymentLink is the provider's answer to a checkout request.
type PaymentLink struct {
	Link  string
	TxRef string // empty when the provider does not echo it back
}

// PaymentGateway opens hosted checkout sessions.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentLink, error)
}

type flwCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type flwCustomizations struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
}

type flwPaymentRequest struct {
	TxRef          string            `json:"tx_ref"`
	Amount         float64           `json:"amount"`
	Currency       string            `json:"currency"`
	RedirectURL    string            `json:"redirect_url"`
	PaymentOptions string            `json:"payment_options"`
	Customer       flwCustomer       `json:"customer"`
	Customizations flwCustomizations `json:"customizations"`
}

type flwPaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link  string `json:"link"`
		TxRef string `json:"tx_ref"`
	} `json:"data"`
}

// FlutterwaveClient talks to the Flutterwave Standard payments API.
type FlutterwaveClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewFlutterwaveClient(baseURL, secretKey string) *FlutterwaveClient {
	return &FlutterwaveClient{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *FlutterwaveClient) CreatePayment(ctx context.Context, p PaymentRequest) (*PaymentLink, error) {
	if c.secretKey == "" {
		return nil, errors.New("flutterwave secret key not configured")
	}
	body, err := json.Marshal(flwPaymentRequest{
		TxRef:          p.TxRef,
		Amount:         p.Amount,
		Currency:       p.Currency,
		RedirectURL:    p.RedirectURL,
		PaymentOptions: "card,mobilemoney,ussd,banktransfer",
		Customer: flwCustomer{
			Email: p.CustomerEmail,
			Name:  p.CustomerName,
		},
		Customizations: flwCustomizations{
			Title:       "Mother & Child Wellness Hub",
			Description: fmt.Sprintf("Premium Subscription - %.2f %s/month", p.Amount, p.Currency),
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flutterwave request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read flutterwave response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("flutterwave status %d: %s", resp.StatusCode, string(respBody))
	}

	var out flwPaymentResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode flutterwave response: %w", err)
	}
	if out.Status != "success" {
		return nil, fmt.Errorf("flutterwave rejected payment: %s", out.Message)
	}
	if out.Data.Link == "" {
		return nil, errors.New("flutterwave response has no checkout link")
	}
	return &PaymentLink{Link: out.Data.Link, TxRef: out.Data.TxRef}, nil
}
