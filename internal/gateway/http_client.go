package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"kreede/internal/shared/apperror"
	"kreede/internal/shared/config"
	"kreede/pkg/money"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrMissingCredentials = errors.New("gateway client id and secret are required")

type httpClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	apiVersion   string
	http         *http.Client
}

// NewHTTPClient talks to an order/refund REST gateway.
func NewHTTPClient(cfg config.GatewayConfig) (Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("invalid gateway base url %q", cfg.BaseURL)
	}
	return &httpClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		apiVersion:   cfg.APIVersion,
		http:         &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type createRefundBody struct {
	RefundAmount float64 `json:"refund_amount"`
	RefundID     string  `json:"refund_id"`
	RefundNote   string  `json:"refund_note,omitempty"`
}

type refundEntity struct {
	CFRefundID        string `json:"cf_refund_id"`
	CFPaymentID       string `json:"cf_payment_id"`
	RefundID          string `json:"refund_id"`
	RefundStatus      string `json:"refund_status"`
	StatusDescription string `json:"status_description"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

func (c *httpClient) CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error) {
	if req.Amount <= 0 {
		return nil, apperror.InvalidAmount(req.Amount)
	}

	ctx, span := tracer.Start(ctx, "gateway.CreateRefund", trace.WithAttributes(
		attribute.String("gateway.order_id", req.OrderID),
		attribute.String("gateway.refund_id", req.RefundID),
		attribute.Float64("gateway.amount", req.Amount),
	))
	defer span.End()

	body, err := json.Marshal(createRefundBody{
		RefundAmount: money.Round2(req.Amount),
		RefundID:     req.RefundID,
		RefundNote:   req.Note,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode refund request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/orders/%s/refunds", c.baseURL, url.PathEscape(req.OrderID))
	status, raw, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, apperror.Gateway(http.StatusBadGateway, "payment gateway unreachable", nil, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	// The refund id was already used: the earlier attempt owns the refund,
	// its outcome is learned by polling.
	if status == http.StatusConflict {
		refund := pendingRefund(req.RefundID)
		refund.StatusDescription = "refund already exists"
		return refund, nil
	}

	if status < 200 || status >= 300 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		msg := eb.Message
		if msg == "" {
			msg = fmt.Sprintf("gateway refund request failed with status %d", status)
		}
		span.SetStatus(codes.Error, msg)
		return nil, apperror.Gateway(status, msg, rawDetails(raw), nil)
	}

	var entity refundEntity
	if err := json.Unmarshal(raw, &entity); err != nil {
		return nil, apperror.Gateway(http.StatusBadGateway, "malformed gateway refund response", rawDetails(raw), err)
	}

	refund := entity.toRefund(req.RefundID)
	span.SetAttributes(attribute.String("gateway.status", string(refund.Status)))
	return refund, nil
}

func (c *httpClient) PollStatus(ctx context.Context, orderID, refundID string) *Refund {
	ctx, span := tracer.Start(ctx, "gateway.PollStatus", trace.WithAttributes(
		attribute.String("gateway.order_id", orderID),
		attribute.String("gateway.refund_id", refundID),
	))
	defer span.End()

	primary := fmt.Sprintf("%s/orders/%s/refunds/%s", c.baseURL, url.PathEscape(orderID), url.PathEscape(refundID))
	status, raw, err := c.do(ctx, http.MethodGet, primary, nil)
	if err == nil && status >= 200 && status < 300 {
		return decodeRefund(raw, refundID)
	}

	// The order-scoped lookup is not available on every account; fall back
	// to the refund-only lookup.
	if err == nil && (status == http.StatusNotFound || status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		fallback := fmt.Sprintf("%s/refunds/%s", c.baseURL, url.PathEscape(refundID))
		status, raw, err = c.do(ctx, http.MethodGet, fallback, nil)
		if err == nil && status >= 200 && status < 300 {
			return decodeRefund(raw, refundID)
		}
	}

	if err != nil {
		span.RecordError(err)
	}
	return pendingRefund(refundID)
}

func decodeRefund(raw []byte, refundID string) *Refund {
	var entity refundEntity
	if err := json.Unmarshal(raw, &entity); err != nil {
		return pendingRefund(refundID)
	}
	return entity.toRefund(refundID)
}

func (e refundEntity) toRefund(fallbackID string) *Refund {
	id := e.RefundID
	if id == "" {
		id = fallbackID
	}
	return &Refund{
		RefundID:          id,
		GatewayRefundID:   e.CFRefundID,
		GatewayPaymentID:  e.CFPaymentID,
		Status:            NormalizeStatus(e.RefundStatus),
		StatusDescription: e.StatusDescription,
	}
}

func (c *httpClient) do(ctx context.Context, method, endpoint string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-client-secret", c.clientSecret)
	req.Header.Set("x-api-version", c.apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, raw, nil
}

// rawDetails keeps the upstream payload for operators, as JSON when possible.
func rawDetails(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	return string(raw)
}
