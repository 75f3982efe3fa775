package phonepe

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/samirrijal/medifly/internal/core/domain"
)

const (
	SandboxURL    = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	ProductionURL = "https://api.phonepe.com/apis/hermes"

	payEndpoint = "/pg/v1/pay"
)

// ErrBadSignature is returned when a callback checksum does not verify.
var ErrBadSignature = fmt.Errorf("phonepe: invalid callback signature: %w", domain.ErrUnauthorized)

// Config holds merchant credentials and redirect targets.
type Config struct {
	MerchantID  string `mapstructure:"merchant_id"`
	SaltKey     string `mapstructure:"salt_key"`
	SaltIndex   string `mapstructure:"salt_index"`
	Production  bool   `mapstructure:"production"`
	BaseURL     string `mapstructure:"base_url"` // overrides the environment URL
	RedirectURL string `mapstructure:"redirect_url"`
	CallbackURL string `mapstructure:"callback_url"`
}

// Client implements ports.PaymentGateway against the PhonePe PG v1 API.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

// New creates a PhonePe client. httpClient may be nil.
func New(cfg Config, httpClient *http.Client) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = SandboxURL
		if cfg.Production {
			base = ProductionURL
		}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{cfg: cfg, baseURL: strings.TrimRight(base, "/"), httpClient: httpClient}
}

// Checksum computes the X-VERIFY header for payload sent to endpoint.
func (c *Client) Checksum(payload, endpoint string) string {
	sum := sha256.Sum256([]byte(payload + endpoint + c.cfg.SaltKey))
	return hex.EncodeToString(sum[:]) + "###" + c.cfg.SaltIndex
}

type payRequest struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"` // paise
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber"`
	PaymentInstrument     map[string]string `json:"paymentInstrument"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		State                 string `json:"state"`
		ResponseCode          string `json:"responseCode"`
		InstrumentResponse    struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

// Initiate opens a hosted pay page for order.
func (c *Client) Initiate(ctx context.Context, order *domain.Order, transactionID, userID string) (*domain.PaymentSession, error) {
	payload, err := json.Marshal(payRequest{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: transactionID,
		MerchantUserID:        "USER_" + userID,
		Amount:                int64(math.Round(order.TotalAmount * 100)),
		RedirectURL:           c.cfg.RedirectURL + "?orderId=" + order.ID,
		RedirectMode:          "POST",
		CallbackURL:           c.cfg.CallbackURL,
		MobileNumber:          order.Phone,
		PaymentInstrument:     map[string]string{"type": "PAY_PAGE"},
	})
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(payload)
	body, _ := json.Marshal(map[string]string{"request": encoded})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+payEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", c.Checksum(encoded, payEndpoint))

	res, err := c.do(req)
	if err != nil {
		return nil, err
	}
	url := res.Data.InstrumentResponse.RedirectInfo.URL
	if !res.Success || url == "" {
		msg := res.Message
		if msg == "" {
			msg = "payment initiation failed"
		}
		return nil, fmt.Errorf("phonepe: %s", msg)
	}
	return &domain.PaymentSession{TransactionID: transactionID, PaymentURL: url}, nil
}

// Status fetches the state of a transaction.
func (c *Client) Status(ctx context.Context, transactionID string) (*domain.PaymentResult, error) {
	endpoint := fmt.Sprintf("/pg/v1/status/%s/%s", c.cfg.MerchantID, transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", c.Checksum("", endpoint))
	req.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)

	res, err := c.do(req)
	if err != nil {
		return nil, err
	}
	out := result(res)
	out.TransactionID = transactionID
	return out, nil
}

// ParseCallback verifies signature over the callback's base64 response and
// decodes it.
func (c *Client) ParseCallback(_ context.Context, body []byte, signature string) (*domain.PaymentResult, error) {
	var envelope struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Response == "" {
		return nil, fmt.Errorf("%w: malformed callback body", domain.ErrInvalidArgument)
	}

	want := c.Checksum(envelope.Response, "")
	if subtle.ConstantTimeCompare([]byte(want), []byte(signature)) != 1 {
		return nil, ErrBadSignature
	}

	decoded, err := base64.StdEncoding.DecodeString(envelope.Response)
	if err != nil {
		return nil, fmt.Errorf("%w: callback payload is not base64", domain.ErrInvalidArgument)
	}
	var res apiResponse
	if err := json.Unmarshal(decoded, &res); err != nil {
		return nil, fmt.Errorf("%w: callback payload: %v", domain.ErrInvalidArgument, err)
	}
	out := result(&res)
	out.TransactionID = res.Data.MerchantTransactionID
	return out, nil
}

func (c *Client) do(req *http.Request) (*apiResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("phonepe request: %w", err)
	}
	defer resp.Body.Close()

	var res apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("phonepe decode (status %d): %w", resp.StatusCode, err)
	}
	return &res, nil
}

func result(res *apiResponse) *domain.PaymentResult {
	out := &domain.PaymentResult{
		GatewayTransactionID: res.Data.TransactionID,
		State:                res.Data.State,
		Message:              res.Message,
	}
	switch {
	case res.Success && res.Data.State == "COMPLETED":
		out.Status = domain.PaymentCompleted
	case res.Data.State == "FAILED":
		out.Status = domain.PaymentFailed
		if res.Data.ResponseCode != "" {
			out.Message = res.Data.ResponseCode
		}
	default:
		out.Status = domain.PaymentPending
		if out.State == "" {
			out.State = "PENDING"
		}
	}
	return out
}
