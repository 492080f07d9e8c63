package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"competition-service/src/internal/model"
	"competition-service/src/pkg/log"

	"github.com/spf13/viper"
)

const timestampLayout = "20060102150405"

// Callback paths registered with the gateway. The router must expose the
// same paths.
const (
	DepositCallbackPath       = "/api/payments/callback/deposit"
	PayoutCallbackPath        = "/api/payments/callback/payout"
	PayoutTimeoutCallbackPath = "/api/payments/callback/payout-timeout"
)

type Config struct {
	BaseURL            string
	ConsumerKey        string
	ConsumerSecret     string
	ShortCode          string
	Passkey            string
	B2CShortCode       string
	InitiatorName      string
	InitiatorPassword  string
	SecurityCredential string
	CertPath           string
	CallbackBaseURL    string
	Environment        string
	MinAmount          int64
	MaxAmount          int64
}

func LoadConfig(v *viper.Viper) Config {
	return Config{
		BaseURL:            v.GetString("mpesa.base_url"),
		ConsumerKey:        v.GetString("mpesa.consumer_key"),
		ConsumerSecret:     v.GetString("mpesa.consumer_secret"),
		ShortCode:          v.GetString("mpesa.shortcode"),
		Passkey:            v.GetString("mpesa.passkey"),
		B2CShortCode:       v.GetString("mpesa.b2c_shortcode"),
		InitiatorName:      v.GetString("mpesa.initiator_name"),
		InitiatorPassword:  v.GetString("mpesa.initiator_password"),
		SecurityCredential: v.GetString("mpesa.security_credential"),
		CertPath:           v.GetString("mpesa.cert_path"),
		CallbackBaseURL:    v.GetString("mpesa.callback_base_url"),
		Environment:        v.GetString("mpesa.environment"),
		MinAmount:          v.GetInt64("mpesa.min_amount"),
		MaxAmount:          v.GetInt64("mpesa.max_amount"),
	}
}

// RequestError is a rejection from the gateway itself, as opposed to a
// transport failure.
type RequestError struct {
	Code        int
	Description string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("mpesa: request rejected with code %d: %s", e.Code, e.Description)
}

type DepositResult struct {
	CheckoutID  string
	MerchantID  string
	Description string
}

type PayoutResult struct {
	ConversationID string
	Description    string
}

// Gateway is the payment provider surface the payment usecase depends on.
type Gateway interface {
	RequestDeposit(ctx context.Context, phone string, amount int64, reference string) (*DepositResult, error)
	QueryDepositStatus(ctx context.Context, checkoutID string) (*model.GatewayResult, error)
	RequestPayout(ctx context.Context, originatorID, phone string, amount int64, remarks string) (*PayoutResult, error)
	ValidateAmount(amount int64) error
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        log.Log

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(cfg Config, logger log.Log) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger,
	}
}

func (c *Client) ValidateAmount(amount int64) error {
	min := c.cfg.MinAmount
	if min <= 0 {
		min = 1
	}
	max := c.cfg.MaxAmount
	if max <= 0 {
		max = 250000
	}
	if amount < min || amount > max {
		return &RequestError{
			Code:        http.StatusBadRequest,
			Description: fmt.Sprintf("amount must be between %d and %d", min, max),
		}
	}
	return nil
}

// token returns a cached OAuth token, refreshing once it is past 90% of its
// lifetime. Callers may race; the mutex makes the refresh single flight.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &RequestError{Code: resp.StatusCode, Description: "token request failed"}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", &RequestError{Code: http.StatusBadGateway, Description: "empty access token"}
	}

	ttl, err := strconv.Atoi(body.ExpiresIn)
	if err != nil || ttl <= 0 {
		ttl = 3600
	}
	c.accessToken = body.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(ttl) * time.Second * 9 / 10)
	return c.accessToken, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var gwErr struct {
			ErrorCode    string `json:"errorCode"`
			ErrorMessage string `json:"errorMessage"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&gwErr)
		desc := gwErr.ErrorMessage
		if desc == "" {
			desc = "gateway request failed"
		}
		return &RequestError{Code: resp.StatusCode, Description: desc}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) stkPassword(timestamp string) string {
	return base64.StdEncoding.EncodeToString(
		[]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp))
}

func (c *Client) RequestDeposit(ctx context.Context, phone string, amount int64, reference string) (*DepositResult, error) {
	if err := c.ValidateAmount(amount); err != nil {
		return nil, err
	}
	msisdn, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format(timestampLayout)
	payload := map[string]interface{}{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          c.stkPassword(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            amount,
		"PartyA":            msisdn,
		"PartyB":            c.cfg.ShortCode,
		"PhoneNumber":       msisdn,
		"CallBackURL":       c.cfg.CallbackBaseURL + DepositCallbackPath,
		"AccountReference":  reference,
		"TransactionDesc":   "Wallet deposit",
	}

	var resp struct {
		CheckoutRequestID   string `json:"CheckoutRequestID"`
		MerchantRequestID   string `json:"MerchantRequestID"`
		ResponseCode        string `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
		CustomerMessage     string `json:"CustomerMessage"`
	}
	if err := c.postJSON(ctx, "/mpesa/stkpush/v1/processrequest", payload, &resp); err != nil {
		return nil, err
	}
	if code, _ := strconv.Atoi(resp.ResponseCode); code != 0 {
		return nil, &RequestError{Code: code, Description: resp.ResponseDescription}
	}

	return &DepositResult{
		CheckoutID:  resp.CheckoutRequestID,
		MerchantID:  resp.MerchantRequestID,
		Description: resp.CustomerMessage,
	}, nil
}

func (c *Client) QueryDepositStatus(ctx context.Context, checkoutID string) (*model.GatewayResult, error) {
	timestamp := time.Now().Format(timestampLayout)
	payload := map[string]interface{}{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          c.stkPassword(timestamp),
		"Timestamp":         timestamp,
		"CheckoutRequestID": checkoutID,
	}

	var resp struct {
		ResponseCode        string `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
		ResultCode          string `json:"ResultCode"`
		ResultDesc          string `json:"ResultDesc"`
	}
	if err := c.postJSON(ctx, "/mpesa/stkpushquery/v1/query", payload, &resp); err != nil {
		return nil, err
	}
	if code, _ := strconv.Atoi(resp.ResponseCode); code != 0 {
		return nil, &RequestError{Code: code, Description: resp.ResponseDescription}
	}

	code, err := strconv.Atoi(resp.ResultCode)
	if err != nil {
		return nil, fmt.Errorf("mpesa: unparseable result code %q", resp.ResultCode)
	}
	return &model.GatewayResult{
		Code:        code,
		Description: resp.ResultDesc,
	}, nil
}

func (c *Client) RequestPayout(ctx context.Context, originatorID, phone string, amount int64, remarks string) (*PayoutResult, error) {
	if err := c.ValidateAmount(amount); err != nil {
		return nil, err
	}
	msisdn, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	credential, err := securityCredential(c.cfg)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"OriginatorConversationID": originatorID,
		"InitiatorName":            c.cfg.InitiatorName,
		"SecurityCredential":       credential,
		"CommandID":                "BusinessPayment",
		"Amount":                   amount,
		"PartyA":                   c.cfg.B2CShortCode,
		"PartyB":                   msisdn,
		"Remarks":                  remarks,
		"QueueTimeOutURL":          c.cfg.CallbackBaseURL + PayoutTimeoutCallbackPath,
		"ResultURL":                c.cfg.CallbackBaseURL + PayoutCallbackPath,
		"Occasion":                 "",
	}

	var resp struct {
		ConversationID           string `json:"ConversationID"`
		OriginatorConversationID string `json:"OriginatorConversationID"`
		ResponseCode             string `json:"ResponseCode"`
		ResponseDescription      string `json:"ResponseDescription"`
	}
	if err := c.postJSON(ctx, "/mpesa/b2c/v1/paymentrequest", payload, &resp); err != nil {
		return nil, err
	}
	if code, _ := strconv.Atoi(resp.ResponseCode); code != 0 {
		return nil, &RequestError{Code: code, Description: resp.ResponseDescription}
	}

	return &PayoutResult{
		ConversationID: resp.ConversationID,
		Description:    resp.ResponseDescription,
	}, nil
}
