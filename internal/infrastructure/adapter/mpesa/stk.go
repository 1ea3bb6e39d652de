package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	"github.com/coinpesa/coinpesa/internal/domain/port/gateway"
)

// Daraja length limits for free-text fields
const (
	maxAccountRefLen  = 12
	maxDescriptionLen = 13
)

const timestampLayout = "20060102150405"

// stkPushRequest is the provider-specific push-payment payload
type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// stkPushResponse is the provider's synchronous acceptance envelope
type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Initiate sends one STK push request. The phone is normalized to canonical
// international form, the amount is rounded to whole currency units, and
// the password is derived as base64(shortcode + passkey + timestamp).
// Exactly one outbound call; no automatic retry.
func (c *Client) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	phone, err := entity.NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	amount := req.Amount.Round(0).IntPart()
	if amount < 1 {
		return nil, fmt.Errorf("%w: gateway amount must be at least 1", errs.ErrInvalidAmount)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := c.timeProvider.Now().Format(timestampLayout)
	password := base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.PassKey + timestamp))

	payload := stkPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount,
		PartyA:            phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  truncate(req.TransactionRef, maxAccountRefLen),
		TransactionDesc:   truncate(req.Description, maxDescriptionLen),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrInternalServer, err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrGatewayUnavailable, err.Error())
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrGatewayUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// The cached token went bad before its expiry; the next initiation
		// re-authenticates.
		c.invalidateToken()
		return nil, fmt.Errorf("%w: authentication failed", errs.ErrGatewayRejected)
	}

	var pushResp stkPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&pushResp); err != nil {
		return nil, fmt.Errorf("%w: decoding push response: %s", errs.ErrGatewayUnavailable, err.Error())
	}

	if pushResp.ResponseCode != "0" {
		c.logger.Warn("STK push declined", map[string]any{
			"response_code": pushResp.ResponseCode,
			"description":   pushResp.ResponseDescription,
			"transaction":   req.TransactionRef,
		})
		return nil, errs.NewGatewayError(pushResp.ResponseCode, pushResp.ResponseDescription)
	}

	c.logger.Info("STK push accepted", map[string]any{
		"checkout_request_id": pushResp.CheckoutRequestID,
		"merchant_request_id": pushResp.MerchantRequestID,
		"transaction":         req.TransactionRef,
	})

	return &gateway.InitiateResult{
		ExternalRef:       pushResp.CheckoutRequestID,
		MerchantRequestID: pushResp.MerchantRequestID,
		Description:       pushResp.ResponseDescription,
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
