package mpesa

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	"github.com/coinpesa/coinpesa/internal/domain/port/gateway"
)

// callbackEnvelope mirrors the Daraja result POST:
//
//	{"Body":{"stkCallback":{"MerchantRequestID":...,"CheckoutRequestID":...,
//	 "ResultCode":0,"ResultDesc":...,"CallbackMetadata":{"Item":[...]}}}}
type callbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []metadataItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type metadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

// ParseCallback decodes a raw Daraja callback body into the provider-neutral
// result the settlement path consumes. The callback's amount is informational
// only; settlement uses the transaction's own snapshot.
func ParseCallback(raw []byte) (*gateway.CallbackResult, error) {
	var envelope callbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed callback payload: %s", errs.ErrInternalServer, err.Error())
	}

	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: callback missing CheckoutRequestID", errs.ErrInternalServer)
	}

	result := &gateway.CallbackResult{
		ExternalRef: cb.CheckoutRequestID,
		ResultCode:  cb.ResultCode,
		ResultDesc:  cb.ResultDesc,
	}

	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			var receipt string
			if err := json.Unmarshal(item.Value, &receipt); err == nil {
				result.ReceiptNumber = receipt
			}
		case "PhoneNumber":
			// Arrives as a bare number
			var phone json.Number
			if err := json.Unmarshal(item.Value, &phone); err == nil {
				result.Phone = phone.String()
			}
		case "Amount":
			var amount decimal.Decimal
			if err := json.Unmarshal(item.Value, &amount); err == nil {
				result.Amount = amount
			}
		case "TransactionDate":
			// yyyymmddhhmmss as a number
			var date json.Number
			if err := json.Unmarshal(item.Value, &date); err == nil {
				if t, perr := time.Parse(timestampLayout, date.String()); perr == nil {
					result.PaidAt = t
				}
			}
		}
	}

	return result, nil
}
