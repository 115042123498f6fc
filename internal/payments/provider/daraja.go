package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"spacer/pkg/client"
	"spacer/pkg/config"
	apperrors "spacer/pkg/errors"
	"spacer/pkg/logger"
	"time"
)

// PaymentProvider initiates a provider-side payment and returns the
// external reference later used to reconcile the outcome.
type PaymentProvider interface {
	InitiateSTKPush(ctx context.Context, phone string, amount float64, reference string) (string, error)
}

// DarajaClient talks to the Safaricom Daraja sandbox. Calls to it must
// never happen while holding a booking lock or inside a transaction.
type DarajaClient struct {
	http *client.HttpClient
	cfg  *config.Config
	log  *logger.Logger
	now  func() time.Time
}

func NewDarajaClient(cfg *config.Config) *DarajaClient {
	return &DarajaClient{
		http: client.NewHttpClient(cfg.MpesaBaseURL, cfg.MpesaTimeout),
		cfg:  cfg,
		log:  cfg.Log,
		now:  time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// STKCallback is the asynchronous payment outcome Daraja posts to the
// callback URL.
type STKCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

func (c *STKCallback) Reference() string {
	return c.Body.StkCallback.CheckoutRequestID
}

func (c *STKCallback) Success() bool {
	return c.Body.StkCallback.ResultCode == 0
}

func (d *DarajaClient) InitiateSTKPush(ctx context.Context, phone string, amount float64, reference string) (string, error) {
	token, err := d.accessToken(ctx)
	if err != nil {
		return "", err
	}

	timestamp := d.now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString(
		[]byte(d.cfg.MpesaShortCode + d.cfg.MpesaPasskey + timestamp),
	)

	req := stkPushRequest{
		BusinessShortCode: d.cfg.MpesaShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            fmt.Sprintf("%.0f", amount),
		PartyA:            phone,
		PartyB:            d.cfg.MpesaShortCode,
		PhoneNumber:       phone,
		CallBackURL:       d.cfg.MpesaCallbackURL,
		AccountReference:  reference,
		TransactionDesc:   "Space booking payment",
	}

	resp, err := d.http.POST(ctx, "/mpesa/stkpush/v1/processrequest", req, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		d.log.Error("STK push request failed", "error", err)
		return "", apperrors.Unavailable("Payment provider")
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		d.log.Error("STK push returned server error", "status", resp.StatusCode)
		return "", apperrors.Unavailable("Payment provider")
	}

	var pushResp stkPushResponse
	if err := resp.DecodeJSON(&pushResp); err != nil {
		d.log.Error("Failed to decode STK push response", "error", err)
		return "", apperrors.Unavailable("Payment provider")
	}

	if pushResp.ResponseCode != "0" {
		d.log.Warn("STK push rejected",
			"response_code", pushResp.ResponseCode,
			"description", pushResp.ResponseDescription,
		)
		return "", apperrors.InvalidInput("Payment request rejected: " + pushResp.ResponseDescription)
	}

	d.log.Info("STK push accepted",
		"checkout_request_id", pushResp.CheckoutRequestID,
		"reference", reference,
	)
	return pushResp.CheckoutRequestID, nil
}

func (d *DarajaClient) accessToken(ctx context.Context) (string, error) {
	credentials := base64.StdEncoding.EncodeToString(
		[]byte(d.cfg.MpesaConsumerKey + ":" + d.cfg.MpesaConsumerSecret),
	)

	resp, err := d.http.GET(ctx, "/oauth/v1/generate?grant_type=client_credentials", map[string]string{
		"Authorization": "Basic " + credentials,
	})
	if err != nil {
		d.log.Error("Failed to obtain provider token", "error", err)
		return "", apperrors.Unavailable("Payment provider")
	}
	if resp.StatusCode != http.StatusOK {
		d.log.Error("Provider token request rejected", "status", resp.StatusCode)
		return "", apperrors.Unavailable("Payment provider")
	}

	var token tokenResponse
	if err := resp.DecodeJSON(&token); err != nil || token.AccessToken == "" {
		return "", apperrors.Unavailable("Payment provider")
	}

	return token.AccessToken, nil
}
