package gateways

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

	"github.com/giovaniif/fundraising/domain"
	"github.com/giovaniif/fundraising/infra/tracing"
	protocols "github.com/giovaniif/fundraising/protocols"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	PaypalSandboxBase = "https://api-m.sandbox.paypal.com"
	PaypalLiveBase    = "https://api-m.paypal.com"
)

func PaypalBaseUrl(mode string) string {
	if mode == "live" {
		return PaypalLiveBase
	}
	return PaypalSandboxBase
}

// PaymentGatewayPaypal talks to the PayPal v1 Payments REST API.
type PaymentGatewayPaypal struct {
	baseUrl    string
	httpClient *http.Client
}

// NewPaymentGatewayPaypal builds a client whose requests carry a bearer token
// obtained with the client credentials grant and refreshed when it expires.
func NewPaymentGatewayPaypal(baseUrl, clientId, clientSecret string, httpClient *http.Client) *PaymentGatewayPaypal {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseUrl = strings.TrimSuffix(baseUrl, "/")
	credentials := clientcredentials.Config{
		ClientID:     clientId,
		ClientSecret: clientSecret,
		TokenURL:     baseUrl + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	return &PaymentGatewayPaypal{
		baseUrl:    baseUrl,
		httpClient: credentials.Client(tokenCtx),
	}
}

type paypalLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

type paypalAmount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type paypalItem struct {
	Name     string `json:"name"`
	Sku      string `json:"sku"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Quantity int    `json:"quantity"`
}

type paypalItemList struct {
	Items []paypalItem `json:"items"`
}

type paypalTransaction struct {
	ItemList    *paypalItemList `json:"item_list,omitempty"`
	Amount      paypalAmount    `json:"amount"`
	Description string          `json:"description,omitempty"`
}

type paypalPayment struct {
	Id           string              `json:"id,omitempty"`
	Intent       string              `json:"intent,omitempty"`
	State        string              `json:"state,omitempty"`
	Payer        *paypalPayer        `json:"payer,omitempty"`
	RedirectUrls *paypalRedirectUrls `json:"redirect_urls,omitempty"`
	Transactions []paypalTransaction `json:"transactions"`
	Links        []paypalLink        `json:"links,omitempty"`
}

type paypalPayer struct {
	PaymentMethod string `json:"payment_method"`
}

type paypalRedirectUrls struct {
	ReturnUrl string `json:"return_url"`
	CancelUrl string `json:"cancel_url"`
}

type paypalExecuteRequest struct {
	PayerId string `json:"payer_id"`
}

func (p *PaymentGatewayPaypal) CreatePaymentIntent(ctx context.Context, request protocols.PaymentIntentRequest) (*protocols.PaymentIntent, error) {
	ctx, span := tracing.Start(ctx, "paypal.create_payment")
	defer span.End()

	price := request.Amount.StringFixed(2)
	transaction := paypalTransaction{
		ItemList: &paypalItemList{Items: []paypalItem{{
			Name:     request.ItemName,
			Sku:      request.Sku,
			Price:    price,
			Currency: request.Currency,
			Quantity: 1,
		}}},
		Amount:      paypalAmount{Total: price, Currency: request.Currency},
		Description: request.Description,
	}
	payload := paypalPayment{
		Intent:       "sale",
		Payer:        &paypalPayer{PaymentMethod: "paypal"},
		RedirectUrls: &paypalRedirectUrls{ReturnUrl: request.ReturnUrl, CancelUrl: request.CancelUrl},
		Transactions: []paypalTransaction{transaction},
	}

	var created paypalPayment
	status, err := p.do(ctx, "create payment", http.MethodPost, "/v1/payments/payment", payload, &created)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		err := &domain.GatewayError{Op: "create payment", StatusCode: status}
		tracing.RecordError(span, err)
		return nil, err
	}

	links := make([]protocols.Link, 0, len(created.Links))
	for _, l := range created.Links {
		links = append(links, protocols.Link{Href: l.Href, Rel: l.Rel, Method: l.Method})
	}
	return &protocols.PaymentIntent{Id: created.Id, Links: links}, nil
}

// ExecutePayment looks the payment up first so an unknown id surfaces as
// PaymentNotFound rather than a generic execute failure.
func (p *PaymentGatewayPaypal) ExecutePayment(ctx context.Context, paymentId string, payerId string) (*protocols.ExecutedPayment, error) {
	ctx, span := tracing.Start(ctx, "paypal.execute_payment")
	defer span.End()

	path := "/v1/payments/payment/" + url.PathEscape(paymentId)
	var found paypalPayment
	if _, err := p.do(ctx, "find payment", http.MethodGet, path, nil, &found); err != nil {
		err = notFoundAsPayment(err, paymentId)
		tracing.RecordError(span, err)
		return nil, err
	}

	var executed paypalPayment
	if _, err := p.do(ctx, "execute payment", http.MethodPost, path+"/execute", paypalExecuteRequest{PayerId: payerId}, &executed); err != nil {
		err = notFoundAsPayment(err, paymentId)
		tracing.RecordError(span, err)
		return nil, err
	}
	if len(executed.Transactions) == 0 {
		return nil, domain.NewGatewayProtocolError("execute response has no transactions")
	}
	amount := executed.Transactions[0].Amount
	total, err := decimal.NewFromString(amount.Total)
	if err != nil {
		return nil, domain.NewGatewayProtocolError(fmt.Sprintf("execute response amount %q is not a number", amount.Total))
	}
	return &protocols.ExecutedPayment{
		Id:       paymentId,
		PayerId:  payerId,
		Method:   "paypal",
		Amount:   total,
		Currency: amount.Currency,
	}, nil
}

func notFoundAsPayment(err error, paymentId string) error {
	var gatewayErr *domain.GatewayError
	if errors.As(err, &gatewayErr) && gatewayErr.StatusCode == http.StatusNotFound {
		return domain.NewPaymentNotFoundError(paymentId)
	}
	return err
}

// do sends one JSON request. Any non-2xx status becomes a *GatewayError
// carrying PayPal's error body.
func (p *PaymentGatewayPaypal) do(ctx context.Context, op, method, path string, payload any, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewBuffer(payloadBytes)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseUrl+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, &domain.GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &domain.GatewayError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gatewayErr := &domain.GatewayError{Op: op, StatusCode: resp.StatusCode}
		if json.Valid(raw) {
			gatewayErr.Details = raw
		}
		return resp.StatusCode, gatewayErr
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, domain.NewGatewayProtocolError(op + ": " + err.Error())
		}
	}
	return resp.StatusCode, nil
}
