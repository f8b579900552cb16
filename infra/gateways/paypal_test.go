package gateways

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/giovaniif/fundraising/domain"
	protocols "github.com/giovaniif/fundraising/protocols"
	"github.com/shopspring/decimal"
)

type fakePaypal struct {
	mutex       sync.Mutex
	tokenCalls  int
	created     []map[string]any
	executedFor []string
	payments    map[string]string // id -> captured total
	omitLinks   bool
	executeFail bool
}

func (f *fakePaypal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.mutex.Lock()
		f.tokenCalls++
		f.mutex.Unlock()
		if user, pass, ok := r.BasicAuth(); !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return false
		}
		return true
	}
	mux.HandleFunc("POST /v1/payments/payment", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("expected JSON body, got %v", err)
		}
		f.mutex.Lock()
		f.created = append(f.created, body)
		f.mutex.Unlock()
		w.WriteHeader(http.StatusCreated)
		if f.omitLinks {
			w.Write([]byte(`{"id":"PAY-NEW","state":"created","links":[{"href":"https://x/self","rel":"self"}]}`))
			return
		}
		w.Write([]byte(`{"id":"PAY-NEW","state":"created","links":[{"href":"https://x/self","rel":"self","method":"GET"},{"href":"https://paypal/approve?token=EC-1","rel":"approval_url","method":"REDIRECT"}]}`))
	})
	mux.HandleFunc("GET /v1/payments/payment/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		total, ok := f.payments[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"name":"INVALID_RESOURCE_ID","message":"Requested resource ID was not found."}`))
			return
		}
		w.Write([]byte(`{"id":"` + r.PathValue("id") + `","state":"created","transactions":[{"amount":{"total":"` + total + `","currency":"USD"}}]}`))
	})
	mux.HandleFunc("POST /v1/payments/payment/{id}/execute", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		var body paypalExecuteRequest
		json.NewDecoder(r.Body).Decode(&body)
		f.mutex.Lock()
		f.executedFor = append(f.executedFor, r.PathValue("id")+"/"+body.PayerId)
		f.mutex.Unlock()
		if f.executeFail {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"name":"PAYMENT_ALREADY_DONE"}`))
			return
		}
		total := f.payments[r.PathValue("id")]
		w.Write([]byte(`{"id":"` + r.PathValue("id") + `","state":"approved","transactions":[{"amount":{"total":"` + total + `","currency":"USD"}}]}`))
	})
	return mux
}

func newPaypalTest(t *testing.T, fake *fakePaypal) *PaymentGatewayPaypal {
	t.Helper()
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)
	return NewPaymentGatewayPaypal(server.URL, "client", "secret", server.Client())
}

func intentRequest() protocols.PaymentIntentRequest {
	return protocols.PaymentIntentRequest{
		Amount:      decimal.RequireFromString("25.5"),
		Currency:    "USD",
		ItemName:    "Donation to Toronto Suicide Prevention Center",
		Sku:         "toronto_canada",
		Description: "Donation to support Toronto Suicide Prevention Center",
		ReturnUrl:   "https://site/return",
		CancelUrl:   "https://site/cancel",
	}
}

func TestPaypalCreatePaymentIntent(t *testing.T) {
	fake := &fakePaypal{}
	gateway := newPaypalTest(t, fake)

	intent, err := gateway.CreatePaymentIntent(context.Background(), intentRequest())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if intent.Id != "PAY-NEW" {
		t.Fatalf("expected id PAY-NEW, got %s", intent.Id)
	}
	if intent.ApprovalUrl() != "https://paypal/approve?token=EC-1" {
		t.Fatalf("unexpected approval url %q", intent.ApprovalUrl())
	}
	if len(fake.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(fake.created))
	}

	body := fake.created[0]
	if body["intent"] != "sale" {
		t.Fatalf("expected sale intent, got %v", body["intent"])
	}
	transactions := body["transactions"].([]any)
	transaction := transactions[0].(map[string]any)
	amount := transaction["amount"].(map[string]any)
	if amount["total"] != "25.50" || amount["currency"] != "USD" {
		t.Fatalf("expected total 25.50 USD, got %v", amount)
	}
	item := transaction["item_list"].(map[string]any)["items"].([]any)[0].(map[string]any)
	if item["sku"] != "toronto_canada" || item["price"] != "25.50" || item["quantity"] != float64(1) {
		t.Fatalf("unexpected item %v", item)
	}
	redirects := body["redirect_urls"].(map[string]any)
	if redirects["return_url"] != "https://site/return" || redirects["cancel_url"] != "https://site/cancel" {
		t.Fatalf("unexpected redirect urls %v", redirects)
	}
}

func TestPaypalCreateWithoutApprovalLink(t *testing.T) {
	gateway := newPaypalTest(t, &fakePaypal{omitLinks: true})

	intent, err := gateway.CreatePaymentIntent(context.Background(), intentRequest())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if intent.ApprovalUrl() != "" {
		t.Fatalf("expected no approval url, got %q", intent.ApprovalUrl())
	}
}

func TestPaypalTokenIsReused(t *testing.T) {
	fake := &fakePaypal{}
	gateway := newPaypalTest(t, fake)

	for i := 0; i < 3; i++ {
		if _, err := gateway.CreatePaymentIntent(context.Background(), intentRequest()); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	}
	if fake.tokenCalls != 1 {
		t.Fatalf("expected one token request, got %d", fake.tokenCalls)
	}
}

func TestPaypalExecutePayment(t *testing.T) {
	fake := &fakePaypal{payments: map[string]string{"PAY-1": "75.00"}}
	gateway := newPaypalTest(t, fake)

	payment, err := gateway.ExecutePayment(context.Background(), "PAY-1", "PAYER-9")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !payment.Amount.Equal(decimal.NewFromInt(75)) || payment.Currency != "USD" {
		t.Fatalf("expected 75 USD, got %s %s", payment.Amount, payment.Currency)
	}
	if payment.Method != "paypal" || payment.PayerId != "PAYER-9" {
		t.Fatalf("unexpected payment %+v", payment)
	}
	if len(fake.executedFor) != 1 || fake.executedFor[0] != "PAY-1/PAYER-9" {
		t.Fatalf("expected execute with payer id, got %v", fake.executedFor)
	}
}

func TestPaypalExecuteUnknownPayment(t *testing.T) {
	fake := &fakePaypal{payments: map[string]string{}}
	gateway := newPaypalTest(t, fake)

	_, err := gateway.ExecutePayment(context.Background(), "PAY-404", "PAYER-9")
	if !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
	if len(fake.executedFor) != 0 {
		t.Fatalf("expected execute not to be called, got %v", fake.executedFor)
	}
}

func TestPaypalExecuteFailureCarriesDetails(t *testing.T) {
	fake := &fakePaypal{payments: map[string]string{"PAY-1": "75.00"}, executeFail: true}
	gateway := newPaypalTest(t, fake)

	_, err := gateway.ExecutePayment(context.Background(), "PAY-1", "PAYER-9")
	var gatewayErr *domain.GatewayError
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("expected *GatewayError, got %v", err)
	}
	if gatewayErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", gatewayErr.StatusCode)
	}
	if !strings.Contains(string(gatewayErr.Details), "PAYMENT_ALREADY_DONE") {
		t.Fatalf("expected provider details, got %s", gatewayErr.Details)
	}
}

func TestPaypalBadCredentials(t *testing.T) {
	server := httptest.NewServer((&fakePaypal{}).handler(t))
	defer server.Close()
	gateway := NewPaymentGatewayPaypal(server.URL, "client", "wrong", server.Client())

	_, err := gateway.CreatePaymentIntent(context.Background(), intentRequest())
	if !errors.Is(err, domain.ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
}

func TestPaypalTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()
	gateway := NewPaymentGatewayPaypal(server.URL, "client", "secret", server.Client())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := gateway.CreatePaymentIntent(ctx, intentRequest())
	if !errors.Is(err, domain.ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
}

func TestPaypalBaseUrl(t *testing.T) {
	if PaypalBaseUrl("live") != PaypalLiveBase {
		t.Fatalf("expected live base url")
	}
	if PaypalBaseUrl("sandbox") != PaypalSandboxBase || PaypalBaseUrl("") != PaypalSandboxBase {
		t.Fatalf("expected sandbox base url by default")
	}
}
