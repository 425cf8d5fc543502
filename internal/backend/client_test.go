package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/fieldline/paydesk/internal/config"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type recordingSink struct {
	mu      sync.Mutex
	offline bool
	calls   int
}

func (r *recordingSink) SetOffline(offline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offline = offline
	r.calls++
}

func (r *recordingSink) isOffline() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offline
}

func TestCallFunction_RequiresToken(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	c := New(server.URL, staticToken(""), 100)
	_, err := c.CallFunction(context.Background(), "updateAppData", nil)
	if !errors.Is(err, config.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if requests != 0 {
		t.Errorf("expected no HTTP traffic without a token, saw %d requests", requests)
	}
}

func TestCallFunction_SendsFormAndToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-abc" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("functionName"); got != "getCurrentValue" {
			t.Errorf("functionName = %q", got)
		}
		if got := r.PostForm.Get("token"); got != "tok-abc" {
			t.Errorf("token = %q", got)
		}
		if got := r.PostForm.Get("amount"); got != "20" {
			t.Errorf("amount = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"orderId":"ord-1","amount":"20","timeRemaining":300,"exchangeRate":"65000","btcAmount":"0.0003","ethAmount":"0.008","usdtAmount":"20"}}`))
	}))
	defer server.Close()

	c := New(server.URL, staticToken("tok-abc"), 100)
	data, err := c.GetCurrentValue(context.Background(), "20")
	if err != nil {
		t.Fatalf("GetCurrentValue: %v", err)
	}
	if data.OrderID != "ord-1" {
		t.Errorf("orderId = %q, want ord-1", data.OrderID)
	}
	if data.BTCAmount != "0.0003" {
		t.Errorf("btcAmount = %q", data.BTCAmount)
	}
}

func TestGetCurrentValue_TimeRemainingPassedThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"orderId":"ord-1","amount":"20","exchangeRate":"65000","btcAmount":"0.0003","ethAmount":"0.008","usdtAmount":"20"}}`))
	}))
	defer server.Close()

	c := New(server.URL, staticToken("tok-abc"), 100)
	data, err := c.GetCurrentValue(context.Background(), "20")
	if err != nil {
		t.Fatalf("GetCurrentValue: %v", err)
	}
	if data.TimeRemaining != 0 {
		t.Errorf("timeRemaining = %d, want the field as the backend sent it", data.TimeRemaining)
	}
}

func TestCallFunction_ClassifiesRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"error":"Insufficient balance"}`))
	}))
	defer server.Close()

	c := New(server.URL, staticToken("tok-abc"), 100)
	_, err := c.CallFunction(context.Background(), "processInternalPayment", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsCode(err, config.ErrorInsufficientBalance) {
		t.Errorf("expected ERROR_INSUFFICIENT_BALANCE, got %v", err)
	}
}

func TestCall_OfflineMarking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{}}`))
	}))

	sink := &recordingSink{}
	c := New(server.URL, staticToken("tok-abc"), 100)
	c.SetOfflineSink(sink)

	// Reachable backend clears the flag.
	if _, err := c.CallFunction(context.Background(), "logout", nil); err != nil {
		t.Fatalf("CallFunction: %v", err)
	}
	if sink.isOffline() {
		t.Error("expected online after successful exchange")
	}

	// Killing the server turns transport failures into ErrOffline.
	server.Close()
	_, err := c.CallFunction(context.Background(), "logout", nil)
	if !errors.Is(err, config.ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
	if !sink.isOffline() {
		t.Error("expected offline after transport failure")
	}
}

func TestCall_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway timeout</html>`))
	}))
	defer server.Close()

	c := New(server.URL, staticToken("tok-abc"), 100)
	_, err := c.CallFunction(context.Background(), "updateAppData", nil)
	if !errors.Is(err, config.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestUpdateAppData_SplitsPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"data": {
				"user": {"id":"u1","username":"ops","balance":"120.50"},
				"transactions": {
					"success": true,
					"headers": ["id","reference","timestamp","userId","type","amount","currency","status"],
					"data": [["1","ord-1","2026-08-01","u1","deposit","20","USD","pending"]],
					"count": 1
				},
				"settings": {"theme":"dark"}
			}
		}`))
	}))
	defer server.Close()

	c := New(server.URL, staticToken("tok-abc"), 100)
	payload, err := c.UpdateAppData(context.Background())
	if err != nil {
		t.Fatalf("UpdateAppData: %v", err)
	}

	if payload.User == nil || payload.User.Username != "ops" {
		t.Errorf("user not decoded: %+v", payload.User)
	}
	table, ok := payload.Tables["transactions"]
	if !ok {
		t.Fatal("transactions table not recognized")
	}
	if table.Count != 1 || len(table.Data) != 1 {
		t.Errorf("unexpected table: %+v", table)
	}
	if _, ok := payload.Extra["settings"]; !ok {
		t.Error("non-table key should land in Extra")
	}
	if _, ok := payload.Tables["settings"]; ok {
		t.Error("settings object misclassified as a table")
	}
}

func TestCallFunctionWithRetry_RejectionIsFinal(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"error":"Invalid token"}`))
	}))
	defer server.Close()

	c := New(server.URL, staticToken("tok-abc"), 100)
	_, err := c.CallFunctionWithRetry(context.Background(), "buyUsAdrink", nil)
	if !IsCode(err, config.ErrorUnauthenticated) {
		t.Fatalf("expected ERROR_UNAUTHENTICATED, got %v", err)
	}
	if requests != 1 {
		t.Errorf("backend rejection must not be retried, saw %d requests", requests)
	}
}

func TestFeatureCall_RejectsUnknownFunction(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	c := New(server.URL, staticToken("tok-abc"), 100)
	_, err := c.FeatureCall(context.Background(), "dropAllTables", nil)
	if !errors.Is(err, config.ErrBackendRejected) {
		t.Fatalf("expected ErrBackendRejected, got %v", err)
	}
	if requests != 0 {
		t.Errorf("unknown function must not reach the backend, saw %d requests", requests)
	}
}
