package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mimir/domain/book"
	"mimir/infra/sequence"
	"mimir/pkg/fixedpoint"
	"mimir/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	conv, err := fixedpoint.New("0.01")
	if err != nil {
		t.Fatal(err)
	}
	svc := service.New(book.New(book.Config{BlockSize: 16}), sequence.New(0), nil)
	srv := New(svc, conv, 10, 50*time.Millisecond)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, m
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/orders",
		`{"order_id":1,"side":"bid","price":"100.50","qty":10}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body %v", resp.StatusCode, body)
	}
	if body["status"] != "resting" || body["request_id"] == "" {
		t.Errorf("create body = %v", body)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/depth?depth=5", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("depth status = %d", resp.StatusCode)
	}
	bids := body["bids"].([]any)
	if len(bids) != 1 {
		t.Fatalf("depth bids = %v", bids)
	}
	top := bids[0].(map[string]any)
	if top["price"] != "100.5" || top["qty"].(float64) != 10 {
		t.Errorf("top bid = %v", top)
	}

	resp, _ = doJSON(t, http.MethodPatch, ts.URL+"/api/v1/orders/1", `{"price":"100.75","qty":6}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("amend status = %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/orders/1", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "cancelled" {
		t.Fatalf("cancel status = %d body = %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/orders/1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second cancel status = %d, want 404", resp.StatusCode)
	}
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPost, "/api/v1/orders", `garbage`, http.StatusBadRequest},
		{http.MethodPost, "/api/v1/orders", `{"order_id":1,"side":"up","price":"1","qty":1}`, http.StatusBadRequest},
		{http.MethodPost, "/api/v1/orders", `{"order_id":1,"side":"bid","price":"1.005","qty":1}`, http.StatusBadRequest},
		{http.MethodPost, "/api/v1/orders", `{"order_id":1,"side":"bid","price":"1.00","qty":0}`, http.StatusBadRequest},
		{http.MethodDelete, "/api/v1/orders/notanumber", ``, http.StatusBadRequest},
		{http.MethodGet, "/api/v1/orders", ``, http.StatusMethodNotAllowed},
		{http.MethodPatch, "/api/v1/orders/5", `{"price":"1.00","qty":2}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		resp, _ := doJSON(t, tc.method, ts.URL+tc.path, tc.body)
		if resp.StatusCode != tc.want {
			t.Errorf("%s %s -> %d, want %d", tc.method, tc.path, resp.StatusCode, tc.want)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz = %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/metricsz", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metricsz status = %d", resp.StatusCode)
	}
	if _, ok := body["orders_accepted"]; !ok {
		t.Errorf("metricsz body = %v", body)
	}
}
