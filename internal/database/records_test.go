package database

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/subscription"
	svcerrors "github.com/SolMeet-Labs/access_layer/internal/errors"
)

func newTestRecords(t *testing.T, handler http.HandlerFunc) *Records {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL, ServiceKey: "test-key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return NewRecords(client)
}

func TestGetSubscriptionFound(t *testing.T) {
	records := newTestRecords(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/rest/v1/users" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "eq.p-1" {
			t.Errorf("unexpected id filter %q", got)
		}
		if r.Header.Get("apikey") != "test-key" {
			t.Errorf("missing apikey header")
		}
		w.Write([]byte(`[{"id":"p-1","subscribed":true}]`))
	})

	record, found, err := records.GetSubscription(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || record.PrincipalID != "p-1" || !record.Subscribed {
		t.Fatalf("unexpected record: %+v found=%v", record, found)
	}
}

func TestGetSubscriptionAbsent(t *testing.T) {
	records := newTestRecords(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, found, err := records.GetSubscription(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatalf("expected not found for an empty result set")
	}
}

func TestGetSubscriptionDenied(t *testing.T) {
	records := newTestRecords(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusForbidden)
	})

	_, _, err := records.GetSubscription(context.Background(), "p-1")
	if !svcerrors.HasCode(err, svcerrors.CodeStoreDenied) {
		t.Fatalf("expected STORE_DENIED, got %v", err)
	}
}

func TestGetSubscriptionUnavailable(t *testing.T) {
	records := newTestRecords(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, _, err := records.GetSubscription(context.Background(), "p-1")
	if !svcerrors.HasCode(err, svcerrors.CodeStoreUnavailable) {
		t.Fatalf("expected STORE_UNAVAILABLE, got %v", err)
	}
}

func TestPutSubscription(t *testing.T) {
	var body map[string]interface{}
	records := newTestRecords(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`[{"id":"p-1","subscribed":true}]`))
	})

	err := records.PutSubscription(context.Background(), subscription.Record{PrincipalID: "p-1", Subscribed: true})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if body["id"] != "p-1" || body["subscribed"] != true {
		t.Fatalf("unexpected payload: %v", body)
	}
}

func TestPutSubscriptionRequiresPrincipal(t *testing.T) {
	records := newTestRecords(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})

	if err := records.PutSubscription(context.Background(), subscription.Record{}); err == nil {
		t.Fatalf("expected error for an empty principal id")
	}
}
