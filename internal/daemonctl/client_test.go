package daemonctl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"marquee/internal/api"
	"marquee/internal/services"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestSearchSendsQueryAndDecodes(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/movies/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "batman" {
			t.Errorf("query = %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page = %q", got)
		}
		json.NewEncoder(w).Encode(api.MoviePage{
			Page:       2,
			TotalPages: 5,
			Results:    []api.Movie{{TMDBID: 268, Title: "Batman"}},
		})
	}))

	page, err := client.Search(context.Background(), "batman", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Page != 2 || page.TotalPages != 5 {
		t.Fatalf("pagination = %+v", page)
	}
	if len(page.Results) != 1 || page.Results[0].Title != "Batman" {
		t.Fatalf("results = %+v", page.Results)
	}
}

func TestErrorPayloadMapsToTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"validation", http.StatusBadRequest, services.IsValidation},
		{"not found", http.StatusNotFound, services.IsNotFound},
		{"conflict", http.StatusConflict, services.IsConflict},
		{"upstream", http.StatusBadGateway, services.IsUpstream},
		{"timeout", http.StatusGatewayTimeout, func(err error) bool { return errors.Is(err, services.ErrTimeout) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(api.ErrorResponse{Error: "boom", Kind: tc.name})
			}))

			_, err := client.Popular(context.Background(), 1)
			if err == nil {
				t.Fatal("expected error")
			}
			if !tc.check(err) {
				t.Fatalf("error %v not classified as %s", err, tc.name)
			}
		})
	}
}

func TestUnreachableDaemonIsUpstream(t *testing.T) {
	client, err := New("127.0.0.1:1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Status(context.Background()); !services.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestSyncDecodesRun(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/sync" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(api.SyncResponse{Run: api.SyncRun{ID: "run-7", Inserted: 12}})
	}))

	run, err := client.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if run.ID != "run-7" || run.Inserted != 12 {
		t.Fatalf("run = %+v", run)
	}
}

func TestNewRejectsEmptyAddress(t *testing.T) {
	if _, err := New("   "); err == nil || !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
