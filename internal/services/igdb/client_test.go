package igdb_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"zxmeta/internal/services/igdb"
)

type fakeIGDB struct {
	tokens    atomic.Int32
	platforms atomic.Int32
	lastQuery atomic.Value
}

func (f *fakeIGDB) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		q := r.URL.Query()
		if q.Get("client_id") != "id" || q.Get("client_secret") != "secret" || q.Get("grant_type") != "client_credentials" {
			t.Errorf("unexpected token query %q", r.URL.RawQuery)
		}
		f.tokens.Add(1)
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600,"token_type":"bearer"}`))
	})
	mux.HandleFunc("/v4/platforms", func(w http.ResponseWriter, r *http.Request) {
		checkAuth(t, r)
		f.platforms.Add(1)
		_, _ = w.Write([]byte(`[{"id":26,"name":"ZX Spectrum"}]`))
	})
	mux.HandleFunc("/v4/games", func(w http.ResponseWriter, r *http.Request) {
		checkAuth(t, r)
		body, _ := io.ReadAll(r.Body)
		f.lastQuery.Store(string(body))
		_, _ = w.Write([]byte(`[{"id":1,"name":"Head Over Heels","summary":"Two heroes.","storyline":"Escape Blacktooth."}]`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func checkAuth(t *testing.T, r *http.Request) {
	t.Helper()
	if r.Header.Get("Client-ID") != "id" {
		t.Errorf("missing Client-ID header")
	}
	if r.Header.Get("Authorization") != "Bearer tok" {
		t.Errorf("unexpected Authorization %q", r.Header.Get("Authorization"))
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := igdb.New("https://api.igdb.com/v4", "https://id.twitch.tv/oauth2/token", "id", ""); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestSearchCachesTokenAndPlatforms(t *testing.T) {
	fake := &fakeIGDB{}
	server := fake.server(t)
	client, err := igdb.New(server.URL+"/v4", server.URL+"/oauth2/token", "id", "secret")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	for range 2 {
		games, err := client.Search(context.Background(), `Head Over "Heels"`)
		if err != nil {
			t.Fatalf("Search returned error: %v", err)
		}
		if len(games) != 1 || games[0].Storyline != "Escape Blacktooth." {
			t.Fatalf("unexpected games %+v", games)
		}
	}
	if got := fake.tokens.Load(); got != 1 {
		t.Fatalf("expected one token request, got %d", got)
	}
	if got := fake.platforms.Load(); got != 1 {
		t.Fatalf("expected one platform request, got %d", got)
	}
	query, _ := fake.lastQuery.Load().(string)
	if !strings.Contains(query, "where platforms = (26);") {
		t.Fatalf("query missing platform filter: %q", query)
	}
	if !strings.Contains(query, `search "Head Over \"Heels\"";`) {
		t.Fatalf("query missing escaped search: %q", query)
	}
}
