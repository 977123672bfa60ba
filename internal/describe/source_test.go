package describe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"zxmeta/internal/describe"
	"zxmeta/internal/services/igdb"
	"zxmeta/internal/services/wikipedia"
)

func newIGDBServer(t *testing.T, games string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600,"token_type":"bearer"}`))
	})
	mux.HandleFunc("/igdb/platforms", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":26,"name":"ZX Spectrum"}]`))
	})
	mux.HandleFunc("/igdb/games", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(games))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newIGDBSource(t *testing.T, games string) describe.IGDBSource {
	t.Helper()
	server := newIGDBServer(t, games)
	client, err := igdb.New(server.URL+"/igdb", server.URL+"/oauth2/token", "id", "secret")
	if err != nil {
		t.Fatal(err)
	}
	return describe.IGDBSource{Client: client}
}

func TestIGDBSourcePicksClosestTitle(t *testing.T) {
	src := newIGDBSource(t, `[
		{"id":1,"name":"Jet Set Willy II","summary":"The sequel."},
		{"id":2,"name":"Jet Set Willy","summary":"Miner Willy tidies his mansion."}
	]`)

	got, err := src.Describe(context.Background(), describe.Query{Title: "Jet Set Willy"})
	if err != nil {
		t.Fatal(err)
	}
	want := describe.Descriptions{Summary: "Miner Willy tidies his mansion.", Description: "Miner Willy tidies his mansion."}
	if got != want {
		t.Fatalf("Describe = %+v, want %+v", got, want)
	}
	if key := src.Key(describe.Query{Title: "  Jet Set Willy "}); key != "jet set willy" {
		t.Fatalf("Key = %q", key)
	}
}

func TestIGDBSourceRejectsUnrelatedResults(t *testing.T) {
	src := newIGDBSource(t, `[{"id":9,"name":"Manic Miner","summary":"Wrong game."}]`)

	got, err := src.Describe(context.Background(), describe.Query{Title: "Knight Lore"})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Empty() {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestWikipediaSourceUsesRelatedLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rest_v1/page/summary/Knight_Lore", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title":"Knight Lore","type":"standard","description":"1984 video game","extract":"Knight Lore is an action-adventure game.","originalimage":{"source":"https://upload.wikimedia.org/knightlore.jpg"}}`))
	})
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query":{"pages":[{"title":"Knight Lore","extract":"Knight Lore is a 1984 game."}]}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := wikipedia.New(server.URL + "/api/rest_v1")
	if err != nil {
		t.Fatal(err)
	}
	src := describe.WikipediaSource{Client: client}
	q := describe.Query{
		Title: "Knight Lore",
		Links: []string{"https://www.mobygames.com/game/knight-lore", "https://en.wikipedia.org/wiki/Knight_Lore"},
	}
	if key := src.Key(q); key != "Knight_Lore" {
		t.Fatalf("Key = %q", key)
	}
	got, err := src.Describe(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	want := describe.Descriptions{
		Summary:     "Knight Lore is an action-adventure game.",
		Description: "Knight Lore is a 1984 game.",
		BoxArt:      "https://upload.wikimedia.org/knightlore.jpg",
	}
	if got != want {
		t.Fatalf("Describe = %+v, want %+v", got, want)
	}
	if key := src.Key(describe.Query{Title: "Zax"}); key != "" {
		t.Fatalf("expected no key without a wikipedia link, got %q", key)
	}
}
