package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"zxmeta/internal/config"
	"zxmeta/internal/scan"
	"zxmeta/internal/testsupport"
)

const knightLorePayload = `{
  "_id": "0002712",
  "found": true,
  "_source": {
    "title": "Knight Lore",
    "originalYearOfRelease": 1984,
    "score": {"score": 8.2, "votes": 300},
    "genre": "Arcade: Adventure",
    "numberOfPlayers": "1",
    "authors": [{"name": "Tim Stamper", "type": "Creator"}],
    "publishers": [{"name": "Ultimate Play The Game", "publisherSeq": 1}],
    "screens": [
      {"url": "/zxscreens/0002712/KnightLore-load.png", "type": "Loading screen"},
      {"url": "/zxscreens/0002712/KnightLore-run.gif", "type": "Running screen"}
    ],
    "relatedLinks": [
      {"siteName": "Wikipedia", "url": "https://en.wikipedia.org/wiki/Knight_Lore"}
    ]
  }
}`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	srcDir     string
	knownFile  string
	knownHash  string
	server     *httptest.Server
	fileChecks atomic.Int64
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	env := &cliTestEnv{}
	env.server = newCatalogServer(t, env)

	cfg := testsupport.NewConfig(t, testsupport.WithServiceURL(env.server.URL), testsupport.WithStubbedBinaries())
	base := testsupport.BaseDir(cfg)
	env.cfg = cfg
	env.srcDir = filepath.Join(base, "games")
	env.knownFile = filepath.Join(env.srcDir, "Knight Lore.tzx")
	testsupport.WriteFile(t, env.knownFile, []byte("knight lore tape image"))
	testsupport.WriteFile(t, filepath.Join(env.srcDir, "unknown.tap"), []byte("homebrew nobody catalogued"))

	hash, err := scan.HashFile(env.knownFile)
	if err != nil {
		t.Fatalf("hash known file: %v", err)
	}
	env.knownHash = hash

	env.configPath = filepath.Join(base, "config.toml")
	writeTestConfig(t, env.configPath, cfg)
	return env
}

func newCatalogServer(t *testing.T, env *cliTestEnv) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/zxinfo/filecheck/", func(w http.ResponseWriter, r *http.Request) {
		hash := strings.TrimPrefix(r.URL.Path, "/zxinfo/filecheck/")
		if hash != env.knownHash {
			http.NotFound(w, r)
			return
		}
		env.fileChecks.Add(1)
		_, _ = io.WriteString(w, `{"entry_id":"0002712","title":"Knight Lore"}`)
	})
	mux.HandleFunc("/zxinfo/games/0002712", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, knightLorePayload)
	})
	mux.HandleFunc("/media/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "image:"+r.URL.Path)
	})
	mux.HandleFunc("/api/rest_v1/page/summary/Knight_Lore", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"title":"Knight Lore","type":"standard","description":"1984 video game","extract":"Knight Lore is an action-adventure game.","originalimage":{"source":%q}}`,
			server.URL+"/media/covers/KnightLore.jpg")
	})
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"query":{"pages":[{"title":"Knight Lore","extract":"Knight Lore is a 1984 game.\n\nIt introduced the Filmation engine."}]}}`)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, nil)
}

func runCLIWithInput(t *testing.T, args []string, configPath string, in io.Reader) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if in != nil {
		cmd.SetIn(in)
	}
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
