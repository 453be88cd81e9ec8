package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sheetify/internal/services"
	"github.com/desertthunder/sheetify/internal/shared"
	tu "github.com/desertthunder/sheetify/internal/testing"
	"golang.org/x/oauth2"
)

// testEnv is a workspace with a configured runner backed by a mock catalog.
type testEnv struct {
	dir     string
	config  *shared.Config
	catalog *tu.MockCatalog
	output  *bytes.Buffer
	runner  *Runner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = "client"
	config.Credentials.Spotify.ClientSecret = "secret"
	config.Credentials.Spotify.RedirectURI = "http://127.0.0.1:8888/callback"
	config.Credentials.Spotify.TokenPath = filepath.Join(dir, "token.toml")
	config.Import.InputPath = filepath.Join(dir, "songs.xlsx")
	config.Import.NotFoundPath = filepath.Join(dir, "songs_not_found.xlsx")
	config.Import.SearchRate = 0
	config.Database.Path = filepath.Join(dir, "history.db")

	env := &testEnv{
		dir:     dir,
		config:  config,
		catalog: tu.NewMockCatalog(),
		output:  &bytes.Buffer{},
	}
	env.runner = NewRunner(RunnerOpts{
		Config:  config,
		Catalog: env.catalog,
		Logger:  shared.NewLogger(&bytes.Buffer{}),
		Output:  env.output,
		OpenBrowser: func(string) error {
			return errors.New("no browser in tests")
		},
		Now: func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) },
	})
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	argv := append([]string{"sheetify", "--config", filepath.Join(e.dir, "config.toml")}, args...)
	return e.runner.App().Run(context.Background(), argv)
}

func (e *testEnv) writeSongs(t *testing.T, rows ...[]any) string {
	t.Helper()
	all := append([][]any{{"Song Name", "Artist"}}, rows...)
	return tu.WriteWorkbook(t, e.dir, "songs.xlsx", all)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			catalog := tu.NewMockCatalog()

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Catalog: catalog,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout || runner.errOutput != os.Stderr {
				t.Error("expected output to default to stdout and stderr")
			}
			if runner.openBrowser == nil || runner.now == nil || runner.palette == nil {
				t.Error("expected browser, clock, and palette defaults")
			}
			if runner.config != nil {
				t.Error("expected config to be resolved lazily")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes formatted text", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("Hello %s, count: %d\n", "World", 42); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if output.String() != "Hello World, count: 42\n" {
				t.Errorf("unexpected output: %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("Fail writes the error to the error output", func(t *testing.T) {
			output, errOutput := &bytes.Buffer{}, &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{}), Output: output, ErrOutput: errOutput})

			runner.Fail(fmt.Errorf("%w: set SPOTIFY_REDIRECT_URI", shared.ErrMissingCredentials))
			if got := errOutput.String(); !strings.HasPrefix(got, "✗ ") || !strings.Contains(got, "SPOTIFY_REDIRECT_URI") {
				t.Errorf("unexpected error output: %q", got)
			}
			if output.Len() != 0 {
				t.Errorf("expected nothing on standard output, got %q", output.String())
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("done")
			if output.String() != "\ndone\n" {
				t.Errorf("unexpected output: %q", output.String())
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := map[string]bool{}
		for _, c := range commands {
			names[c.Name] = true
		}
		for _, want := range []string{"import", "auth", "init", "history"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})
}

func TestBefore(t *testing.T) {
	t.Run("resolves config file and env file", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.toml")
		envPath := filepath.Join(dir, ".env")
		tu.MustWriteFile(t, configPath, "[import]\nplaylist_name = \"From Config\"\n")
		tu.MustWriteFile(t, envPath, "SPOTIFY_CLIENT_ID=env-client\n")
		t.Setenv(shared.EnvClientID, "")
		os.Unsetenv(shared.EnvClientID)

		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{}), Output: &bytes.Buffer{}})
		err := runner.App().Run(context.Background(), []string{"sheetify", "--config", configPath, "--env-file", envPath, "init"})
		if err == nil {
			t.Fatal("expected init to refuse overwriting the existing config")
		}

		if runner.config == nil {
			t.Fatal("expected config to be resolved")
		}
		if runner.config.Import.PlaylistName != "From Config" {
			t.Errorf("expected playlist name from file, got %q", runner.config.Import.PlaylistName)
		}
		if runner.config.Credentials.Spotify.ClientID != "env-client" {
			t.Errorf("expected client id from .env, got %q", runner.config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("invalid config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		tu.MustWriteFile(t, configPath, "not = [valid")

		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{}), Output: &bytes.Buffer{}})
		err := runner.App().Run(context.Background(), []string{"sheetify", "--config", configPath, "history"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("log level flags", func(t *testing.T) {
		env := newTestEnv(t)
		env.config.Database.Path = ""

		_ = env.run(t, "--verbose", "history")
		if env.runner.logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", env.runner.logger.GetLevel())
		}

		env = newTestEnv(t)
		env.config.Database.Path = ""
		_ = env.run(t, "--quiet", "history")
		if env.runner.logger.GetLevel() != log.WarnLevel || !env.runner.quiet {
			t.Errorf("expected warn level and quiet output, got %v", env.runner.logger.GetLevel())
		}
	})
}

func TestImport(t *testing.T) {
	t.Run("one found one missing", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeSongs(t, []any{"Bohemian Rhapsody", "Queen"}, []any{"Unknown Song XYZ", ""})
		env.catalog.AddTrack("track:Bohemian Rhapsody artist:Queen", "bohemian")

		if err := env.run(t, "import"); err != nil {
			t.Fatalf("import failed: %v", err)
		}

		if len(env.catalog.Created) != 1 || env.catalog.Created[0].Name != "Imported From Excel" || !env.catalog.Created[0].Public {
			t.Errorf("unexpected playlists: %+v", env.catalog.Created)
		}
		if len(env.catalog.AddCalls) != 1 || len(env.catalog.AddCalls[0]) != 1 {
			t.Errorf("unexpected add calls: %v", env.catalog.AddCalls)
		}

		rows := tu.ReadWorkbook(t, env.config.Import.NotFoundPath)
		if len(rows) != 2 || rows[1][0] != "Unknown Song XYZ" {
			t.Errorf("unexpected report rows: %v", rows)
		}

		out := env.output.String()
		for _, want := range []string{"Read 2 songs", "Playlist 'Imported From Excel' created", "Songs not found (1)", "Unknown Song XYZ"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("flags override config", func(t *testing.T) {
		env := newTestEnv(t)
		input := filepath.Join(env.dir, "mix.csv")
		report := filepath.Join(env.dir, "missing.csv")
		tu.MustWriteFile(t, input, "Song Name,Artist\nImagine,John Lennon\nYesterday,The Beatles\nNope,\n")
		env.catalog.AddTrack("track:Imagine artist:John Lennon", "imagine")
		env.catalog.AddTrack("track:Yesterday artist:The Beatles", "yesterday")

		err := env.run(t, "import", "-i", input, "-o", report, "--name", "Road Trip", "--private", "--batch-size", "1")
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}

		if len(env.catalog.Created) != 1 || env.catalog.Created[0].Name != "Road Trip" || env.catalog.Created[0].Public {
			t.Errorf("unexpected playlist: %+v", env.catalog.Created)
		}
		if len(env.catalog.AddCalls) != 2 {
			t.Errorf("expected 2 batches of 1, got %v", env.catalog.AddCalls)
		}
		if got := tu.MustReadFile(t, report); got != "Song Name,Artist\nNope,\n" {
			t.Errorf("unexpected report: %q", got)
		}
	})

	t.Run("quiet hides progress but keeps summary", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeSongs(t, []any{"Imagine", "John Lennon"})
		env.catalog.AddTrack("track:Imagine artist:John Lennon", "imagine")

		if err := env.run(t, "--quiet", "import"); err != nil {
			t.Fatalf("import failed: %v", err)
		}

		out := env.output.String()
		if strings.Contains(out, "Read 1 songs") {
			t.Errorf("expected progress to be hidden, got:\n%s", out)
		}
		if !strings.Contains(out, "All 1 songs were found") {
			t.Errorf("expected summary, got:\n%s", out)
		}
		tu.AssertNoFile(t, env.config.Import.NotFoundPath)
	})

	t.Run("plain summary", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeSongs(t, []any{"Imagine", "John Lennon"}, []any{"Lost Song", "Nobody"})
		env.catalog.AddTrack("track:Imagine artist:John Lennon", "imagine")

		if err := env.run(t, "--quiet", "import", "--plain"); err != nil {
			t.Fatalf("import failed: %v", err)
		}

		out := env.output.String()
		for _, want := range []string{"Success! Playlist 'Imported From Excel' created.", "Added 1 songs.", "Songs not found: 1", "1. Nobody - Lost Song"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q, got:\n%s", want, out)
			}
		}
		if strings.Contains(out, "✓") {
			t.Errorf("expected unstyled summary, got:\n%s", out)
		}
	})

	t.Run("nothing found creates no playlist", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeSongs(t, []any{"Nothing", "Nobody"})

		if err := env.run(t, "import"); err != nil {
			t.Fatalf("import failed: %v", err)
		}

		if len(env.catalog.Created) != 0 {
			t.Errorf("expected no playlist, got %+v", env.catalog.Created)
		}
		tu.AssertFileExists(t, env.config.Import.NotFoundPath)
		if !strings.Contains(env.output.String(), "No songs found") {
			t.Errorf("expected no-songs message, got:\n%s", env.output.String())
		}
	})

	t.Run("missing credentials fail before reading", func(t *testing.T) {
		env := newTestEnv(t)
		env.config.Credentials.Spotify.ClientSecret = ""

		err := env.run(t, "import")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials, got %v", err)
		}
		if !strings.Contains(err.Error(), shared.EnvClientSecret) {
			t.Errorf("expected missing variable name in error, got %v", err)
		}
		if len(env.catalog.Queries) != 0 {
			t.Error("expected no searches")
		}
	})

	t.Run("missing input makes no calls", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.run(t, "import")
		if !errors.Is(err, shared.ErrInputNotFound) {
			t.Fatalf("expected ErrInputNotFound, got %v", err)
		}
		if len(env.catalog.Queries) != 0 {
			t.Error("expected no searches")
		}
		tu.AssertNoFile(t, env.config.Import.NotFoundPath)
	})

	t.Run("root command imports", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeSongs(t, []any{"Imagine", "John Lennon"})
		env.catalog.AddTrack("track:Imagine artist:John Lennon", "imagine")

		if err := env.run(t); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if len(env.catalog.Created) != 1 {
			t.Errorf("expected one playlist, got %d", len(env.catalog.Created))
		}
	})

	t.Run("create failure still writes report and summary", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeSongs(t, []any{"Imagine", "John Lennon"}, []any{"Nope", ""})
		env.catalog.AddTrack("track:Imagine artist:John Lennon", "imagine")
		env.catalog.CreateErr = fmt.Errorf("%w: create playlist: 403", shared.ErrForbidden)

		err := env.run(t, "import")
		if !errors.Is(err, shared.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		tu.AssertFileExists(t, env.config.Import.NotFoundPath)
		out := env.output.String()
		if !strings.Contains(out, "Songs not found (1)") || !strings.Contains(out, "No playlist was created for 1 found songs") {
			t.Errorf("expected failure summary, got:\n%s", out)
		}
		if strings.Contains(out, "No songs found") {
			t.Errorf("did not expect the nothing-found headline, got:\n%s", out)
		}
	})

	t.Run("fatal search error aborts without report", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeSongs(t, []any{"Imagine", "John Lennon"}, []any{"Nope", ""})
		env.catalog.SearchErrs["track:Imagine artist:John Lennon"] = fmt.Errorf("%w: search: 401", shared.ErrNotAuthenticated)

		err := env.run(t, "import")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		tu.AssertNoFile(t, env.config.Import.NotFoundPath)
	})
}

func TestHistory(t *testing.T) {
	t.Run("records and lists runs", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeSongs(t, []any{"Bohemian Rhapsody", "Queen"}, []any{"Unknown Song XYZ", ""})
		env.catalog.AddTrack("track:Bohemian Rhapsody artist:Queen", "bohemian")

		if err := env.run(t, "import"); err != nil {
			t.Fatalf("import failed: %v", err)
		}

		env.output.Reset()
		if err := env.run(t, "history"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		out := env.output.String()
		if !strings.Contains(out, "Import history (1)") || !strings.Contains(out, "added 1, missing 1") {
			t.Fatalf("unexpected history output:\n%s", out)
		}

		repo, closeFn, err := env.runner.historyRepo()
		if err != nil {
			t.Fatalf("failed to open history: %v", err)
		}
		runs, err := repo.List(context.Background(), 1)
		closeFn()
		if err != nil || len(runs) != 1 {
			t.Fatalf("expected one run, got %v (%v)", runs, err)
		}

		env.output.Reset()
		if err := env.run(t, "history", runs[0].ID); err != nil {
			t.Fatalf("history show failed: %v", err)
		}
		if !strings.Contains(env.output.String(), "Unknown Song XYZ [no_match]") {
			t.Errorf("expected unresolved songs in run details, got:\n%s", env.output.String())
		}
	})

	t.Run("delete removes a run", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeSongs(t, []any{"Imagine", "John Lennon"})
		env.catalog.AddTrack("track:Imagine artist:John Lennon", "imagine")
		if err := env.run(t, "import"); err != nil {
			t.Fatalf("import failed: %v", err)
		}

		repo, closeFn, err := env.runner.historyRepo()
		if err != nil {
			t.Fatalf("failed to open history: %v", err)
		}
		runs, err := repo.List(context.Background(), 0)
		closeFn()
		if err != nil || len(runs) != 1 {
			t.Fatalf("expected one run, got %v (%v)", runs, err)
		}

		env.output.Reset()
		if err := env.run(t, "history", "--delete", runs[0].ID); err != nil {
			t.Fatalf("history delete failed: %v", err)
		}
		if !strings.Contains(env.output.String(), "Deleted import "+runs[0].ID) {
			t.Errorf("expected confirmation, got:\n%s", env.output.String())
		}

		if err := env.run(t, "history", runs[0].ID); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected deleted run to be gone, got %v", err)
		}
		if err := env.run(t, "history", "--delete", runs[0].ID); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound on second delete, got %v", err)
		}
	})

	t.Run("delete without id", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run(t, "history", "--delete"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run(t, "history", "nope"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t)
		env.config.Database.Path = ""

		err := env.run(t, "history")
		if !errors.Is(err, shared.ErrHistoryDisabled) {
			t.Errorf("expected ErrHistoryDisabled, got %v", err)
		}
	})

	t.Run("disabled history does not block imports", func(t *testing.T) {
		env := newTestEnv(t)
		env.config.Database.Path = ""
		env.writeSongs(t, []any{"Imagine", "John Lennon"})
		env.catalog.AddTrack("track:Imagine artist:John Lennon", "imagine")

		if err := env.run(t, "import"); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		tu.AssertNoFile(t, filepath.Join(env.dir, "history.db"))
	})
}

func TestInit(t *testing.T) {
	env := newTestEnv(t)
	configPath := filepath.Join(env.dir, "config.toml")

	if err := env.run(t, "init"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	tu.AssertFileExists(t, configPath)

	loaded, err := shared.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if loaded.Import.PlaylistName != "Imported From Excel" {
		t.Errorf("unexpected default playlist name: %q", loaded.Import.PlaylistName)
	}

	if err := env.run(t, "init"); err == nil {
		t.Error("expected second init to fail")
	}
}

func TestConnect(t *testing.T) {
	t.Run("uses injected catalog", func(t *testing.T) {
		env := newTestEnv(t)

		catalog, err := env.runner.connect(context.Background())
		if err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		if catalog != env.catalog {
			t.Error("expected injected catalog")
		}
	})

	t.Run("uses cached token", func(t *testing.T) {
		env := newTestEnv(t)
		env.runner.catalog = nil
		token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
		if err := shared.SaveToken(env.config.Credentials.Spotify.TokenPath, token); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		catalog, err := env.runner.connect(context.Background())
		if err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		if _, ok := catalog.(*services.SpotifyService); !ok {
			t.Errorf("expected Spotify service, got %T", catalog)
		}
	})

	t.Run("invalid redirect fails before waiting", func(t *testing.T) {
		env := newTestEnv(t)
		env.runner.catalog = nil
		env.config.Credentials.Spotify.RedirectURI = "not-a-url"

		_, err := env.runner.connect(context.Background())
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
