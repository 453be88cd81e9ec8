package formatter

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/sheetify/internal/models"
	th "github.com/desertthunder/sheetify/internal/testing"
)

func TestReportWriters(t *testing.T) {
	entries := []models.UnresolvedEntry{
		{Name: "Unknown Song XYZ", Artist: "", Reason: models.ReasonNoMatch},
		{Name: "1999", Artist: "Prince", Reason: models.ReasonSearchFailed},
	}

	t.Run("UnresolvedToCSV", func(t *testing.T) {
		data, err := UnresolvedToCSV(entries)
		if err != nil {
			t.Fatalf("UnresolvedToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
		}
		if lines[0] != "Song Name,Artist" {
			t.Errorf("unexpected header: %q", lines[0])
		}
		if lines[1] != "Unknown Song XYZ," {
			t.Errorf("unexpected first row: %q", lines[1])
		}
		if lines[2] != "1999,Prince" {
			t.Errorf("unexpected second row: %q", lines[2])
		}
	})

	t.Run("UnresolvedToCSV with no entries writes header only", func(t *testing.T) {
		data, err := UnresolvedToCSV(nil)
		if err != nil {
			t.Fatalf("UnresolvedToCSV failed: %v", err)
		}
		if strings.TrimSpace(string(data)) != "Song Name,Artist" {
			t.Errorf("expected header only, got %q", string(data))
		}
	})

	t.Run("WriteUnresolved xlsx", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "songs_not_found.xlsx")
		if err := WriteUnresolved(path, entries); err != nil {
			t.Fatalf("WriteUnresolved failed: %v", err)
		}

		rows := th.ReadWorkbook(t, path)
		if len(rows) != 3 {
			t.Fatalf("expected 3 rows, got %d: %v", len(rows), rows)
		}
		if rows[0][0] != "Song Name" || rows[0][1] != "Artist" {
			t.Errorf("unexpected header: %v", rows[0])
		}
		if rows[1][0] != "Unknown Song XYZ" {
			t.Errorf("unexpected first row: %v", rows[1])
		}
		if rows[2][0] != "1999" || rows[2][1] != "Prince" {
			t.Errorf("unexpected second row: %v", rows[2])
		}
	})

	t.Run("WriteUnresolved overwrites existing report", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "songs_not_found.xlsx")
		if err := WriteUnresolved(path, entries); err != nil {
			t.Fatalf("first write failed: %v", err)
		}
		if err := WriteUnresolved(path, entries[:1]); err != nil {
			t.Fatalf("second write failed: %v", err)
		}

		rows := th.ReadWorkbook(t, path)
		if len(rows) != 2 {
			t.Errorf("expected report to be replaced with 2 rows, got %d", len(rows))
		}
	})

	t.Run("WriteUnresolved csv", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.csv")
		if err := WriteUnresolved(path, entries); err != nil {
			t.Fatalf("WriteUnresolved failed: %v", err)
		}

		content := th.MustReadFile(t, path)
		if !strings.HasPrefix(content, "Song Name,Artist\n") {
			t.Errorf("CSV missing header, got: %s", content)
		}
		if !strings.Contains(content, "1999,Prince") {
			t.Errorf("CSV missing row, got: %s", content)
		}
	})

	t.Run("WriteUnresolved into missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope", "report.xlsx")
		if err := WriteUnresolved(path, entries); err == nil {
			t.Error("expected error writing into a missing directory")
		}
	})
}

func TestSummaryText(t *testing.T) {
	t.Run("playlist with missing songs", func(t *testing.T) {
		result := &models.ImportResult{
			Requests: []models.SongRequest{
				{Row: 2, Name: "Bohemian Rhapsody", Artist: "Queen"},
				{Row: 3, Name: "Unknown Song XYZ"},
			},
			Resolved: []models.ResolvedTrack{{ID: "abc", URI: "spotify:track:abc"}},
			Unresolved: []models.UnresolvedEntry{
				{Name: "Unknown Song XYZ", Reason: models.ReasonNoMatch},
			},
			Playlist:   &models.PlaylistHandle{ID: "pl", Name: "Imported From Excel", URL: "https://open.spotify.com/playlist/pl"},
			Batches:    1,
			Placed:     1,
			ReportPath: "songs_not_found.xlsx",
		}

		out := SummaryText(result)
		for _, want := range []string{
			"Playlist 'Imported From Excel' created",
			"https://open.spotify.com/playlist/pl",
			"Added 1 songs",
			"Songs not found: 1",
			"1. Unknown Song XYZ",
			"songs_not_found.xlsx",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("summary missing %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("no playlist", func(t *testing.T) {
		result := &models.ImportResult{
			Requests:   []models.SongRequest{{Row: 2, Name: "Nothing", Artist: "Nobody"}},
			Unresolved: []models.UnresolvedEntry{{Name: "Nothing", Artist: "Nobody"}},
			ReportPath: "songs_not_found.xlsx",
		}

		out := SummaryText(result)
		if !strings.Contains(out, "No playlist was created") {
			t.Errorf("expected no-playlist message, got:\n%s", out)
		}
		if !strings.Contains(out, "1. Nobody - Nothing") {
			t.Errorf("expected artist-qualified entry, got:\n%s", out)
		}
	})

	t.Run("everything found", func(t *testing.T) {
		result := &models.ImportResult{
			Requests: []models.SongRequest{{Row: 2, Name: "A"}, {Row: 3, Name: "B"}},
			Resolved: []models.ResolvedTrack{{ID: "a"}, {ID: "b"}},
			Playlist: &models.PlaylistHandle{ID: "pl", Name: "P"},
			Placed:   2,
		}

		out := SummaryText(result)
		if !strings.Contains(out, "All 2 songs were found") {
			t.Errorf("expected all-found message, got:\n%s", out)
		}
		if strings.Contains(out, "Songs not found") {
			t.Errorf("did not expect missing section, got:\n%s", out)
		}
	})

	t.Run("failed batch", func(t *testing.T) {
		result := &models.ImportResult{
			Requests: []models.SongRequest{{Row: 2, Name: "A"}, {Row: 3, Name: "B"}, {Row: 4, Name: "C"}},
			Resolved: []models.ResolvedTrack{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			Playlist: &models.PlaylistHandle{ID: "pl", Name: "P", URL: "https://open.spotify.com/playlist/pl"},
			Batches:  1,
			Placed:   1,
		}

		out := SummaryText(result)
		if !strings.Contains(out, "Incomplete! Playlist 'P' created but only 1 of 3 found songs were added.") {
			t.Errorf("expected incomplete headline, got:\n%s", out)
		}
		if strings.Contains(out, "Success!") {
			t.Errorf("did not expect success headline, got:\n%s", out)
		}
	})

	t.Run("playlist creation failed", func(t *testing.T) {
		result := &models.ImportResult{
			Requests: []models.SongRequest{{Row: 2, Name: "A"}},
			Resolved: []models.ResolvedTrack{{ID: "a"}},
		}

		out := SummaryText(result)
		if !strings.Contains(out, "Failed! No playlist was created for 1 found songs.") {
			t.Errorf("expected failure headline, got:\n%s", out)
		}
	})
}
