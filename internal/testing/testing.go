// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/sheetify/internal/models"
	"github.com/xuri/excelize/v2"
)

// MockCatalog is a test double for [services.Catalog].
//
// Tracks maps a search query to the track it resolves to; queries
// without an entry return no match. Errors keyed by query in SearchErrs
// are returned from FirstTrack.
type MockCatalog struct {
	mu sync.Mutex

	Tracks     map[string]models.ResolvedTrack
	SearchErrs map[string]error
	UserID     string
	UserErr    error
	CreateErr  error
	AddErr     error
	// AddFailAt is the 1-based AddTracks call that returns AddErr; 0 fails every call when AddErr is set.
	AddFailAt int
	// SearchDelay holds every search until it elapses or the context is done.
	SearchDelay time.Duration

	Queries  []string
	Created  []models.PlaylistHandle
	AddCalls [][]string
}

// NewMockCatalog returns a catalog that resolves nothing and owns user "mock-user".
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		Tracks:     map[string]models.ResolvedTrack{},
		SearchErrs: map[string]error{},
		UserID:     "mock-user",
	}
}

// AddTrack registers a track that query resolves to.
func (m *MockCatalog) AddTrack(query, id string) models.ResolvedTrack {
	m.mu.Lock()
	defer m.mu.Unlock()
	track := models.ResolvedTrack{ID: id, URI: "spotify:track:" + id, Name: id}
	m.Tracks[query] = track
	return track
}

func (m *MockCatalog) FirstTrack(ctx context.Context, query string) (models.ResolvedTrack, bool, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, query)
	delay := m.SearchDelay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return models.ResolvedTrack{}, false, err
	}
	if err, ok := m.SearchErrs[query]; ok {
		return models.ResolvedTrack{}, false, err
	}
	track, ok := m.Tracks[query]
	return track, ok, nil
}

func (m *MockCatalog) CurrentUserID(ctx context.Context) (string, error) {
	if m.UserErr != nil {
		return "", m.UserErr
	}
	return m.UserID, nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.PlaylistHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	handle := models.PlaylistHandle{
		ID:     "mock-playlist",
		Name:   name,
		URL:    "https://open.spotify.com/playlist/mock-playlist",
		Public: public,
	}
	m.Created = append(m.Created, handle)
	return &handle, nil
}

func (m *MockCatalog) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := len(m.AddCalls) + 1
	if m.AddErr != nil && (m.AddFailAt == 0 || m.AddFailAt == call) {
		return m.AddErr
	}
	m.AddCalls = append(m.AddCalls, append([]string(nil), uris...))
	return nil
}

func (m *MockCatalog) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// WriteWorkbook saves rows to the first sheet of a new workbook in dir and returns its path.
func WriteWorkbook(t *testing.T, dir, name string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("Failed to compute cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("Failed to write row %d: %v", i+1, err)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save workbook %s: %v", path, err)
	}
	return path
}

// ReadWorkbook returns every row of the first sheet of the workbook at path.
func ReadWorkbook(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to open workbook %s: %v", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetList()[0])
	if err != nil {
		t.Fatalf("Failed to read rows from %s: %v", path, err)
	}
	return rows
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
