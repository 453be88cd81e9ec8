// package models defines the data model for spreadsheet imports
package models

import (
	"fmt"
	"strings"
	"time"
)

// SongRequest is one spreadsheet row asking for a song.
type SongRequest struct {
	Row    int    // 1-based spreadsheet row, for diagnostics
	Name   string // Song name, never empty
	Artist string // Artist name, empty when unknown
}

func (s SongRequest) String() string {
	if s.Artist == "" {
		return s.Name
	}
	return fmt.Sprintf("%s - %s", s.Artist, s.Name)
}

// ResolvedTrack is a catalog track matched to a [SongRequest].
type ResolvedTrack struct {
	URI    string // Opaque identifier used when adding to a playlist (spotify:track:...)
	ID     string
	Name   string
	Artist string
}

// UnresolvedReason explains why a row produced no track.
type UnresolvedReason string

const (
	ReasonNoMatch      UnresolvedReason = "no_match"
	ReasonSearchFailed UnresolvedReason = "search_failed"
)

// UnresolvedEntry keeps the original request fields of a row that could not be matched.
type UnresolvedEntry struct {
	Name   string
	Artist string
	Reason UnresolvedReason
}

// NewUnresolved builds an [UnresolvedEntry] from a request.
func NewUnresolved(req SongRequest, reason UnresolvedReason) UnresolvedEntry {
	return UnresolvedEntry{Name: req.Name, Artist: req.Artist, Reason: reason}
}

// PlaylistHandle identifies the playlist created by a run.
type PlaylistHandle struct {
	ID     string
	Name   string
	URL    string
	Public bool
}

// ImportResult collects the outcome of one run.
type ImportResult struct {
	Requests   []SongRequest
	Resolved   []ResolvedTrack
	Unresolved []UnresolvedEntry
	Playlist   *PlaylistHandle // nil when no playlist was created
	Batches    int             // add-items calls that succeeded
	Placed     int             // tracks accepted by those calls
	ReportPath string          // empty when no report was written
}

// Added returns the number of tracks placed in the playlist.
func (r *ImportResult) Added() int {
	if r.Playlist == nil {
		return 0
	}
	return r.Placed
}

// Partial reports whether a playlist was created but not every resolved track reached it.
func (r *ImportResult) Partial() bool {
	return r.Playlist != nil && r.Placed < len(r.Resolved)
}

// MissingNames lists unresolved song names in encounter order.
func (r *ImportResult) MissingNames() []string {
	names := make([]string, 0, len(r.Unresolved))
	for _, u := range r.Unresolved {
		names = append(names, u.Name)
	}
	return names
}

// ImportRun is the persisted history record of a completed run.
type ImportRun struct {
	ID           string
	InputPath    string
	PlaylistID   string
	PlaylistName string
	PlaylistURL  string
	TotalRows    int
	Added        int
	Missing      int
	ReportPath   string
	Unresolved   []UnresolvedEntry
	CreatedAt    time.Time
}

// Validate checks that a run can be stored.
func (r *ImportRun) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.TrimSpace(r.InputPath) == "" {
		return fmt.Errorf("input path is required")
	}
	if r.Added+r.Missing != r.TotalRows {
		return fmt.Errorf("added (%d) + missing (%d) must equal total rows (%d)", r.Added, r.Missing, r.TotalRows)
	}
	return nil
}

// NewImportRun summarizes result as a history record.
func NewImportRun(id, inputPath string, result *ImportResult, at time.Time) *ImportRun {
	run := &ImportRun{
		ID:         id,
		InputPath:  inputPath,
		TotalRows:  len(result.Requests),
		Added:      len(result.Resolved),
		Missing:    len(result.Unresolved),
		ReportPath: result.ReportPath,
		Unresolved: result.Unresolved,
		CreatedAt:  at,
	}
	if result.Playlist != nil {
		run.PlaylistID = result.Playlist.ID
		run.PlaylistName = result.Playlist.Name
		run.PlaylistURL = result.Playlist.URL
	}
	return run
}
