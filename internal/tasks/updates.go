package tasks

import (
	"fmt"

	"github.com/desertthunder/sheetify/internal/models"
)

// ProgressUpdate represents a progress event during an import.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ReadRows Phase = iota
	SearchTracks
	CreatePlaylist
	AddTracks
	WriteReport
)

func (p Phase) String() string {
	switch p {
	case ReadRows:
		return "read_rows"
	case SearchTracks:
		return "search_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case WriteReport:
		return "write_report"
	default:
		return ""
	}
}

// ReadRowsUpdate reports how many requests were read from the input at path.
func ReadRowsUpdate(path string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadRows,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Read %d songs from %s", count, path),
	}
}

func searchUpdate(step, total int, req models.SongRequest, found bool) ProgressUpdate {
	status := "found"
	if !found {
		status = "not found"
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s", step, total, status, req),
		Data:    req,
	}
}

func createPlaylistUpdate(pl *models.PlaylistHandle) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(step, total, added int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Added %d tracks", step, total, added),
	}
}

func writeReportUpdate(path string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteReport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote %d missing songs to %s", count, path),
	}
}
