package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/sheetify/internal/models"
	"github.com/desertthunder/sheetify/internal/shared"
	"github.com/desertthunder/sheetify/internal/tasks"
)

// Summary renders the end-of-run report shown after an import.
func (p *Palette) Summary(result *models.ImportResult) string {
	var b strings.Builder

	if result.Playlist == nil && len(result.Resolved) > 0 {
		b.WriteString(p.Err(fmt.Sprintf("✗ No playlist was created for %d found songs", len(result.Resolved))))
		b.WriteString("\n")
	} else if result.Playlist == nil {
		b.WriteString(p.Warn("No songs found. No playlist was created."))
		b.WriteString("\n")
	} else {
		if result.Partial() {
			b.WriteString(p.Err(fmt.Sprintf("✗ Playlist '%s' is incomplete: %d of %d found songs were added",
				result.Playlist.Name, result.Added(), len(result.Resolved))))
		} else {
			b.WriteString(p.OK(fmt.Sprintf("✓ Playlist '%s' created", result.Playlist.Name)))
		}
		b.WriteString("\n")
		if result.Playlist.URL != "" {
			fmt.Fprintf(&b, "  URL: %s\n", result.Playlist.URL)
		}
		fmt.Fprintf(&b, "  Visibility: %s\n", shared.VisibilityString(result.Playlist.Public))
		fmt.Fprintf(&b, "  Added: %d/%d songs in %d batches\n", result.Added(), len(result.Requests), result.Batches)
	}

	if len(result.Unresolved) == 0 {
		if len(result.Requests) > 0 {
			b.WriteString(p.OK(fmt.Sprintf("✓ All %d songs were found", len(result.Requests))))
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(p.Warn(fmt.Sprintf("Songs not found (%d):", len(result.Unresolved))))
	for _, entry := range result.Unresolved {
		b.WriteString("\n  • ")
		b.WriteString(entryLabel(entry))
		if entry.Reason == models.ReasonSearchFailed {
			b.WriteString(" ")
			b.WriteString(p.Help("(search failed)"))
		}
	}
	b.WriteString("\n")

	if result.ReportPath != "" {
		b.WriteString("\n")
		b.WriteString(p.Help(fmt.Sprintf("Missing songs written to %s", result.ReportPath)))
		b.WriteString("\n")
	}

	return b.String()
}

// Progress renders a single progress update as one line.
func (p *Palette) Progress(update tasks.ProgressUpdate) string {
	switch update.Phase {
	case tasks.SearchTracks:
		if strings.Contains(update.Message, "not found") {
			return p.Warn("✗ ") + update.Message
		}
		return p.OK("✓ ") + update.Message
	case tasks.CreatePlaylist, tasks.AddTracks:
		return p.OK("→ ") + update.Message
	default:
		return "→ " + update.Message
	}
}

// Failure renders a fatal error for the terminal.
func (p *Palette) Failure(err error) string {
	return p.Err("✗ " + err.Error())
}

// History renders a list of past runs, newest first.
func (p *Palette) History(runs []*models.ImportRun) string {
	if len(runs) == 0 {
		return p.Help("No imports recorded yet.") + "\n"
	}

	var b strings.Builder
	b.WriteString(p.Title(fmt.Sprintf("Import history (%d)", len(runs))))
	b.WriteString("\n")
	for _, run := range runs {
		name := run.PlaylistName
		if name == "" {
			name = "(no playlist)"
		}
		fmt.Fprintf(&b, "%s  %s  %s  added %d, missing %d  %s\n",
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.ID,
			name,
			run.Added,
			run.Missing,
			p.Help(run.InputPath),
		)
	}
	return b.String()
}

// Run renders one stored run with its unresolved songs.
func (p *Palette) Run(run *models.ImportRun) string {
	var b strings.Builder
	b.WriteString(p.Title(fmt.Sprintf("Import %s", run.ID)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Date: %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Input: %s\n", run.InputPath)
	if run.PlaylistID != "" {
		fmt.Fprintf(&b, "Playlist: %s (%s)\n", run.PlaylistName, run.PlaylistID)
		if run.PlaylistURL != "" {
			fmt.Fprintf(&b, "URL: %s\n", run.PlaylistURL)
		}
	} else {
		b.WriteString("Playlist: none\n")
	}
	fmt.Fprintf(&b, "Songs: %d total, %d added, %d missing\n", run.TotalRows, run.Added, run.Missing)
	if run.ReportPath != "" {
		fmt.Fprintf(&b, "Report: %s\n", run.ReportPath)
	}

	if len(run.Unresolved) > 0 {
		b.WriteString("\n")
		b.WriteString(p.Warn("Songs not found:"))
		for _, entry := range run.Unresolved {
			fmt.Fprintf(&b, "\n  • %s [%s]", entryLabel(entry), entry.Reason)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func entryLabel(entry models.UnresolvedEntry) string {
	if entry.Artist == "" {
		return entry.Name
	}
	return fmt.Sprintf("%s - %s", entry.Artist, entry.Name)
}
