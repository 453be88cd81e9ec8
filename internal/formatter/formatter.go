// package formatter writes import results: the unresolved-songs report and the plain text summary
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/desertthunder/sheetify/internal/models"
	"github.com/desertthunder/sheetify/internal/sheets"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Songs Not Found"

// ReportHeader is the header row of the unresolved-songs report.
var ReportHeader = []string{sheets.ColumnSongName, sheets.ColumnArtist}

// UnresolvedToCSV converts unresolved entries to CSV with columns: Song Name, Artist
func UnresolvedToCSV(entries []models.UnresolvedEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(ReportHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range entries {
		if err := writer.Write([]string{entry.Name, entry.Artist}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// UnresolvedToXLSX builds a workbook with a single sheet holding the report.
//
// The caller owns the returned file and must close it.
func UnresolvedToXLSX(entries []models.UnresolvedEntry) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, reportSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(ReportHeader))
	for i, h := range ReportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, entry := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		// strings are written as-is so names like "1999" stay text
		row := []any{entry.Name, entry.Artist}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return f, nil
}

// WriteUnresolved writes the report to path, replacing any existing file.
//
// A ".csv" path produces CSV; anything else produces an xlsx workbook.
func WriteUnresolved(path string, entries []models.UnresolvedEntry) error {
	if sheets.DetectFormat(path) == sheets.FormatCSV {
		data, err := UnresolvedToCSV(entries)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		return nil
	}

	f, err := UnresolvedToXLSX(entries)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// SummaryText renders the end-of-run summary as plain text.
func SummaryText(result *models.ImportResult) string {
	var buf bytes.Buffer

	if result.Playlist == nil && len(result.Resolved) > 0 {
		fmt.Fprintf(&buf, "Failed! No playlist was created for %d found songs.\n", len(result.Resolved))
	} else if result.Playlist == nil {
		buf.WriteString("No songs found. No playlist was created.\n")
	} else if result.Partial() {
		fmt.Fprintf(&buf, "Incomplete! Playlist '%s' created but only %d of %d found songs were added.\n",
			result.Playlist.Name, result.Added(), len(result.Resolved))
		if result.Playlist.URL != "" {
			fmt.Fprintf(&buf, "URL: %s\n", result.Playlist.URL)
		}
	} else {
		fmt.Fprintf(&buf, "Success! Playlist '%s' created.\n", result.Playlist.Name)
		if result.Playlist.URL != "" {
			fmt.Fprintf(&buf, "URL: %s\n", result.Playlist.URL)
		}
		fmt.Fprintf(&buf, "Added %d songs.\n", result.Added())
	}

	if len(result.Unresolved) == 0 {
		fmt.Fprintf(&buf, "All %d songs were found.\n", len(result.Requests))
		return buf.String()
	}

	fmt.Fprintf(&buf, "Songs not found: %d\n", len(result.Unresolved))
	for i, entry := range result.Unresolved {
		if entry.Artist != "" {
			fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, entry.Artist, entry.Name)
		} else {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, entry.Name)
		}
	}
	if result.ReportPath != "" {
		fmt.Fprintf(&buf, "Missing songs written to %s\n", result.ReportPath)
	}

	return buf.String()
}
