// package sheets reads song requests from spreadsheets
package sheets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/sheetify/internal/models"
	"github.com/desertthunder/sheetify/internal/shared"
	"github.com/xuri/excelize/v2"
)

// Column headers recognized in input files and written to reports.
const (
	ColumnSongName = "Song Name"
	ColumnArtist   = "Artist"
)

const utf8BOM = "\uFEFF"

// Format identifies a spreadsheet file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX
	FormatCSV
)

// DetectFormat picks a [Format] from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatXLSX
	case ".csv":
		return FormatCSV
	default:
		return FormatUnknown
	}
}

// ReadSongRequests loads the rows of the spreadsheet at path in order.
//
// The first row is the header. "Song Name" is required, "Artist" is optional, and any
// other column is ignored. Rows without a song name are skipped.
func ReadSongRequests(path string) ([]models.SongRequest, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", shared.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}

	var rows [][]string
	var err error
	switch DetectFormat(path) {
	case FormatXLSX:
		rows, err = readXLSX(path)
	case FormatCSV:
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	return ParseRows(rows)
}

// ParseRows converts raw rows (header first) into song requests.
func ParseRows(rows [][]string) ([]models.SongRequest, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q (spreadsheet is empty)", shared.ErrMissingColumn, ColumnSongName)
	}

	songCol, artistCol := -1, -1
	for i, h := range rows[0] {
		switch shared.NormalizeHeader(strings.TrimPrefix(h, utf8BOM)) {
		case shared.NormalizeHeader(ColumnSongName):
			if songCol < 0 {
				songCol = i
			}
		case shared.NormalizeHeader(ColumnArtist):
			if artistCol < 0 {
				artistCol = i
			}
		}
	}
	if songCol < 0 {
		return nil, fmt.Errorf("%w: %q", shared.ErrMissingColumn, ColumnSongName)
	}

	requests := make([]models.SongRequest, 0, len(rows)-1)
	for i, row := range rows[1:] {
		name := cell(row, songCol)
		if name == "" {
			continue
		}
		requests = append(requests, models.SongRequest{
			Row:    i + 2,
			Name:   name,
			Artist: cell(row, artistCol),
		})
	}

	return requests, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %v", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", shared.ErrInvalidInput, sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return parseCSV(file)
}

func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV: %v", shared.ErrInvalidInput, err)
	}
	return rows, nil
}
