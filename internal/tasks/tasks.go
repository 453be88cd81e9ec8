// package tasks implements the spreadsheet to playlist import pipeline.
//
// The core type is Importer, which resolves song requests against a catalog, creates the playlist,
// and writes the report of songs that could not be found.
// Operations emit progress updates via channels for non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sheetify/internal/formatter"
	"github.com/desertthunder/sheetify/internal/models"
	"github.com/desertthunder/sheetify/internal/services"
	"github.com/desertthunder/sheetify/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultPlaylistName  = "Imported From Excel"
	DefaultReportPath    = "songs_not_found.xlsx"
	DefaultSearchTimeout = 30 * time.Second
)

// ImportOpts configures an [Importer].
type ImportOpts struct {
	PlaylistName string
	Public       bool
	BatchSize    int     // clamped to 1..[services.MaxItemsPerAdd]
	SearchRate   float64 // searches per second; 0 disables pacing
	// SearchTimeout bounds one search, including the client's waits on 429 responses.
	SearchTimeout time.Duration
	ReportPath    string
}

// Importer runs imports against a single catalog.
type Importer struct {
	catalog services.Catalog
	logger  *log.Logger
	limiter *rate.Limiter
	opts    ImportOpts
}

// NewImporter creates an Importer, filling in defaults for empty options.
func NewImporter(catalog services.Catalog, logger *log.Logger, opts ImportOpts) *Importer {
	if opts.PlaylistName == "" {
		opts.PlaylistName = DefaultPlaylistName
	}
	if opts.ReportPath == "" {
		opts.ReportPath = DefaultReportPath
	}
	if opts.BatchSize <= 0 || opts.BatchSize > services.MaxItemsPerAdd {
		opts.BatchSize = services.MaxItemsPerAdd
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = DefaultSearchTimeout
	}

	limit := rate.Inf
	if opts.SearchRate > 0 {
		limit = rate.Limit(opts.SearchRate)
	}

	return &Importer{
		catalog: catalog,
		logger:  logger,
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (i *Importer) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Import resolves requests, writes the playlist when anything matched, and reports the misses.
//
// The returned result is non-nil whenever resolution finished, including when playlist
// creation failed; callers should render it alongside the error.
func (i *Importer) Import(ctx context.Context, requests []models.SongRequest, description string, progress chan<- ProgressUpdate) (*models.ImportResult, error) {
	if i.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	resolved, unresolved, err := i.Resolve(ctx, requests, progress)
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{
		Requests:   requests,
		Resolved:   resolved,
		Unresolved: unresolved,
	}

	var writeErr error
	if len(resolved) == 0 {
		i.logger.Warn("no songs found, skipping playlist creation")
	} else {
		uris := make([]string, len(resolved))
		for n, track := range resolved {
			uris[n] = track.URI
		}
		var written WriteResult
		written, writeErr = i.WritePlaylist(ctx, uris, description, progress)
		result.Playlist, result.Batches, result.Placed = written.Playlist, written.Batches, written.Added
	}

	reportErr := i.report(result, progress)
	return result, errors.Join(writeErr, reportErr)
}

// Resolve searches for each request in order.
//
// A request with no match, or whose search failed for a reason that does not affect later
// searches, becomes an unresolved entry. Authorization failures and cancellation abort.
func (i *Importer) Resolve(ctx context.Context, requests []models.SongRequest, progress chan<- ProgressUpdate) ([]models.ResolvedTrack, []models.UnresolvedEntry, error) {
	resolved := make([]models.ResolvedTrack, 0, len(requests))
	var unresolved []models.UnresolvedEntry
	total := len(requests)

	for n, req := range requests {
		if err := i.limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("search interrupted at row %d: %w", req.Row, err)
		}

		query := services.BuildQuery(req.Name, req.Artist)
		track, found, err := i.search(ctx, query)
		switch {
		case err != nil && services.IsFatal(err):
			return nil, nil, fmt.Errorf("search failed at row %d: %w", req.Row, err)
		case err != nil:
			i.logger.Warn("search failed", "row", req.Row, "song", req.Name, "artist", req.Artist, "err", err)
			unresolved = append(unresolved, models.NewUnresolved(req, models.ReasonSearchFailed))
		case found:
			i.logger.Info("found", "row", req.Row, "song", req.Name, "artist", req.Artist, "uri", track.URI)
			resolved = append(resolved, track)
		default:
			i.logger.Info("not found", "row", req.Row, "song", req.Name, "artist", req.Artist)
			unresolved = append(unresolved, models.NewUnresolved(req, models.ReasonNoMatch))
		}

		i.sendProgress(progress, searchUpdate(n+1, total, req, err == nil && found))
	}

	return resolved, unresolved, nil
}

// search runs one catalog search bounded by the search timeout.
//
// Running out of time on a single search yields [shared.ErrTimeout], which is not fatal;
// cancellation of ctx itself is returned unchanged.
func (i *Importer) search(ctx context.Context, query string) (models.ResolvedTrack, bool, error) {
	searchCtx, cancel := context.WithTimeout(ctx, i.opts.SearchTimeout)
	defer cancel()

	track, found, err := i.catalog.FirstTrack(searchCtx, query)
	if err != nil && ctx.Err() == nil && errors.Is(searchCtx.Err(), context.DeadlineExceeded) {
		return models.ResolvedTrack{}, false, fmt.Errorf("%w: no search result within %s", shared.ErrTimeout, i.opts.SearchTimeout)
	}
	return track, found, err
}

// WriteResult reports how far [Importer.WritePlaylist] got.
type WriteResult struct {
	Playlist *models.PlaylistHandle
	Batches  int // add-items calls that succeeded
	Added    int // tracks those calls placed
}

// WritePlaylist creates a playlist for the current user and adds uris to it in batches.
//
// The handle is returned even when a batch fails so the partial playlist can be reported.
func (i *Importer) WritePlaylist(ctx context.Context, uris []string, description string, progress chan<- ProgressUpdate) (WriteResult, error) {
	var out WriteResult

	userID, err := i.catalog.CurrentUserID(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to get current user: %w", err)
	}

	playlist, err := i.catalog.CreatePlaylist(ctx, userID, i.opts.PlaylistName, description, i.opts.Public)
	if err != nil {
		return out, fmt.Errorf("failed to create playlist %q: %w", i.opts.PlaylistName, err)
	}
	out.Playlist = playlist
	i.logger.Info("created playlist", "name", playlist.Name, "id", playlist.ID, "visibility", shared.VisibilityString(playlist.Public))
	i.sendProgress(progress, createPlaylistUpdate(playlist))

	batches := Chunk(uris, i.opts.BatchSize)
	for n, batch := range batches {
		if err := i.catalog.AddTracks(ctx, playlist.ID, batch); err != nil {
			return out, fmt.Errorf("added %d of %d tracks to playlist %s: %w", out.Added, len(uris), playlist.ID, err)
		}
		out.Batches++
		out.Added += len(batch)
		i.logger.Debug("added batch", "batch", n+1, "of", len(batches), "tracks", len(batch))
		i.sendProgress(progress, addTracksUpdate(n+1, len(batches), out.Added))
	}

	return out, nil
}

func (i *Importer) report(result *models.ImportResult, progress chan<- ProgressUpdate) error {
	if len(result.Unresolved) == 0 {
		return nil
	}

	if err := formatter.WriteUnresolved(i.opts.ReportPath, result.Unresolved); err != nil {
		i.logger.Error("failed to write report", "path", i.opts.ReportPath, "err", err)
		return fmt.Errorf("failed to write %s: %w", i.opts.ReportPath, err)
	}
	result.ReportPath = i.opts.ReportPath
	i.logger.Info("wrote missing songs", "path", i.opts.ReportPath, "count", len(result.Unresolved))
	i.sendProgress(progress, writeReportUpdate(i.opts.ReportPath, len(result.Unresolved)))
	return nil
}

// Description is the playlist description for an import of inputPath at the given time.
func Description(inputPath string, at time.Time) string {
	return fmt.Sprintf("Imported by sheetify from %s on %s", filepath.Base(inputPath), at.Format(time.DateOnly))
}

// Chunk splits s into consecutive slices of at most size elements, preserving order.
//
// A size below 1 is treated as 1. The chunks share s's backing array.
func Chunk[T any](s []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	chunks := make([][]T, 0, (len(s)+size-1)/size)
	for start := 0; start < len(s); start += size {
		end := min(start+size, len(s))
		chunks = append(chunks, s[start:end:end])
	}
	return chunks
}
