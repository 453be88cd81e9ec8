// Package tasks runs spreadsheet imports with real-time progress reporting.
//
// # Pipeline
//
// Requests are read from the input spreadsheet by the caller ([sheets.ReadSongRequests]).
// [Importer.Import] then executes the remaining stages in order:
//
//  1. [Importer.Resolve] : one paced search per row, first result wins
//     - no result marks the row unresolved with reason no_match
//     - a failed search marks it search_failed and moves on
//     - authorization failures and cancellation abort the run
//  2. [Importer.WritePlaylist] : create the playlist and add tracks in [Chunk]s
//     (skipped when nothing resolved)
//  3. Write unresolved rows to the report ([formatter.WriteUnresolved]),
//     even when playlist creation failed
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
package tasks
