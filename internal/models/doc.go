// Package models defines the values that flow through a spreadsheet import.
//
// A run turns rows into values in this order:
//   - [SongRequest] : one per spreadsheet row, input order preserved
//   - [ResolvedTrack] : the first search hit for a request
//   - [UnresolvedEntry] : a request that produced no track, with its [UnresolvedReason]
//   - [PlaylistHandle] : the playlist created for the run
//
// [ImportResult] carries all of them back to the caller, and [ImportRun] is the
// history record stored when run history is enabled.
//
// For every result, len(Resolved) + len(Unresolved) == len(Requests).
package models
