// Package repositories implements SQLite persistence for import history.
//
// [RunRepository] stores one row per completed import in import_runs and the songs
// that run could not find in unresolved_songs, keyed by run and position so the
// report order survives a round trip. Deleting a run cascades to its songs.
//
// Schema changes live in internal/shared/sql and are applied by [shared.RunMigrations]
// when the history database is opened.
package repositories
