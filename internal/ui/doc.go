// Package ui renders styled terminal output with lipgloss.
//
// A [Palette] is created per output stream so color is only emitted to terminals. It renders
// import progress lines, the end-of-run summary with the songs that were not found, and the
// stored import history.
package ui
