// Package ui renders CLI output with lipgloss: a shared colour [Palette], tables of tracks and refresh runs,
// styled refresh progress lines and end-of-run summaries.
//
// [Browser] is a bubbletea track picker for interactive terminals.
//
// Styles degrade to plain text when stdout is not a terminal.
package ui
