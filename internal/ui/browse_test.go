package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytlinks/internal/models"
)

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestBrowser(t *testing.T) {
	tracks := []models.Track{
		{Title: "Şımarık", Artist: "Tarkan", Album: "Ölürüm Sana", Duration: 242, URL: "https://audio.example/v1"},
		{Title: "Kuzu Kuzu", Artist: "Tarkan", URL: "https://audio.example/v2"},
	}

	newBrowser := func() *Browser {
		b := NewBrowser("links.json", tracks)
		b.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
		return b
	}

	t.Run("View", func(t *testing.T) {
		out := newBrowser().View()
		for _, want := range []string{"links.json", "Şımarık", "Tarkan • Ölürüm Sana • 4:02", "print url"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected view to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("Enter Selects Highlighted Track", func(t *testing.T) {
		b := newBrowser()
		b.Update(tea.KeyMsg{Type: tea.KeyDown})
		_, cmd := b.Update(tea.KeyMsg{Type: tea.KeyEnter})

		if !isQuit(cmd) {
			t.Error("expected enter to quit")
		}
		if b.Selected() == nil || b.Selected().URL != "https://audio.example/v2" {
			t.Errorf("unexpected selection %+v", b.Selected())
		}
	})

	t.Run("Quit Without Selection", func(t *testing.T) {
		b := newBrowser()
		_, cmd := b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
		if !isQuit(cmd) {
			t.Error("expected q to quit")
		}
		if b.Selected() != nil {
			t.Errorf("expected no selection, got %+v", b.Selected())
		}
	})

	t.Run("Empty List", func(t *testing.T) {
		b := NewBrowser("links.json", nil)
		if _, cmd := b.Update(tea.KeyMsg{Type: tea.KeyEnter}); isQuit(cmd) || b.Selected() != nil {
			t.Error("expected enter on an empty list to do nothing")
		}
	})
}
