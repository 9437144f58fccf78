package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
)

var _ list.DefaultItem = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Artist }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	parts := []string{i.track.Artist}
	if i.track.Album != "" {
		parts = append(parts, i.track.Album)
	}
	if i.track.Duration > 0 {
		parts = append(parts, shared.FormatDuration(i.track.Duration))
	}
	return strings.Join(parts, " • ")
}

// browseKeys defines the [key.Binding] mapping for the track browser.
type browseKeys struct {
	up     key.Binding
	down   key.Binding
	filter key.Binding
	enter  key.Binding
	quit   key.Binding
}

func newBrowseKeys() browseKeys {
	return browseKeys{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		filter: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "print url")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Browser is a [tea.Model] listing tracks from the links document.
//
// Enter picks the highlighted track and quits; [Browser.Selected] reports it afterwards.
type Browser struct {
	list     list.Model
	help     help.Model
	keys     browseKeys
	selected *models.Track
}

// NewBrowser creates a browser over tracks in document order.
func NewBrowser(title string, tracks []models.Track) *Browser {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.Styles.Title = NewBold("#FFFDF5").Background(lipgloss.Color("#7D56F4")).Padding(0, 1)

	return &Browser{list: l, help: help.New(), keys: newBrowseKeys()}
}

// Init implements [tea.Model].
func (b *Browser) Init() tea.Cmd {
	return nil
}

// Update implements [tea.Model].
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.list.SetSize(msg.Width-2, msg.Height-3)
		return b, nil

	case tea.KeyMsg:
		if b.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, b.keys.quit):
			return b, tea.Quit
		case key.Matches(msg, b.keys.enter):
			if item, ok := b.list.SelectedItem().(trackItem); ok {
				track := item.track
				b.selected = &track
				return b, tea.Quit
			}
			return b, nil
		}
	}

	var cmd tea.Cmd
	b.list, cmd = b.list.Update(msg)
	return b, cmd
}

// View implements [tea.Model].
func (b *Browser) View() string {
	helpView := b.help.ShortHelpView([]key.Binding{b.keys.up, b.keys.down, b.keys.filter, b.keys.enter, b.keys.quit})
	return fmt.Sprintf("%s\n%s", b.list.View(), helpView)
}

// Selected is the track picked with enter, or nil when the browser was quit.
func (b *Browser) Selected() *models.Track {
	return b.selected
}
