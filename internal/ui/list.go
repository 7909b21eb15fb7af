package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/topgenres/internal/models"
)

var _ list.Item = genreItem{}

// genreItem wraps [models.GenreCount] to implement [list.Item].
type genreItem struct {
	rank  int
	genre models.GenreCount
	total int
}

func (i genreItem) FilterValue() string { return i.genre.Genre }
func (i genreItem) Title() string       { return fmt.Sprintf("%d. %s", i.rank, i.genre.Genre) }
func (i genreItem) Description() string {
	noun := "artists"
	if i.genre.Count == 1 {
		noun = "artist"
	}
	share := 0.0
	if i.total > 0 {
		share = float64(i.genre.Count) / float64(i.total) * 100
	}
	return fmt.Sprintf("%d %s • %.1f%%", i.genre.Count, noun, share)
}

func genreItems(table models.GenreTable) []list.Item {
	total := table.Total()
	items := make([]list.Item, len(table))
	for i, gc := range table {
		items[i] = genreItem{rank: i + 1, genre: gc, total: total}
	}
	return items
}
