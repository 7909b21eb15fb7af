// Package genres turns top-artist records into a ranked genre frequency table.
//
// Every (artist, genre) pair counts once, including a genre an artist lists twice. Genres are case-folded,
// and the table is stable-sorted by descending count so ties keep first-seen order.
package genres

import (
	"sort"
	"strings"

	"github.com/desertthunder/topgenres/internal/models"
)

// Options adjusts aggregation.
type Options struct {
	// Uncategorized, when non-empty, counts each artist without genres once under this label.
	// By default such artists are dropped.
	Uncategorized string
}

// Aggregate builds the genre table for artists, dropping artists with no genres.
func Aggregate(artists []models.Artist) models.GenreTable {
	return AggregateWith(artists, Options{})
}

// AggregateWith is [Aggregate] with [Options].
func AggregateWith(artists []models.Artist, opts Options) models.GenreTable {
	counts := make(map[string]int)
	var order []string

	add := func(genre string) {
		if _, seen := counts[genre]; !seen {
			order = append(order, genre)
		}
		counts[genre]++
	}

	for _, artist := range artists {
		if len(artist.Genres) == 0 {
			if opts.Uncategorized != "" {
				add(strings.ToLower(opts.Uncategorized))
			}
			continue
		}
		for _, genre := range artist.Genres {
			add(strings.ToLower(genre))
		}
	}

	table := make(models.GenreTable, 0, len(order))
	for _, genre := range order {
		table = append(table, models.GenreCount{Genre: genre, Count: counts[genre]})
	}

	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Count > table[j].Count
	})

	return table
}
