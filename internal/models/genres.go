package models

// Artist is a top-artist record. Fields other than Genres are carried for display only.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// GenreCount is the number of (artist, genre) pairs observed for one lower-cased genre.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// GenreTable is an aggregation result ordered by descending count.
type GenreTable []GenreCount

// Total returns the sum of all counts.
func (t GenreTable) Total() int {
	total := 0
	for _, gc := range t {
		total += gc.Count
	}
	return total
}

// Top returns at most n leading rows. A non-positive n returns the whole table.
func (t GenreTable) Top(n int) GenreTable {
	if n <= 0 || n >= len(t) {
		return t
	}
	return t[:n]
}

// Max returns the highest count in the table, or zero when empty.
func (t GenreTable) Max() int {
	if len(t) == 0 {
		return 0
	}
	return t[0].Count
}
