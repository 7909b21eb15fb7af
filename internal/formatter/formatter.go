// package formatter renders a genre table as text bars, JSON, CSV or Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/topgenres/internal/models"
	"github.com/desertthunder/topgenres/internal/shared"
)

// Format names an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"

	// DefaultBarWidth is the width of the longest bar in text output.
	DefaultBarWidth = 30

	barGlyph = "█"
)

// ParseFormat validates a --format value. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, json, csv or markdown)", shared.ErrInvalidFlag, s)
	}
}

// Report is the JSON shape of a genre table.
type Report struct {
	Total  int                 `json:"total"`
	Genres []models.GenreCount `json:"genres"`
}

// Export encodes table in the given format.
func Export(table models.GenreTable, format Format, pretty bool) ([]byte, error) {
	switch format {
	case FormatText, "":
		return ExportToText(table, DefaultBarWidth)
	case FormatJSON:
		return ExportToJSON(table, pretty)
	case FormatCSV:
		return ExportToCSV(table)
	case FormatMarkdown:
		return ExportToMarkdown(table, "Top Genres")
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// ExportToJSON encodes the table with its total. An empty table encodes genres as [].
func ExportToJSON(table models.GenreTable, pretty bool) ([]byte, error) {
	genres := []models.GenreCount(table)
	if genres == nil {
		genres = []models.GenreCount{}
	}
	return shared.MarshalJSON(Report{Total: table.Total(), Genres: genres}, pretty)
}

// ExportToCSV writes columns Rank, Genre, Count, Share where Share is a percentage of all pairs.
func ExportToCSV(table models.GenreTable) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Rank", "Genre", "Count", "Share"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	total := table.Total()
	for i, gc := range table {
		record := []string{
			strconv.Itoa(i + 1),
			gc.Genre,
			strconv.Itoa(gc.Count),
			strconv.FormatFloat(share(gc.Count, total), 'f', 1, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a titled Markdown table.
func ExportToMarkdown(table models.GenreTable, title string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Genres**: %d\n", len(table))
	fmt.Fprintf(&buf, "**Artist-genre pairs**: %d\n\n", table.Total())

	if len(table) == 0 {
		buf.WriteString("_No genres found._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Genre | Count | Share |\n")
	buf.WriteString("|---:|---|---:|---:|\n")
	total := table.Total()
	for i, gc := range table {
		genre := strings.ReplaceAll(gc.Genre, "|", `\|`)
		fmt.Fprintf(&buf, "| %d | %s | %d | %.1f%% |\n", i+1, genre, gc.Count, share(gc.Count, total))
	}

	return buf.Bytes(), nil
}

// ExportToText renders one line per genre with a bar scaled so the largest count is width glyphs wide.
func ExportToText(table models.GenreTable, width int) ([]byte, error) {
	var buf bytes.Buffer
	for _, line := range textLines(table, width, nil) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Render is [ExportToText] with the bars drawn in barStyle, for terminals.
func Render(table models.GenreTable, width int, barStyle lipgloss.Style) string {
	return strings.Join(textLines(table, width, &barStyle), "\n")
}

func textLines(table models.GenreTable, width int, style *lipgloss.Style) []string {
	if len(table) == 0 {
		return []string{"No genres found."}
	}
	if width <= 0 {
		width = DefaultBarWidth
	}

	nameWidth, countWidth := 0, len(strconv.Itoa(table.Max()))
	rankWidth := len(strconv.Itoa(len(table)))
	for _, gc := range table {
		nameWidth = max(nameWidth, utf8.RuneCountInString(gc.Genre))
	}

	lines := make([]string, 0, len(table))
	for i, gc := range table {
		bar := strings.Repeat(barGlyph, BarLength(gc.Count, table.Max(), width))
		if style != nil {
			bar = style.Render(bar)
		}
		pad := strings.Repeat(" ", nameWidth-utf8.RuneCountInString(gc.Genre))
		lines = append(lines, fmt.Sprintf("%*d. %s%s  %*d %s", rankWidth, i+1, gc.Genre, pad, countWidth, gc.Count, bar))
	}
	return lines
}

// BarLength scales count against maxCount. Any positive count gets at least one glyph.
func BarLength(count, maxCount, width int) int {
	if count <= 0 || maxCount <= 0 || width <= 0 {
		return 0
	}
	n := int(math.Round(float64(count) / float64(maxCount) * float64(width)))
	return min(max(n, 1), width)
}

func share(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// WriteExport encodes table and writes it to path.
func WriteExport(table models.GenreTable, format Format, path string, pretty bool) error {
	data, err := Export(table, format, pretty)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return nil
}
