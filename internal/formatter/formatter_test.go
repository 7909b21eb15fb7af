package formatter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/topgenres/internal/models"
	"github.com/desertthunder/topgenres/internal/shared"
)

var table = models.GenreTable{
	{Genre: "indie rock", Count: 6},
	{Genre: "shoegaze", Count: 3},
	{Genre: "dream pop", Count: 1},
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" csv ", FormatCSV, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if !errors.Is(err, shared.ErrInvalidFlag) {
				t.Errorf("ParseFormat(%q) error = %v, want ErrInvalidFlag", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(table)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		want := "Rank,Genre,Count,Share\n1,indie rock,6,60.0\n2,shoegaze,3,30.0\n3,dream pop,1,10.0\n"
		if string(data) != want {
			t.Errorf("CSV = %q, want %q", data, want)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(table, "Top Genres")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Top Genres",
			"**Genres**: 3",
			"**Artist-genre pairs**: 10",
			"| 1 | indie rock | 6 | 60.0% |",
			"| 3 | dream pop | 1 | 10.0% |",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown escapes pipes", func(t *testing.T) {
		data, _ := ExportToMarkdown(models.GenreTable{{Genre: "a|b", Count: 1}}, "T")
		if !strings.Contains(string(data), `a\|b`) {
			t.Errorf("pipe not escaped: %s", data)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(table, 6)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		want := []string{
			"1. indie rock  6 ██████",
			"2. shoegaze    3 ███",
			"3. dream pop   1 █",
		}
		if len(lines) != len(want) {
			t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), data)
		}
		for i := range want {
			if lines[i] != want[i] {
				t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
			}
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(table, false)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var report Report
		if err := json.Unmarshal(data, &report); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if report.Total != 10 || len(report.Genres) != 3 || report.Genres[0].Genre != "indie rock" {
			t.Errorf("report = %+v", report)
		}
	})

	t.Run("empty table", func(t *testing.T) {
		data, _ := ExportToJSON(nil, false)
		if string(data) != `{"total":0,"genres":[]}` {
			t.Errorf("JSON = %s", data)
		}

		text, _ := ExportToText(nil, 10)
		if strings.TrimSpace(string(text)) != "No genres found." {
			t.Errorf("text = %q", text)
		}

		csvData, _ := ExportToCSV(nil)
		if string(csvData) != "Rank,Genre,Count,Share\n" {
			t.Errorf("CSV = %q", csvData)
		}
	})
}

func TestBarLength(t *testing.T) {
	tests := []struct {
		count, maxCount, width, want int
	}{
		{10, 10, 30, 30},
		{5, 10, 30, 15},
		{1, 100, 30, 1},
		{0, 10, 30, 0},
		{3, 0, 30, 0},
		{3, 3, 0, 0},
	}
	for _, tt := range tests {
		if got := BarLength(tt.count, tt.maxCount, tt.width); got != tt.want {
			t.Errorf("BarLength(%d, %d, %d) = %d, want %d", tt.count, tt.maxCount, tt.width, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	out := Render(table, 6, lipgloss.NewStyle())
	if strings.Count(out, "\n") != 2 || !strings.Contains(out, "shoegaze") {
		t.Errorf("Render output:\n%s", out)
	}
}

func TestWriteExport(t *testing.T) {
	dir := t.TempDir()

	t.Run("writes file", func(t *testing.T) {
		path := filepath.Join(dir, "genres.csv")
		if err := WriteExport(table, FormatCSV, path, false); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(data), "Rank,Genre") {
			t.Errorf("file = %q", data)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		err := WriteExport(table, Format("xml"), filepath.Join(dir, "x"), false)
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("error = %v, want ErrInvalidFlag", err)
		}
	})

	t.Run("bad path", func(t *testing.T) {
		err := WriteExport(table, FormatText, filepath.Join(dir, "missing", "x.txt"), false)
		if err == nil {
			t.Error("expected write error")
		}
	})
}
