package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"chartscraper/internal/domain"
)

func n(v int64) *int64 { return &v }

func sampleTable() *domain.RangeTable {
	return &domain.RangeTable{
		Markets: []string{"Global", "US", "GB"},
		Rows: []domain.RangeRow{
			{ChartDate: "2024/01/07", Streams: map[string]*int64{"Global": n(12000), "US": n(7000), "GB": nil}},
			{ChartDate: "2024/01/06", Streams: map[string]*int64{"Global": n(11000), "US": nil, "GB": nil}},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return records
}

func TestWriteCSVNullCellsStayEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "range.csv")
	if err := WriteCSV(path, sampleTable()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records := readCSV(t, path)
	want := [][]string{
		{"chart_date", "Global", "US", "GB"},
		{"2024/01/07", "12000", "7000", ""},
		{"2024/01/06", "11000", "", ""},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("csv content = %v, want %v", records, want)
	}
}

func TestWriteJSONNullMarkets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "range.jsonl")
	if err := WriteJSON(path, sampleTable()); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("wrote %d records, want 2", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first record: %v", err)
	}
	if first["chart_date"] != "2024/01/07" {
		t.Errorf("chart_date = %v", first["chart_date"])
	}
	if first["Global"] != float64(12000) {
		t.Errorf("Global = %v, want 12000", first["Global"])
	}
	if v, ok := first["GB"]; !ok || v != nil {
		t.Errorf("GB = %v (present %v), want explicit null", v, ok)
	}
}

func TestWriteTableDispatch(t *testing.T) {
	dir := t.TempDir()
	table := sampleTable()

	for format, ext := range map[string]string{
		"csv":     ".csv",
		"json":    ".jsonl",
		"excel":   ".xlsx",
		"parquet": ".parquet",
	} {
		base := filepath.Join(dir, "out_"+format)
		if err := WriteTable(table, format, base); err != nil {
			t.Errorf("WriteTable(%s) error = %v", format, err)
			continue
		}
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("WriteTable(%s) left no %s file: %v", format, ext, err)
		}
	}

	if err := WriteTable(table, "xml", filepath.Join(dir, "out")); err == nil {
		t.Error("WriteTable accepted an unsupported format")
	}
}

func TestWriteBatchCSVKeepsSchemaOrder(t *testing.T) {
	batch := &domain.ChartBatch{
		ChartDate: "2024/01/07",
		Schema:    domain.TableSchema{"Date", "Global", "US"},
		Rows: []domain.ChartRow{
			{Date: "Total", Kind: domain.RowAggregate, Streams: map[string]*int64{"Global": n(999), "US": n(500)}},
			{Date: "2024/01/07", Kind: domain.RowDated, Streams: map[string]*int64{"Global": n(100), "US": nil}},
		},
	}

	path := filepath.Join(t.TempDir(), "snapshot.csv")
	if err := WriteBatchCSV(path, batch); err != nil {
		t.Fatalf("WriteBatchCSV() error = %v", err)
	}

	records := readCSV(t, path)
	want := [][]string{
		{"date", "Global", "US"},
		{"Total", "999", "500"},
		{"2024/01/07", "100", ""},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("snapshot content = %v, want %v", records, want)
	}
}

func TestWriteTrackCSVCarriesIdentity(t *testing.T) {
	history := &domain.TrackHistory{
		TrackID:    "abc",
		SongName:   "Some Song",
		ArtistName: "Some Artist",
		Batch: &domain.ChartBatch{
			Schema: domain.TableSchema{"Date", "Global"},
			Rows: []domain.ChartRow{
				{Date: "2024/01/07", Kind: domain.RowDated, Streams: map[string]*int64{"Global": n(100)}},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "track.csv")
	if err := WriteTrackCSV(path, history); err != nil {
		t.Fatalf("WriteTrackCSV() error = %v", err)
	}

	records := readCSV(t, path)
	want := [][]string{
		{"date", "Global", "song_name", "artist_name"},
		{"2024/01/07", "100", "Some Song", "Some Artist"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("track content = %v, want %v", records, want)
	}
}

func TestWritersCreateMissingDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "range.csv")
	if err := WriteCSV(path, sampleTable()); err != nil {
		t.Fatalf("WriteCSV() into a missing directory: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}
