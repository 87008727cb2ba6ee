package chart

import (
	"testing"
	"time"

	"chartscraper/internal/domain"
)

func TestParseDateIndex(t *testing.T) {
	html := `
<html><body>
<a href="/about.html">About</a>
<table>
  <tr><td><a href="weekly/2024_01_07.html">2024/01/07</a></td></tr>
  <tr><td><a href="weekly/2024_01_05.html">2024/01/05</a></td></tr>
  <tr><td><a href="weekly/2024_01_06.html">2024/01/06</a></td></tr>
  <tr><td><a href="faq.html">FAQ</a></td></tr>
</table>
</body></html>`

	dates, err := ParseDateIndex(html)
	if err != nil {
		t.Fatalf("ParseDateIndex() error = %v", err)
	}
	if len(dates) != 3 {
		t.Fatalf("found %d dates, want 3", len(dates))
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i-1].Before(dates[i]) {
			t.Errorf("dates not ascending: %v before %v", dates[i-1], dates[i])
		}
	}
	want := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	if !dates[0].Equal(want) {
		t.Errorf("first date = %v, want %v", dates[0], want)
	}
}

func TestParseDateIndexEmptyPage(t *testing.T) {
	dates, err := ParseDateIndex("<html><body><p>no charts here</p></body></html>")
	if err != nil {
		t.Fatalf("ParseDateIndex() error = %v", err)
	}
	if len(dates) != 0 {
		t.Errorf("found %d dates on a page without any", len(dates))
	}
}

func TestParseTrackIdentity(t *testing.T) {
	tests := []struct {
		name       string
		html       string
		wantSong   string
		wantArtist string
	}{
		{
			name:       "title with branding",
			html:       `<html><head><title>Dua Lipa - Levitating | Spotify Chart History</title></head></html>`,
			wantSong:   "Levitating",
			wantArtist: "Dua Lipa",
		},
		{
			name:       "en dash separator",
			html:       `<html><head><title>The Weeknd – Blinding Lights</title></head></html>`,
			wantSong:   "Blinding Lights",
			wantArtist: "The Weeknd",
		},
		{
			name:       "heading fallback",
			html:       `<html><body><h1>Queen - Bohemian Rhapsody</h1></body></html>`,
			wantSong:   "Bohemian Rhapsody",
			wantArtist: "Queen",
		},
		{
			name:       "no separator",
			html:       `<html><head><title>Untitled</title></head></html>`,
			wantSong:   "Untitled",
			wantArtist: "",
		},
		{
			name:       "nothing to read",
			html:       `<html><body></body></html>`,
			wantSong:   "",
			wantArtist: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			song, artist := ParseTrackIdentity(tt.html)
			if song != tt.wantSong || artist != tt.wantArtist {
				t.Errorf("ParseTrackIdentity() = (%q, %q), want (%q, %q)",
					song, artist, tt.wantSong, tt.wantArtist)
			}
		})
	}
}

func TestChartDateFormatRoundTrip(t *testing.T) {
	d := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	s := d.Format(domain.ChartDateFormat)
	if s != "2024/01/07" {
		t.Fatalf("formatted date = %q", s)
	}
	back, err := time.Parse(domain.ChartDateFormat, s)
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("round trip changed the date: %v != %v", back, d)
	}
}
