package services

import "testing"

func TestBestMatch(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		candidates []string
		want       int
	}{
		{"empty", "daft punk", nil, -1},
		{"exact after normalization", "DAFT punk", []string{"Justice", "Daft Punk"}, 1},
		{"close spelling", "beyonce", []string{"Beyoncé Tribute Band", "Beyonce"}, 1},
		{"nothing close", "xyz", []string{"Alpha", "Beta"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BestMatch(tt.query, tt.candidates, DefaultMatchThreshold); got != tt.want {
				t.Errorf("BestMatch(%q) = %d, want %d", tt.query, got, tt.want)
			}
		})
	}
}

func TestArtistSimilarity(t *testing.T) {
	if got := ArtistSimilarity("  Daft   Punk ", "daft punk"); got != 1 {
		t.Errorf("expected identical names to score 1, got %v", got)
	}
	if got := ArtistSimilarity("", "daft punk"); got != 0 {
		t.Errorf("expected empty name to score 0, got %v", got)
	}
	if a, b := ArtistSimilarity("daft punk", "daft punks"), ArtistSimilarity("daft punk", "metallica"); a <= b {
		t.Errorf("expected closer name to score higher: %v <= %v", a, b)
	}
}
