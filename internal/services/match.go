package services

import (
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/desertthunder/ytlinks/internal/shared"
)

// DefaultMatchThreshold is the minimum similarity for a candidate to beat the first result.
const DefaultMatchThreshold = 0.85

// ArtistSimilarity scores two artist names between 0 and 1 after normalization.
func ArtistSimilarity(a, b string) float64 {
	na, nb := shared.NormalizeArtist(a), shared.NormalizeArtist(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	return strutil.Similarity(na, nb, metrics.NewJaroWinkler())
}

// BestMatch returns the index of the candidate closest to query.
//
// Falls back to 0 when no candidate reaches threshold, and -1 for an empty list.
func BestMatch(query string, candidates []string, threshold float64) int {
	if len(candidates) == 0 {
		return -1
	}

	best, bestScore := 0, -1.0
	for i, c := range candidates {
		if score := ArtistSimilarity(query, c); score > bestScore {
			best, bestScore = i, score
		}
	}

	if bestScore < threshold {
		return 0
	}
	return best
}
