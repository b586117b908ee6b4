// Package analysis computes the aggregate figures shown next to the
// complaint feed: resolved progress, trending complaints and per-status counts.
package analysis

import (
	"math"
	"sort"

	"smartcampus/backend/internal/models"
)

// Progress returns the share of resolved complaints as a whole percentage.
// It returns 0 when there are no complaints.
func Progress(complaints []models.Complaint) int {
	if len(complaints) == 0 {
		return 0
	}
	resolved := 0
	for _, c := range complaints {
		if c.Status == models.StatusResolved {
			resolved++
		}
	}
	return int(math.Round(float64(resolved) / float64(len(complaints)) * 100))
}

// Trending returns up to n complaints with the most upvotes. Complaints with
// equal votes keep their input order. The input slice is not modified.
func Trending(complaints []models.Complaint, n int) []models.Complaint {
	out := make([]models.Complaint, len(complaints))
	copy(out, complaints)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Upvotes) > len(out[j].Upvotes)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// StatusCounts counts complaints per status.
func StatusCounts(complaints []models.Complaint) map[models.Status]int {
	counts := make(map[models.Status]int)
	for _, c := range complaints {
		counts[c.Status]++
	}
	return counts
}

// ShortenText cuts text to n runes and appends an ellipsis when it was longer.
func ShortenText(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "…"
}
