package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RFM segments, ordered from best to worst.
const (
	SegmentChampion  = "champion"
	SegmentLoyal     = "loyal"
	SegmentPromising = "promising"
	SegmentAtRisk    = "at_risk"
	SegmentInactive  = "inactive"
)

// RFMRow is one customer's recency/frequency/monetary breakdown.
type RFMRow struct {
	CustomerID     uint            `json:"customer_id"`
	Name           string          `json:"name"`
	RecencyDays    int             `json:"recency_days"`
	Frequency      int64           `json:"frequency"`
	Monetary       decimal.Decimal `json:"monetary"`
	RecencyScore   int             `json:"recency_score"`
	FrequencyScore int             `json:"frequency_score"`
	MonetaryScore  int             `json:"monetary_score"`
	Score          int             `json:"score"`
	Segment        string          `json:"segment"`
}

// RFMReport covers every customer with at least one purchase.
type RFMReport struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Customers   []RFMRow       `json:"customers"`
	Segments    map[string]int `json:"segments"`
}

func buildRFMReport(sources []RFMSource, now time.Time) *RFMReport {
	rows := make([]RFMRow, len(sources))
	for i, src := range sources {
		recency := int(now.Sub(src.LastPurchase).Hours() / 24)
		if recency < 0 {
			recency = 0
		}
		rows[i] = RFMRow{
			CustomerID:  src.CustomerID,
			Name:        src.Name,
			RecencyDays: recency,
			Frequency:   src.Frequency,
			Monetary:    src.Monetary,
		}
	}

	// Lower recency means a more recent purchase, so its ranking is reversed.
	recencyScores := quintileScores(len(rows), true, func(i, j int) bool {
		return rows[i].RecencyDays < rows[j].RecencyDays
	})
	frequencyScores := quintileScores(len(rows), false, func(i, j int) bool {
		return rows[i].Frequency < rows[j].Frequency
	})
	monetaryScores := quintileScores(len(rows), false, func(i, j int) bool {
		return rows[i].Monetary.LessThan(rows[j].Monetary)
	})

	segments := map[string]int{}
	for i := range rows {
		rows[i].RecencyScore = recencyScores[i]
		rows[i].FrequencyScore = frequencyScores[i]
		rows[i].MonetaryScore = monetaryScores[i]
		rows[i].Score = rows[i].RecencyScore + rows[i].FrequencyScore + rows[i].MonetaryScore
		rows[i].Segment = segmentFor(rows[i].Score)
		segments[rows[i].Segment]++
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].CustomerID < rows[j].CustomerID
	})

	return &RFMReport{
		GeneratedAt: now,
		Customers:   rows,
		Segments:    segments,
	}
}

// quintileScores ranks n items into five buckets by their ascending order and
// returns a 1..5 score per item. When reversed, the first-ranked item scores 5.
func quintileScores(n int, reversed bool, less func(i, j int) bool) []int {
	if n == 0 {
		return nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return less(order[a], order[b])
	})

	scores := make([]int, n)
	for pos, idx := range order {
		bucket := pos * 5 / n
		if reversed {
			scores[idx] = 5 - bucket
		} else {
			scores[idx] = bucket + 1
		}
	}
	return scores
}

func segmentFor(score int) string {
	switch {
	case score >= 13:
		return SegmentChampion
	case score >= 10:
		return SegmentLoyal
	case score >= 7:
		return SegmentPromising
	case score >= 4:
		return SegmentAtRisk
	default:
		return SegmentInactive
	}
}
