package engagement

import (
	"sort"

	"engagelens/pkg/instagram"
)

// rankingSize bounds every ranking to its top entries.
const rankingSize = 10

// Entry is one ranked liker.
type Entry struct {
	Username string  `json:"username"`
	Value    float64 `json:"value"`
}

// ranking is a bounded ordered view over the full scored collection. total
// and average cover the whole collection, not just the truncated entries.
// Only the entries reach the report; the aggregates feed AverageEngagement.
type ranking struct {
	entries []Entry
	total   float64
	average float64
}

// Report is the full engagement report for one post.
type Report struct {
	Likers            []instagram.Liker `json:"likers"`
	LikesRanking      []Entry           `json:"likes_ranking"`
	CommentRanking    []Entry           `json:"comment_ranking"`
	EngagementRanking []Entry           `json:"engagement_ranking"`
	AverageEngagement float64           `json:"average_engagement"`
}

// BuildReport aggregates a scored liker collection into rankings and summary
// statistics. Empty input yields empty rankings and a zero average through an
// explicit branch; no division happens on the empty path.
func BuildReport(likers []instagram.Liker) *Report {
	report := &Report{
		Likers:            likers,
		LikesRanking:      []Entry{},
		CommentRanking:    []Entry{},
		EngagementRanking: []Entry{},
	}
	if len(likers) == 0 {
		return report
	}

	// The provider's liker edge carries no per-user like or comment counts,
	// so both of these rank by username and expose the engagement score as
	// the value. They are identical on purpose; distinct criteria need
	// per-user activity data the provider does not return.
	byUsername := byUsernameRanking(likers)
	report.LikesRanking = byUsername.entries
	report.CommentRanking = byUsername.entries

	engagement := byScoreRanking(likers)
	report.EngagementRanking = engagement.entries
	report.AverageEngagement = engagement.average

	return report
}

// byUsernameRanking sorts by username ascending and truncates.
func byUsernameRanking(likers []instagram.Liker) ranking {
	sorted := make([]instagram.Liker, len(likers))
	copy(sorted, likers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Username < sorted[j].Username
	})
	return buildRanking(sorted, likers)
}

// byScoreRanking sorts by engagement score descending, keeping encounter
// order for ties, and truncates.
func byScoreRanking(likers []instagram.Liker) ranking {
	sorted := make([]instagram.Liker, len(likers))
	copy(sorted, likers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EngagementScore > sorted[j].EngagementScore
	})
	return buildRanking(sorted, likers)
}

func buildRanking(sorted, full []instagram.Liker) ranking {
	top := sorted
	if len(top) > rankingSize {
		top = top[:rankingSize]
	}

	entries := make([]Entry, 0, len(top))
	for _, liker := range top {
		entries = append(entries, Entry{Username: liker.Username, Value: liker.EngagementScore})
	}

	var total float64
	for _, liker := range full {
		total += liker.EngagementScore
	}

	r := ranking{entries: entries, total: round2(total)}
	if len(full) > 0 {
		r.average = round2(total / float64(len(full)))
	}
	return r
}
