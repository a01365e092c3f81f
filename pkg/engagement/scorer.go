// Package engagement scores a post's likers and aggregates rankings.
package engagement

import (
	"math"

	"engagelens/pkg/instagram"
)

// Scorer assigns engagement scores to the likers of a single post. It is
// constructed with the post's aggregate like and comment counts so a richer
// formula can use them without changing any call site.
type Scorer struct {
	likeCount    int
	commentCount int
}

// NewScorer creates a Scorer for one post.
func NewScorer(meta instagram.PostMetadata) Scorer {
	return Scorer{likeCount: meta.LikeCount, commentCount: meta.CommentCount}
}

// Score computes the liker's engagement score from their follower count.
// The current formula treats every liker as having contributed one like and
// one comment, normalized by their own reach; the post totals held by the
// Scorer are not yet part of it.
// TODO: fold per-user like/comment activity into the score once the provider
// exposes it on the liker edge.
func (s Scorer) Score(followerCount int) float64 {
	if followerCount <= 0 {
		return 0
	}
	return round2(2.0 / float64(followerCount) * 100)
}

// ScoreAll assigns a score to every liker in place and returns the slice.
func (s Scorer) ScoreAll(likers []instagram.Liker) []instagram.Liker {
	for i := range likers {
		likers[i].EngagementScore = s.Score(likers[i].FollowerCount)
	}
	return likers
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
