package instagram

// PostMetadata is a read-only snapshot of one post, fetched per request.
type PostMetadata struct {
	Shortcode    string `json:"shortcode"`
	Caption      string `json:"caption"`
	LikeCount    int    `json:"like_count"`
	CommentCount int    `json:"comment_count"`
	MediaURL     string `json:"media_url"`
}

// Liker is one user who engaged with a post. EngagementScore starts at zero
// and is assigned exactly once by the scorer.
type Liker struct {
	Username        string  `json:"username"`
	FollowerCount   int     `json:"follower_count"`
	FolloweeCount   int     `json:"followee_count"`
	EngagementScore float64 `json:"engagement_score"`
}

// Follower is an immutable snapshot of one follower of a profile.
type Follower struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	Biography     string `json:"biography"`
	FollowerCount int    `json:"follower_count"`
	FolloweeCount int    `json:"followee_count"`
	IsPrivate     bool   `json:"is_private"`
	IsVerified    bool   `json:"is_verified"`
}

// Wire types below mirror the provider's GraphQL response shapes.

type pageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

type countNode struct {
	Count int `json:"count"`
}

type postInfoResponse struct {
	Data struct {
		ShortcodeMedia struct {
			Shortcode          string `json:"shortcode"`
			DisplayURL         string `json:"display_url"`
			EdgeMediaToCaption struct {
				Edges []struct {
					Node struct {
						Text string `json:"text"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"edge_media_to_caption"`
			EdgeMediaPreviewLike    countNode `json:"edge_media_preview_like"`
			EdgeMediaToParentCommnt countNode `json:"edge_media_to_parent_comment"`
		} `json:"shortcode_media"`
	} `json:"data"`
	Status string `json:"status"`
}

func (r *postInfoResponse) caption() string {
	edges := r.Data.ShortcodeMedia.EdgeMediaToCaption.Edges
	if len(edges) == 0 {
		return ""
	}
	return edges[0].Node.Text
}

type likerNode struct {
	Username       string    `json:"username"`
	EdgeFollowedBy countNode `json:"edge_followed_by"`
	EdgeFollow     countNode `json:"edge_follow"`
}

type likersResponse struct {
	Data struct {
		ShortcodeMedia struct {
			EdgeLikedBy struct {
				Count    int      `json:"count"`
				PageInfo pageInfo `json:"page_info"`
				Edges    []struct {
					Node likerNode `json:"node"`
				} `json:"edges"`
			} `json:"edge_liked_by"`
		} `json:"shortcode_media"`
	} `json:"data"`
	Status string `json:"status"`
}

type followerNode struct {
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	Biography      string    `json:"biography"`
	EdgeFollowedBy countNode `json:"edge_followed_by"`
	EdgeFollow     countNode `json:"edge_follow"`
	IsPrivate      bool      `json:"is_private"`
	IsVerified     bool      `json:"is_verified"`
}

type followersResponse struct {
	Data struct {
		User struct {
			EdgeFollowedBy struct {
				Count    int      `json:"count"`
				PageInfo pageInfo `json:"page_info"`
				Edges    []struct {
					Node followerNode `json:"node"`
				} `json:"edges"`
			} `json:"edge_followed_by"`
		} `json:"user"`
	} `json:"data"`
	Status string `json:"status"`
}

type profileResponse struct {
	RequiresToLogin bool `json:"requires_to_login"`
	Data            struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	} `json:"data"`
	Status string `json:"status"`
}

type loginResponse struct {
	Authenticated bool   `json:"authenticated"`
	User          bool   `json:"user"`
	Status        string `json:"status"`
}
