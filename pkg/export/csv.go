// Package export serializes follower records into downloadable tabular files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"engagelens/pkg/instagram"
)

// followerColumns is the fixed export schema. The header is always this
// list, in this order, never derived from the data, so an empty input still
// produces a well-formed file.
var followerColumns = []string{
	"username",
	"full_name",
	"bio",
	"followers",
	"followees",
	"is_private",
	"is_verified",
}

// ContentType is the MIME type of the produced artifact.
const ContentType = "text/csv"

// Filename returns the download filename for a profile's follower export.
func Filename(username string) string {
	return fmt.Sprintf("%s_followers.csv", username)
}

// RenderFollowers produces the complete CSV artifact in memory: one header
// row and one row per follower, in input order. Either the whole artifact is
// returned or none of it.
func RenderFollowers(followers []instagram.Follower) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(followerColumns); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, f := range followers {
		record := []string{
			f.Username,
			f.FullName,
			f.Biography,
			strconv.Itoa(f.FollowerCount),
			strconv.Itoa(f.FolloweeCount),
			strconv.FormatBool(f.IsPrivate),
			strconv.FormatBool(f.IsVerified),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write row for %s: %w", f.Username, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}
	return buf.Bytes(), nil
}
