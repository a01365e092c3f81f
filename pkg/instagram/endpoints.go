package instagram

import (
	"encoding/json"
	"fmt"
	"net/url"
)

const (
	// DefaultBaseURL is the base URL for the provider's web API.
	DefaultBaseURL = "https://www.instagram.com"

	// ProfileEndpoint resolves a username to profile data, including the
	// numeric user ID needed for follower pagination.
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// GraphQLEndpoint serves query-hash based paginated queries.
	GraphQLEndpoint = "/graphql/query/"

	// LoginEndpoint authenticates a session.
	LoginEndpoint = "/accounts/login/ajax/"

	// Query hashes for the GraphQL operations used here.
	postInfoQueryHash  = "2b0673e0dc4580674a88d426fe00ea90"
	likersQueryHash    = "d5d763b1e2acf209d62d22d184488e57"
	followersQueryHash = "c76146de99bb02f6415203be841dd25a"

	// maxPageSize is the largest page the provider serves per request.
	maxPageSize = 50
)

func profileURL(base, username string) string {
	params := url.Values{}
	params.Set("username", username)
	return fmt.Sprintf("%s%s?%s", base, ProfileEndpoint, params.Encode())
}

func postInfoURL(base, shortcode string) string {
	return graphqlURL(base, postInfoQueryHash, map[string]interface{}{
		"shortcode": shortcode,
	})
}

func likersURL(base, shortcode, after string, first int) string {
	vars := map[string]interface{}{
		"shortcode": shortcode,
		"first":     clampPageSize(first),
	}
	if after != "" {
		vars["after"] = after
	}
	return graphqlURL(base, likersQueryHash, vars)
}

func followersURL(base, userID, after string, first int) string {
	vars := map[string]interface{}{
		"id":    userID,
		"first": clampPageSize(first),
	}
	if after != "" {
		vars["after"] = after
	}
	return graphqlURL(base, followersQueryHash, vars)
}

func loginURL(base string) string {
	return base + LoginEndpoint
}

func graphqlURL(base, queryHash string, variables map[string]interface{}) string {
	encoded, _ := json.Marshal(variables)
	params := url.Values{}
	params.Set("query_hash", queryHash)
	params.Set("variables", string(encoded))
	return fmt.Sprintf("%s%s?%s", base, GraphQLEndpoint, params.Encode())
}

func clampPageSize(first int) int {
	if first <= 0 {
		return 1
	}
	if first > maxPageSize {
		return maxPageSize
	}
	return first
}
