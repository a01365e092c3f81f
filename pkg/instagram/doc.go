// Package instagram implements the external content provider client.
//
// Two capability modes exist. Client covers the anonymous surface: post
// metadata, bounded liker pagination, and media download. Session covers the
// credential-gated surface: follower pagination, which the provider only
// serves to a logged-in session.
//
// All operations are single-attempt. Provider throttling, auth lockouts, and
// transient network faults surface as external_service errors for the caller
// to handle; nothing here retries.
package instagram
