package config

import "time"

const (
	// Feedback
	FeedbackSeparator = "\n\n"
	MaxFeedbackLength = 2000

	// Session persistence keys
	SessionAuthKey  = "auth"
	SessionTokenKey = "token"

	// Tokens
	TokenTTL    = 72 * time.Hour
	TokenIssuer = "complaint-portal"

	// Event feed
	EventsChannel = "complaint:events"
	RevokedPrefix = "revoked:"

	// Bulk
	MaxBulkSize = 200
)

// ComplaintTypes are the categories offered on the complaint form.
var ComplaintTypes = []string{
	"Hostel",
	"Academic",
	"Medical",
	"Infrastructure",
	"Sports",
	"Ragging",
}
