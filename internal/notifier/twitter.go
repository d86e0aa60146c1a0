package notifier

import (
	"fmt"
	"net/http"
	"os"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/pfrederiksen/ultra-entrants/internal/entrant"
	"github.com/pfrederiksen/ultra-entrants/internal/logger"
)

// TwitterCredentials are OAuth1 user-context credentials
type TwitterCredentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// TwitterCredentialsFromEnv reads credentials from
// TWITTER_API_KEY, TWITTER_API_SECRET, TWITTER_ACCESS_TOKEN and TWITTER_ACCESS_SECRET.
func TwitterCredentialsFromEnv() TwitterCredentials {
	return TwitterCredentials{
		APIKey:       os.Getenv("TWITTER_API_KEY"),
		APISecret:    os.Getenv("TWITTER_API_SECRET"),
		AccessToken:  os.Getenv("TWITTER_ACCESS_TOKEN"),
		AccessSecret: os.Getenv("TWITTER_ACCESS_SECRET"),
	}
}

// Complete reports whether every credential is set
func (c TwitterCredentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// TwitterNotifier posts change records to Twitter
type TwitterNotifier struct {
	statuses *twitter.StatusService
}

// NewTwitterNotifier creates a Twitter notifier from credentials
func NewTwitterNotifier(creds TwitterCredentials) (*TwitterNotifier, error) {
	if !creds.Complete() {
		return nil, fmt.Errorf("missing required Twitter credentials")
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	return newTwitterNotifier(config.Client(oauth1.NoContext, token)), nil
}

func newTwitterNotifier(httpClient *http.Client) *TwitterNotifier {
	return &TwitterNotifier{statuses: twitter.NewClient(httpClient).Statuses}
}

// Notify posts one status for the change record
func (n *TwitterNotifier) Notify(eventName string, rec *entrant.ChangeRecord) error {
	tweet, _, err := n.statuses.Update(formatMessage(eventName, rec), nil)
	if err != nil {
		logger.IncrCounter("notify_errors")
		return fmt.Errorf("failed to post tweet for %s: %w", eventName, err)
	}

	logger.Info("Posted change notification", logger.Fields{
		"event":    eventName,
		"tweet_id": tweet.IDStr,
	})
	logger.IncrCounter("notifications_sent")
	return nil
}
