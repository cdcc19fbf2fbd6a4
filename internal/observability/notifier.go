package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// Notifier sends report messages to external channels.
type Notifier interface {
	Notify(messages []models.Message) error
}

// slackNotifier sends report messages to a Slack webhook.
type slackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a Notifier that posts to the given Slack webhook URL.
func NewSlackNotifier(webhookURL string) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts the given messages to the configured Slack webhook.
// It returns nil without making a request if messages is empty.
func (s *slackNotifier) Notify(messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	body, err := json.Marshal(s.buildMessage(messages))
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func (s *slackNotifier) buildMessage(messages []models.Message) slackMessage {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("jobwatch report: %d finding(s)", len(messages))},
		},
	}

	for i, msg := range messages {
		if i > 0 {
			blocks = append(blocks, slackBlock{Type: "divider"})
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("%s *[%s]* %s", levelEmoji(msg.Level), msg.Level, msg.Text),
			},
		})
	}

	return slackMessage{Blocks: blocks}
}

func levelEmoji(level models.Level) string {
	switch level {
	case models.LevelError:
		return "\U0001f534"
	case models.LevelWarning:
		return "\U0001f7e1"
	case models.LevelInfo:
		return "\U0001f535"
	default:
		return "\u2753"
	}
}
