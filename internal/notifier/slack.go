package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/remotehub/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// maxDigestJobs caps how many postings one digest lists individually.
const maxDigestJobs = 10

// SlackNotifier posts a digest of new postings to a Slack channel via an
// Incoming Webhook.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts to the given webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends one Block Kit message listing the new jobs. A first run can
// create hundreds of records, so the digest lists at most maxDigestJobs and
// summarizes the rest.
func (s *SlackNotifier) Notify(jobs []model.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	body, err := json.Marshal(buildPayload(jobs))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	if err := s.post(body, true); err != nil {
		return err
	}
	s.logger.Info("slack digest sent", "jobs", len(jobs))
	return nil
}

// post sends body once, and once more after Retry-After when Slack answers 429.
func (s *SlackNotifier) post(body []byte, retryOn429 bool) error {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests && retryOn429 {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)
		return s.post(body, false)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type      string        `json:"type"`
	Text      *slackText    `json:"text,omitempty"`
	Elements  []slackText   `json:"elements,omitempty"`
	Accessory *slackElement `json:"accessory,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style,omitempty"`
}

// SendTestMessage sends a dummy posting to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	testJob := model.Job{
		Title:       "Test Notification",
		Company:     "remotehub",
		URL:         "https://remotehub.invalid/test",
		Source:      "test",
		Skills:      []string{},
		Location:    "Worldwide",
		IsWorldwide: true,
		DatePosted:  time.Now(),
	}
	return n.Notify([]model.Job{testJob})
}

func buildPayload(jobs []model.Job) slackPayload {
	noun := "jobs"
	if len(jobs) == 1 {
		noun = "job"
	}
	headline := fmt.Sprintf("%d new remote %s", len(jobs), noun)

	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: "🌍 " + headline}},
	}

	shown := jobs
	if len(shown) > maxDigestJobs {
		shown = shown[:maxDigestJobs]
	}
	for _, j := range shown {
		where := j.Location
		if j.IsWorldwide {
			where += " · worldwide"
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*%s* at %s\n%s · %s · posted %s",
					j.Title, j.Company, where, j.Source, j.DatePosted.Format("Jan 2")),
			},
			Accessory: &slackElement{
				Type:  "button",
				Text:  slackText{Type: "plain_text", Text: "Apply"},
				URL:   j.URL,
				Style: "primary",
			},
		})
	}

	if rest := len(jobs) - len(shown); rest > 0 {
		blocks = append(blocks, slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("…and %d more", rest)}},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Text: headline, Blocks: blocks}
}
