package adapter

import (
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/remotehub/internal/model"
)

const (
	defaultCompany  = "Unknown"
	defaultLocation = "Remote"
)

var worldwideKeywords = []string{"worldwide", "anywhere", "global"}

// PlainText renders stored description markup as whitespace-collapsed text.
func PlainText(content string) string {
	return extractText(content)
}

// extractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities (handles double-encoded feeds; no-op on
// already-real HTML), lets goquery drop the markup, then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(unescaped))
	if err != nil {
		return strings.Join(strings.Fields(unescaped), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// isWorldwide reports whether any of texts mentions a worldwide keyword
// (case-insensitive substring).
func isWorldwide(texts ...string) bool {
	for _, t := range texts {
		lower := strings.ToLower(t)
		for _, kw := range worldwideKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// dateLayouts are tried in order by parseDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// parseDate parses the date formats the boards are known to emit. Times
// without a zone are taken as UTC.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// isAbsoluteURL reports whether raw parses as a URL with both scheme and host.
func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}

// finalize trims and defaults a mapped job and checks the invariants every
// emitted job must hold. Violations come back as *model.ItemError.
func finalize(source string, j model.Job) (model.Job, error) {
	j.Source = source
	j.Title = strings.TrimSpace(j.Title)
	j.Company = strings.TrimSpace(j.Company)
	j.URL = strings.TrimSpace(j.URL)
	j.Location = strings.TrimSpace(j.Location)

	if j.Title == "" {
		return model.Job{}, &model.ItemError{Source: source, Reason: "missing title"}
	}
	if !isAbsoluteURL(j.URL) {
		return model.Job{}, &model.ItemError{Source: source, Reason: fmt.Sprintf("invalid url %q", j.URL)}
	}
	if j.DatePosted.IsZero() {
		return model.Job{}, &model.ItemError{Source: source, Reason: "missing posting date"}
	}
	if j.Company == "" {
		j.Company = defaultCompany
	}
	if j.Location == "" {
		j.Location = defaultLocation
	}
	if j.Skills == nil {
		j.Skills = []string{}
	}
	return j, nil
}

// collect finalizes j and appends it to jobs, or logs and drops it.
func collect(jobs []model.Job, j model.Job, source string, logger *slog.Logger) []model.Job {
	nj, err := finalize(source, j)
	if err != nil {
		logger.Debug("dropping item", "source", source, "error", err)
		return jobs
	}
	return append(jobs, nj)
}

// drop logs an item that failed before it could be mapped.
func drop(logger *slog.Logger, source, reason string) {
	logger.Debug("dropping item", "source", source, "error", &model.ItemError{Source: source, Reason: reason})
}

// stringList decodes either a JSON array of strings or a single
// comma-separated string. Boards are not consistent about tag encoding.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*s = compact(arr)
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("expected string or string array: %w", err)
	}
	*s = compact(strings.Split(single, ","))
	return nil
}

// compact trims each entry and drops empty ones.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
