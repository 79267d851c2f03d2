package filter

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PageSize is the number of records per listing page.
const PageSize = 20

// Criteria is a listing query. Zero-value fields do not constrain results.
type Criteria struct {
	Text          string   // substring of title, company or description
	Skills        []string // any term in title or description
	WorldwideOnly bool
	Sources       []string // exact source names
	Page          int      // 1-based
}

// FromQuery reads criteria from listing query parameters: q, skills
// (comma-separated), worldwide=true, sources (comma-separated) and page.
// A missing, malformed or non-positive page becomes 1.
func FromQuery(v url.Values) Criteria {
	c := Criteria{
		Text:          strings.TrimSpace(v.Get("q")),
		Skills:        splitList(v.Get("skills")),
		WorldwideOnly: v.Get("worldwide") == "true",
		Sources:       splitList(v.Get("sources")),
		Page:          1,
	}
	if p, err := strconv.Atoi(v.Get("page")); err == nil && p > 1 {
		c.Page = p
	}
	return c
}

// Normalize trims list entries, drops empty ones and clamps the page to 1.
func (c Criteria) Normalize() Criteria {
	c.Text = strings.TrimSpace(c.Text)
	c.Skills = compact(c.Skills)
	c.Sources = compact(c.Sources)
	if c.Page < 1 {
		c.Page = 1
	}
	return c
}

// Where builds a parameterized SQL predicate for c. Categories are ANDed;
// skill terms are ORed with each other. Expired records never match.
func (c Criteria) Where(now time.Time) (string, []any) {
	c = c.Normalize()

	clauses := []string{"expires_at > ?"}
	args := []any{now.UnixMilli()}

	if c.Text != "" {
		p := likePattern(c.Text)
		clauses = append(clauses,
			`(title LIKE ? ESCAPE '\' OR company LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		args = append(args, p, p, p)
	}

	if len(c.Skills) > 0 {
		terms := make([]string, len(c.Skills))
		for i, s := range c.Skills {
			p := likePattern(s)
			terms[i] = `title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\'`
			args = append(args, p, p)
		}
		clauses = append(clauses, "("+strings.Join(terms, " OR ")+")")
	}

	if c.WorldwideOnly {
		clauses = append(clauses, "is_worldwide = 1")
	}

	if len(c.Sources) > 0 {
		marks := make([]string, len(c.Sources))
		for i, s := range c.Sources {
			marks[i] = "?"
			args = append(args, s)
		}
		clauses = append(clauses, "source IN ("+strings.Join(marks, ", ")+")")
	}

	return strings.Join(clauses, " AND "), args
}

// Offset returns the row offset of the criteria's page.
func (c Criteria) Offset() int {
	return (c.Normalize().Page - 1) * PageSize
}

// TotalPages returns ceil(total / PageSize).
func TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}

// likePattern wraps term for a substring LIKE match, escaping the LIKE
// metacharacters so user input is taken literally.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return compact(strings.Split(raw, ","))
}

func compact(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
