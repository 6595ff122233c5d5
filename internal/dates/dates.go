// Package dates turns user-entered deadlines into the YYYY-MM-DD strings
// the spreadsheet stores. Input may be an exact date or natural language
// ("next friday", "in 2 weeks").
package dates

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DayFormat is the storage format for all deadlines and due dates.
const DayFormat = "2006-01-02"

// Parser resolves deadline input relative to an injected clock.
type Parser struct {
	w   *when.Parser
	Now func() time.Time
}

func NewParser() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{w: w, Now: time.Now}
}

// ParseDay resolves input to a calendar day. Exact YYYY-MM-DD input wins;
// otherwise natural language is tried. Returns false when nothing matches,
// so callers can reject the input with a validation error.
func (p *Parser) ParseDay(input string) (string, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", false
	}
	if t, err := time.Parse(DayFormat, s); err == nil {
		return t.Format(DayFormat), true
	}
	r, err := p.w.Parse(s, p.Now())
	if err != nil || r == nil {
		return "", false
	}
	return r.Time.Format(DayFormat), true
}
