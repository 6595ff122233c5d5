package reconcile

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/crewdesk/crewdesk/internal/domain"
)

// Canonical channel names. Older deployments used " | " and "|" separators;
// legacyVariants covers both so existing guilds migrate by rename instead of
// growing duplicates.
const (
	CategoryName       = "🗂️ | CRM"
	legacyCategoryName = "🗂️|CRM"

	ClientBoardChannel  = "👥-client-board"
	JobBoardChannel     = "🛠️-job-board"
	TaskBoardChannel    = "📋-task-board"
	InvoiceBoardChannel = "🧾-invoice-board"
	AdminBoardChannel   = "🔐-admin-board"
	LeadBoardChannel    = "📥-lead-board"

	clientIcon = "🪪"
)

const maxThreadNameRunes = 100

// legacyVariants returns the old spellings of a canonical "<emoji>-<rest>"
// board name.
func legacyVariants(canonical string) []string {
	i := strings.Index(canonical, "-")
	if i < 0 {
		return nil
	}
	emoji, rest := canonical[:i], canonical[i+1:]
	return []string{emoji + " | " + rest, emoji + "|" + rest}
}

// stripMarks removes combining marks after NFD decomposition, folding
// "Café" to "Cafe" before slugging.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug lowercases, folds diacritics, and collapses every run of
// non-alphanumerics into a single hyphen with no leading or trailing hyphen.
func Slug(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// cleanCode lowercases a client code and strips everything outside [a-z0-9].
func cleanCode(code string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(code)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ClientChannelName is the canonical per-client channel name,
// e.g. 🪪-acme-acme-co.
func ClientChannelName(c domain.Client) string {
	code := cleanCode(c.Code)
	if code == "" {
		code = cleanCode(c.ID)
	}
	if code == "" {
		code = "code"
	}
	name := Slug(c.Name)
	if name == "" {
		name = "client"
	}
	return clientIcon + "-" + code + "-" + name
}

// legacyClientChannelName preserves the raw lowercased code, as written by
// builds that did not clean it.
func legacyClientChannelName(c domain.Client) string {
	name := Slug(c.Name)
	if name == "" {
		name = "client"
	}
	return clientIcon + "-" + strings.ToLower(c.Code) + "-" + name
}

// ThreadName is "<JOBID> — <title>", capped at Discord's 100-rune limit.
func ThreadName(j domain.Job) string {
	name := j.Title
	if j.ID != "" {
		name = j.ID + " — " + j.Title
	}
	if utf8.RuneCountInString(name) <= maxThreadNameRunes {
		return name
	}
	r := []rune(name)
	return string(r[:maxThreadNameRunes])
}
