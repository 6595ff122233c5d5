package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/crewdesk/crewdesk/internal/domain"
)

// idAttempts bounds the collision-check-and-retry loop for derived IDs.
// Allocation re-reads the store on each attempt, so two racing creators
// converge after one retry in practice.
const idAttempts = 5

// ClientCode derives a short human code from a client name: first four
// letters, uppercased, padded with X. Collisions against non-archived
// clients are resolved by replacing the tail with a counter (ACME, ACM1,
// ACM2, ...).
func ClientCode(name string, existing []domain.Client) string {
	// Runes, not bytes: names like "Ärzte" must still yield four characters.
	var base []rune
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			base = append(base, unicode.ToUpper(r))
		}
		if len(base) == 4 {
			break
		}
	}
	if len(base) == 0 {
		base = []rune("GEN")
	}
	for len(base) < 4 {
		base = append(base, 'X')
	}

	taken := make(map[string]bool, len(existing))
	for _, c := range existing {
		if !c.Archived {
			taken[c.Code] = true
		}
	}
	code := string(base)
	for i := 1; taken[code]; i++ {
		suffix := strconv.Itoa(i)
		code = string(base[:4-len(suffix)]) + suffix
	}
	return code
}

// NextJobID allocates the next {clientCode}-NNN job ID. It computes
// max(existing sequence)+1 from a fresh read, never a row count, and
// retries on collision.
func NextJobID(ctx context.Context, s Store, clientID, clientCode string) (string, error) {
	for attempt := 0; attempt < idAttempts; attempt++ {
		jobs, err := s.ListJobs(ctx)
		if err != nil {
			return "", err
		}
		max := 0
		taken := make(map[string]bool, len(jobs))
		for _, j := range jobs {
			taken[j.ID] = true
			if j.ClientID != clientID {
				continue
			}
			if n := seqSuffix(j.ID, clientCode+"-"); n > max {
				max = n
			}
		}
		id := fmt.Sprintf("%s-%03d", clientCode, max+1+attempt)
		if !taken[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("store: could not allocate job ID for %s after %d attempts", clientCode, idAttempts)
}

// NextTaskID allocates the next {jobID}-TNN task ID.
func NextTaskID(ctx context.Context, s Store, jobID string) (string, error) {
	for attempt := 0; attempt < idAttempts; attempt++ {
		tasks, err := s.ListTasks(ctx)
		if err != nil {
			return "", err
		}
		max := 0
		taken := make(map[string]bool, len(tasks))
		for _, t := range tasks {
			taken[t.ID] = true
			if t.JobID != jobID {
				continue
			}
			if n := seqSuffix(t.ID, jobID+"-T"); n > max {
				max = n
			}
		}
		id := fmt.Sprintf("%s-T%02d", jobID, max+1+attempt)
		if !taken[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("store: could not allocate task ID for %s after %d attempts", jobID, idAttempts)
}

// NextInvoiceID allocates the next INV-NNNN ID, monotonic across all
// invoices.
func NextInvoiceID(ctx context.Context, s Store) (string, error) {
	for attempt := 0; attempt < idAttempts; attempt++ {
		invoices, err := s.ListInvoices(ctx)
		if err != nil {
			return "", err
		}
		max := 0
		taken := make(map[string]bool, len(invoices))
		for _, inv := range invoices {
			taken[inv.ID] = true
			if n := seqSuffix(inv.ID, "INV-"); n > max {
				max = n
			}
		}
		id := fmt.Sprintf("INV-%04d", max+1+attempt)
		if !taken[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("store: could not allocate invoice ID after %d attempts", idAttempts)
}

// seqSuffix parses the numeric sequence of id after prefix, or 0 when id is
// not of that shape.
func seqSuffix(id, prefix string) int {
	if !strings.HasPrefix(id, prefix) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
	if err != nil {
		return 0
	}
	return n
}
