package store

import (
	"strconv"
	"strings"

	"github.com/crewdesk/crewdesk/internal/domain"
)

// Spreadsheet layouts. One sheet per entity, first row is headers, one entity
// per row. These ranges are fixed: changing them orphans deployed data.
const (
	clientsRange  = "Clients!A:M"
	jobsRange     = "Jobs!A:N"
	tasksRange    = "Tasks!A:J"
	invoicesRange = "Invoices!A:AD"
)

// cell returns row[i] as a trimmed string, tolerating short rows and
// non-string cells (Sheets returns interface{} values).
func cell(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func cellFloat(row []interface{}, i int) float64 {
	f, _ := strconv.ParseFloat(cell(row, i), 64)
	return f
}

func cellBool(row []interface{}, i int) bool {
	return strings.EqualFold(cell(row, i), "yes")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func clientFromRow(row []interface{}) domain.Client {
	return domain.Client{
		ID:            cell(row, 0),
		Code:          cell(row, 1),
		Name:          cell(row, 2),
		ContactName:   cell(row, 3),
		ContactMethod: cell(row, 4),
		AuthCode:      cell(row, 5),
		ChannelID:     cell(row, 6),
		CardMessageID: cell(row, 7),
		Description:   cell(row, 8),
		Notes:         cell(row, 9),
		Active:        cell(row, 10),
		Archived:      cellBool(row, 11),
		CreatedAt:     cell(row, 12),
	}
}

func clientToRow(c domain.Client) []interface{} {
	return []interface{}{
		c.ID, c.Code, c.Name, c.ContactName, c.ContactMethod, c.AuthCode,
		c.ChannelID, c.CardMessageID, c.Description, c.Notes, c.Active,
		yesNo(c.Archived), c.CreatedAt,
	}
}

func jobFromRow(row []interface{}) domain.Job {
	return domain.Job{
		ID:                  cell(row, 0),
		ClientCode:          cell(row, 1),
		ClientID:            cell(row, 2),
		Title:               cell(row, 3),
		Status:              defaultStr(cell(row, 4), domain.JobOpen),
		ThreadID:            cell(row, 5),
		ThreadCardMessageID: cell(row, 6),
		Description:         cell(row, 7),
		Priority:            cell(row, 8),
		AssigneeID:          cell(row, 9),
		Deadline:            cell(row, 10),
		Budget:              cellFloat(row, 11),
		Notes:               cell(row, 12),
		CreatedAt:           cell(row, 13),
	}
}

func jobToRow(j domain.Job) []interface{} {
	budget := ""
	if j.Budget != 0 {
		budget = strconv.FormatFloat(j.Budget, 'f', -1, 64)
	}
	return []interface{}{
		j.ID, j.ClientCode, j.ClientID, j.Title, j.Status, j.ThreadID,
		j.ThreadCardMessageID, j.Description, j.Priority, j.AssigneeID,
		j.Deadline, budget, j.Notes, j.CreatedAt,
	}
}

func taskFromRow(row []interface{}) domain.Task {
	return domain.Task{
		ID:          cell(row, 0),
		JobID:       cell(row, 1),
		Title:       cell(row, 2),
		Description: cell(row, 3),
		Status:      defaultStr(cell(row, 4), domain.TaskOpen),
		AssigneeID:  cell(row, 5),
		Deadline:    cell(row, 6),
		Priority:    cell(row, 7),
		CreatedAt:   cell(row, 8),
		CompletedAt: cell(row, 9),
	}
}

func taskToRow(t domain.Task) []interface{} {
	return []interface{}{
		t.ID, t.JobID, t.Title, t.Description, t.Status, t.AssigneeID,
		t.Deadline, t.Priority, t.CreatedAt, t.CompletedAt,
	}
}

// invoiceFromRow decodes the fixed 10-pair line item block after the scalar
// columns. Blank description cells are skipped, so sparse rows decode to a
// dense slice.
func invoiceFromRow(row []interface{}) domain.Invoice {
	inv := domain.Invoice{
		ID:         cell(row, 0),
		ClientCode: cell(row, 1),
		ClientID:   cell(row, 2),
		JobID:      cell(row, 3),
		Status:     defaultStr(cell(row, 4), domain.InvoiceDraft),
		DueAt:      cell(row, 5),
		Total:      cellFloat(row, 6),
		Notes:      cell(row, 7),
		Terms:      cell(row, 8),
		IssuedAt:   cell(row, 9),
	}
	for i := 0; i < domain.MaxLineItems; i++ {
		desc := cell(row, 10+i*2)
		if desc == "" {
			continue
		}
		inv.LineItems = append(inv.LineItems, domain.LineItem{
			Description: desc,
			Price:       cellFloat(row, 11+i*2),
		})
	}
	return inv
}

func invoiceToRow(inv domain.Invoice) []interface{} {
	row := []interface{}{
		inv.ID, inv.ClientCode, inv.ClientID, inv.JobID, inv.Status,
		inv.DueAt, inv.Total, inv.Notes, inv.Terms, inv.IssuedAt,
	}
	for i := 0; i < domain.MaxLineItems; i++ {
		if i < len(inv.LineItems) {
			row = append(row, inv.LineItems[i].Description, inv.LineItems[i].Price)
		} else {
			row = append(row, "", "")
		}
	}
	return row
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
