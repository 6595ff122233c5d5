package store

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/crewdesk/crewdesk/internal/domain"
)

// Sheets is the Google Sheets backed Store. Each entity lives on its own
// sheet of one spreadsheet; rows are appended on create and rewritten in
// place on update (read all, locate the row by ID, write the merged row
// back). The API offers no transactions, so every write is a plain
// last-write-wins row replacement.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string

	// Now supplies timestamps; overridable in tests.
	Now func() time.Time
}

// NewSheets builds a Sheets store. credentialsFile may be empty, in which
// case application default credentials are used.
func NewSheets(ctx context.Context, spreadsheetID, credentialsFile string) (*Sheets, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet ID is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}
	return &Sheets{svc: svc, spreadsheetID: spreadsheetID, Now: time.Now}, nil
}

// rows fetches the raw value grid for a range, minus the header row. The
// returned index maps slice position to 1-based sheet row number.
func (s *Sheets) rows(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: get %s: %w", rng, err)
	}
	if len(resp.Values) <= 1 {
		return nil, nil
	}
	return resp.Values[1:], nil
}

// findRow locates the sheet row whose first cell equals id. It returns the
// 1-based row number (header row is 1) alongside the raw row.
func (s *Sheets) findRow(ctx context.Context, rng, id string) (int, []interface{}, error) {
	rows, err := s.rows(ctx, rng)
	if err != nil {
		return 0, nil, err
	}
	for i, row := range rows {
		if cell(row, 0) == id {
			return i + 2, row, nil
		}
	}
	return 0, nil, ErrNotFound
}

func (s *Sheets) appendRow(ctx context.Context, rng string, row []interface{}) error {
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, rng, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: append %s: %w", rng, err)
	}
	return nil
}

func (s *Sheets) updateRange(ctx context.Context, rng string, rows [][]interface{}) error {
	_, err := s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: update %s: %w", rng, err)
	}
	return nil
}

func (s *Sheets) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.rows(ctx, clientsRange)
	if err != nil {
		return nil, err
	}
	var out []domain.Client
	for _, row := range rows {
		if c := clientFromRow(row); c.ID != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Sheets) CreateClient(ctx context.Context, c domain.Client) error {
	if c.CreatedAt == "" {
		c.CreatedAt = s.Now().UTC().Format(time.RFC3339)
	}
	return s.appendRow(ctx, clientsRange, clientToRow(c))
}

func (s *Sheets) UpdateClient(ctx context.Context, id string, patch ClientPatch) (*domain.Client, error) {
	n, row, err := s.findRow(ctx, clientsRange, id)
	if err != nil {
		return nil, err
	}
	c := clientFromRow(row)
	patch.apply(&c)
	rng := fmt.Sprintf("Clients!A%d:M%d", n, n)
	if err := s.updateRange(ctx, rng, [][]interface{}{clientToRow(c)}); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Sheets) SetClientChannel(ctx context.Context, id, channelID, cardMessageID string) error {
	n, _, err := s.findRow(ctx, clientsRange, id)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("Clients!G%d:H%d", n, n)
	return s.updateRange(ctx, rng, [][]interface{}{{channelID, cardMessageID}})
}

func (s *Sheets) ListJobs(ctx context.Context) ([]domain.Job, error) {
	rows, err := s.rows(ctx, jobsRange)
	if err != nil {
		return nil, err
	}
	var out []domain.Job
	for _, row := range rows {
		if j := jobFromRow(row); j.ID != "" {
			out = append(out, j)
		}
	}
	return out, nil
}

func (s *Sheets) CreateJob(ctx context.Context, j domain.Job) error {
	if j.CreatedAt == "" {
		j.CreatedAt = s.Now().UTC().Format(time.RFC3339)
	}
	return s.appendRow(ctx, jobsRange, jobToRow(j))
}

func (s *Sheets) UpdateJob(ctx context.Context, id string, patch JobPatch) (*domain.Job, error) {
	n, row, err := s.findRow(ctx, jobsRange, id)
	if err != nil {
		return nil, err
	}
	j := jobFromRow(row)
	patch.apply(&j)
	rng := fmt.Sprintf("Jobs!A%d:N%d", n, n)
	if err := s.updateRange(ctx, rng, [][]interface{}{jobToRow(j)}); err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *Sheets) SetJobThread(ctx context.Context, id, threadID, cardMessageID string) error {
	n, _, err := s.findRow(ctx, jobsRange, id)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("Jobs!F%d:G%d", n, n)
	return s.updateRange(ctx, rng, [][]interface{}{{threadID, cardMessageID}})
}

func (s *Sheets) ListTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.rows(ctx, tasksRange)
	if err != nil {
		return nil, err
	}
	var out []domain.Task
	for _, row := range rows {
		if t := taskFromRow(row); t.ID != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Sheets) CreateTask(ctx context.Context, t domain.Task) error {
	if t.CreatedAt == "" {
		t.CreatedAt = s.Now().UTC().Format(time.RFC3339)
	}
	return s.appendRow(ctx, tasksRange, taskToRow(t))
}

func (s *Sheets) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*domain.Task, error) {
	n, row, err := s.findRow(ctx, tasksRange, id)
	if err != nil {
		return nil, err
	}
	t := taskFromRow(row)
	patch.apply(&t, s.Now())
	rng := fmt.Sprintf("Tasks!A%d:J%d", n, n)
	if err := s.updateRange(ctx, rng, [][]interface{}{taskToRow(t)}); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTasksForJobs clears the task sheet body and rewrites the surviving
// rows. The Sheets API has no row-delete on the values surface, so
// clear-and-rewrite is the only way to compact; the window where the sheet
// is empty is accepted (the next sync re-reads either way).
func (s *Sheets) DeleteTasksForJobs(ctx context.Context, jobIDs []string) (int, error) {
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return 0, err
	}
	doomed := make(map[string]bool, len(jobIDs))
	for _, id := range jobIDs {
		doomed[id] = true
	}
	var kept [][]interface{}
	deleted := 0
	for _, t := range tasks {
		if doomed[t.JobID] {
			deleted++
			continue
		}
		kept = append(kept, taskToRow(t))
	}
	if deleted == 0 {
		return 0, nil
	}
	_, err = s.svc.Spreadsheets.Values.
		Clear(s.spreadsheetID, "Tasks!A2:J", &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: clear tasks: %w", err)
	}
	if len(kept) > 0 {
		_, err = s.svc.Spreadsheets.Values.
			Append(s.spreadsheetID, tasksRange, &sheets.ValueRange{Values: kept}).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return 0, fmt.Errorf("sheets: rewrite tasks: %w", err)
		}
	}
	return deleted, nil
}

func (s *Sheets) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	rows, err := s.rows(ctx, invoicesRange)
	if err != nil {
		return nil, err
	}
	var out []domain.Invoice
	for _, row := range rows {
		if inv := invoiceFromRow(row); inv.ID != "" {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *Sheets) CreateInvoice(ctx context.Context, inv domain.Invoice) error {
	inv.Total = inv.Sum()
	if inv.IssuedAt == "" {
		inv.IssuedAt = s.Now().UTC().Format(time.RFC3339)
	}
	return s.appendRow(ctx, invoicesRange, invoiceToRow(inv))
}

func (s *Sheets) UpdateInvoice(ctx context.Context, id string, patch InvoicePatch) (*domain.Invoice, error) {
	n, row, err := s.findRow(ctx, invoicesRange, id)
	if err != nil {
		return nil, err
	}
	inv := invoiceFromRow(row)
	patch.apply(&inv)
	rng := fmt.Sprintf("Invoices!A%d:AD%d", n, n)
	if err := s.updateRange(ctx, rng, [][]interface{}{invoiceToRow(inv)}); err != nil {
		return nil, err
	}
	return &inv, nil
}

// InitHeaders writes the header row on every sheet. It is safe to run
// against a populated spreadsheet; only row 1 is touched.
func (s *Sheets) InitHeaders(ctx context.Context) error {
	headers := map[string][][]interface{}{
		"Clients!A1:M1": {{
			"ID", "Code", "Name", "Contact Name", "Contact Method", "Auth Code",
			"Channel ID", "Card Message ID", "Description", "Notes", "Active",
			"Archived", "Created At",
		}},
		"Jobs!A1:N1": {{
			"ID", "Client Code", "Client ID", "Title", "Status", "Thread ID",
			"Thread Message ID", "Description", "Priority", "Assignee ID",
			"Deadline", "Budget", "Notes", "Created At",
		}},
		"Tasks!A1:J1": {{
			"ID", "Job ID", "Title", "Description", "Status", "Assignee ID",
			"Deadline", "Priority", "Created At", "Completed At",
		}},
	}
	invoiceHeader := []interface{}{
		"ID", "Client Code", "Client ID", "Job ID", "Status", "Due Date",
		"Total", "Notes", "Terms", "Issued At",
	}
	for i := 1; i <= domain.MaxLineItems; i++ {
		invoiceHeader = append(invoiceHeader,
			fmt.Sprintf("Line%d_Description", i), fmt.Sprintf("Line%d_Price", i))
	}
	headers["Invoices!A1:AD1"] = [][]interface{}{invoiceHeader}

	for rng, rows := range headers {
		if err := s.updateRange(ctx, rng, rows); err != nil {
			return err
		}
	}
	return nil
}
