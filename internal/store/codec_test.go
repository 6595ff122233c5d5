package store

import (
	"testing"

	"github.com/crewdesk/crewdesk/internal/domain"
)

func TestInvoiceRow_SparseLineItemsRoundTrip(t *testing.T) {
	inv := domain.Invoice{
		ID:         "INV-0007",
		ClientCode: "ACME",
		ClientID:   "c1",
		JobID:      "ACME-001",
		Status:     domain.InvoiceSent,
		DueAt:      "2026-04-01",
		Notes:      "net 30",
		LineItems: []domain.LineItem{
			{Description: "Design", Price: 500},
			{Description: "Hosting", Price: 100},
		},
	}
	inv.Total = inv.Sum()

	row := invoiceToRow(inv)
	if len(row) != 10+domain.MaxLineItems*2 {
		t.Fatalf("row width = %d, want %d", len(row), 10+domain.MaxLineItems*2)
	}

	got := invoiceFromRow(row)
	if got.Total != 600 {
		t.Fatalf("total = %v", got.Total)
	}
	if len(got.LineItems) != 2 {
		t.Fatalf("line items = %d, want 2 (blank slots must be skipped)", len(got.LineItems))
	}
	if got.LineItems[1] != (domain.LineItem{Description: "Hosting", Price: 100}) {
		t.Fatalf("line item 2 = %+v", got.LineItems[1])
	}
}

func TestInvoiceFromRow_BlankDescriptionMidBlock(t *testing.T) {
	inv := domain.Invoice{ID: "INV-0001", LineItems: []domain.LineItem{{Description: "A", Price: 1}}}
	row := invoiceToRow(inv)
	// Simulate a hand-edited sheet with item 1 blanked and item 2 present.
	row[10], row[11] = "", ""
	row[12], row[13] = "B", 2.0

	got := invoiceFromRow(row)
	if len(got.LineItems) != 1 || got.LineItems[0].Description != "B" {
		t.Fatalf("mid-block blank handled wrong: %+v", got.LineItems)
	}
}

func TestClientRow_ArchivedAndActiveFlags(t *testing.T) {
	c := domain.Client{ID: "c1", Code: "ACME", Name: "Acme Co", Active: "yes", Archived: true}
	got := clientFromRow(clientToRow(c))
	if !got.Archived || !got.IsActive() {
		t.Fatalf("flags lost in round trip: %+v", got)
	}
}

func TestJobRow_BudgetAndStatusDefaults(t *testing.T) {
	j := domain.Job{ID: "ACME-001", ClientID: "c1", ClientCode: "ACME", Title: "Website", Budget: 1500.50}
	got := jobFromRow(jobToRow(j))
	if got.Budget != 1500.50 {
		t.Fatalf("budget = %v", got.Budget)
	}
	// Status column left empty on old rows decodes to open.
	row := jobToRow(j)
	row[4] = ""
	if got := jobFromRow(row); got.Status != domain.JobOpen {
		t.Fatalf("empty status decoded to %q, want open", got.Status)
	}
}
