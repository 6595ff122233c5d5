package board

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/crewdesk/crewdesk/internal/domain"
	"github.com/crewdesk/crewdesk/internal/platform"
	"github.com/crewdesk/crewdesk/internal/reconcile"
	"github.com/crewdesk/crewdesk/internal/state"
)

func newStateDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := state.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newRefresher(t *testing.T) (*Refresher, *platform.Fake, *gorm.DB) {
	t.Helper()
	fake := platform.NewFake()
	resolver := reconcile.NewResolver(fake, zerolog.Nop())
	if err := resolver.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	db := newStateDB(t)
	return NewRefresher(db, fake, resolver, "guild-1", zerolog.Nop()), fake, db
}

func testSnapshot() Snapshot {
	return Snapshot{
		GuildID: "guild-1",
		Now:     time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Clients: []domain.Client{
			{ID: "c1", Code: "ACME", Name: "Acme Co", Active: "yes", ChannelID: "ch-1"},
			{ID: "c2", Code: "LEAD", Name: "Maybe Soon"},
			{ID: "c3", Code: "GONE", Name: "Old Timer", Active: "yes", Archived: true},
		},
		Jobs: []domain.Job{
			{ID: "ACME-001", ClientID: "c1", Title: "Build site", Status: domain.JobInProgress, ThreadID: "th-1"},
			{ID: "ACME-002", ClientID: "c1", Title: "Done deal", Status: domain.JobCompleted},
		},
		Tasks: []domain.Task{
			{ID: "ACME-001-T01", JobID: "ACME-001", Title: "Late thing", Status: domain.TaskOpen, Deadline: "2026-03-10", Priority: "high"},
			{ID: "ACME-001-T02", JobID: "ACME-001", Title: "Future thing", Status: domain.TaskOpen, Deadline: "2026-04-01"},
			{ID: "ACME-001-T03", JobID: "ACME-001", Title: "Finished", Status: domain.TaskCompleted},
		},
		Invoices: []domain.Invoice{
			{ID: "INV-0001", ClientID: "c1", JobID: "ACME-001", Status: domain.InvoiceSent,
				LineItems: []domain.LineItem{{Description: "work", Price: 500}}},
			{ID: "INV-0002", ClientID: "c1", Status: domain.InvoicePaid,
				LineItems: []domain.LineItem{{Description: "done", Price: 100}}},
		},
	}
}

func jobBoard(t *testing.T) Board {
	t.Helper()
	for _, b := range All() {
		if b.Key == "job" {
			return b
		}
	}
	t.Fatal("no job board")
	return Board{}
}

func TestRefresh_CreatesPinsAndPersists(t *testing.T) {
	r, fake, db := newRefresher(t)
	ctx := context.Background()

	rep := r.Refresh(ctx, jobBoard(t), testSnapshot())
	if rep.Failed() {
		t.Fatalf("Refresh: %v", rep.Err)
	}
	if rep.Outcome != reconcile.OutcomeCreated {
		t.Fatalf("outcome = %s, want created", rep.Outcome)
	}

	chans := fake.ChannelsNamed(reconcile.JobBoardChannel)
	if len(chans) != 1 {
		t.Fatalf("board channels = %d, want 1", len(chans))
	}
	msgs := fake.MessagesIn(chans[0].ID)
	if len(msgs) != 1 || !msgs[0].Pinned {
		t.Fatalf("expected one pinned board message, got %+v", msgs)
	}
	stored, err := state.GetBoardMessageID(ctx, db, "guild-1", "job")
	if err != nil || stored != msgs[0].ID {
		t.Fatalf("stored id = (%q, %v), want %q", stored, err, msgs[0].ID)
	}
}

func TestRefresh_UnchangedSnapshotIsNoop(t *testing.T) {
	r, fake, _ := newRefresher(t)
	ctx := context.Background()
	snap := testSnapshot()

	if rep := r.Refresh(ctx, jobBoard(t), snap); rep.Failed() {
		t.Fatalf("first Refresh: %v", rep.Err)
	}
	rep := r.Refresh(ctx, jobBoard(t), snap)
	if rep.Outcome != reconcile.OutcomeUnchanged {
		t.Fatalf("second outcome = %s, want unchanged", rep.Outcome)
	}
	ch := fake.ChannelsNamed(reconcile.JobBoardChannel)[0]
	if msgs := fake.MessagesIn(ch.ID); len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
}

func TestRefresh_EditsInPlaceOnChange(t *testing.T) {
	r, fake, _ := newRefresher(t)
	ctx := context.Background()
	snap := testSnapshot()

	if rep := r.Refresh(ctx, jobBoard(t), snap); rep.Failed() {
		t.Fatalf("first Refresh: %v", rep.Err)
	}
	ch := fake.ChannelsNamed(reconcile.JobBoardChannel)[0]
	firstID := fake.MessagesIn(ch.ID)[0].ID

	snap.Jobs = append(snap.Jobs, domain.Job{ID: "ACME-003", ClientID: "c1", Title: "New work", Status: domain.JobOpen})
	rep := r.Refresh(ctx, jobBoard(t), snap)
	if rep.Outcome != reconcile.OutcomeRepaired {
		t.Fatalf("outcome = %s, want repaired", rep.Outcome)
	}
	msgs := fake.MessagesIn(ch.ID)
	if len(msgs) != 1 || msgs[0].ID != firstID {
		t.Fatalf("expected in-place edit of %s, got %+v", firstID, msgs)
	}
	if !strings.Contains(msgs[0].Content, "New work") {
		t.Fatalf("board not re-rendered:\n%s", msgs[0].Content)
	}
}

func TestRefresh_ReplacesDeletedMessage(t *testing.T) {
	r, fake, db := newRefresher(t)
	ctx := context.Background()
	snap := testSnapshot()

	if rep := r.Refresh(ctx, jobBoard(t), snap); rep.Failed() {
		t.Fatalf("first Refresh: %v", rep.Err)
	}
	ch := fake.ChannelsNamed(reconcile.JobBoardChannel)[0]
	firstID := fake.MessagesIn(ch.ID)[0].ID
	if err := fake.DeleteMessage(ctx, ch.ID, firstID); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}

	rep := r.Refresh(ctx, jobBoard(t), snap)
	if rep.Outcome != reconcile.OutcomeCreated {
		t.Fatalf("outcome = %s, want created", rep.Outcome)
	}
	msgs := fake.MessagesIn(ch.ID)
	if len(msgs) != 1 || msgs[0].ID == firstID || !msgs[0].Pinned {
		t.Fatalf("expected fresh pinned message, got %+v", msgs)
	}
	stored, err := state.GetBoardMessageID(ctx, db, "guild-1", "job")
	if err != nil || stored != msgs[0].ID {
		t.Fatalf("stored id = (%q, %v), want %q", stored, err, msgs[0].ID)
	}
}

func TestRenderJobBoard_DropsTerminalJobs(t *testing.T) {
	got := renderJobBoard(testSnapshot())
	if !strings.Contains(got, "Build site") {
		t.Fatalf("open job missing:\n%s", got)
	}
	if strings.Contains(got, "Done deal") {
		t.Fatalf("completed job listed:\n%s", got)
	}
	if !strings.Contains(got, "https://discord.com/channels/guild-1/th-1") {
		t.Fatalf("thread link missing:\n%s", got)
	}
}

func TestRenderJobBoard_GroupsSortedByClientName(t *testing.T) {
	s := Snapshot{
		GuildID: "guild-1",
		Now:     time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Clients: []domain.Client{
			{ID: "c1", Code: "ZETA", Name: "Zeta Works", Active: "yes"},
			{ID: "c2", Code: "ACME", Name: "Acme Co", Active: "yes"},
		},
		Jobs: []domain.Job{
			{ID: "ZETA-001", ClientID: "c1", Title: "Rebrand", Status: domain.JobOpen},
			{ID: "ACME-001", ClientID: "c2", Title: "Build site", Status: domain.JobOpen},
		},
	}
	got := renderJobBoard(s)
	acme := strings.Index(got, "Acme Co")
	zeta := strings.Index(got, "Zeta Works")
	if acme < 0 || zeta < 0 || acme > zeta {
		t.Fatalf("groups out of order (acme=%d zeta=%d):\n%s", acme, zeta, got)
	}
}

func TestRenderClientBoard_FiltersLeadsAndArchived(t *testing.T) {
	got := renderClientBoard(testSnapshot())
	if !strings.Contains(got, "Acme Co") {
		t.Fatalf("active client missing:\n%s", got)
	}
	if strings.Contains(got, "Maybe Soon") || strings.Contains(got, "Old Timer") {
		t.Fatalf("lead or archived client on client board:\n%s", got)
	}
	if !strings.Contains(got, "Open Invoices: 1") {
		t.Fatalf("paid invoice counted as open:\n%s", got)
	}
}

func TestRenderLeadBoard_ListsOnlyLeads(t *testing.T) {
	got := renderLeadBoard(testSnapshot())
	if !strings.Contains(got, "Maybe Soon") {
		t.Fatalf("lead missing:\n%s", got)
	}
	if strings.Contains(got, "Acme Co") {
		t.Fatalf("active client on lead board:\n%s", got)
	}
	if !strings.Contains(got, "*1 inquiries*") {
		t.Fatalf("footer wrong:\n%s", got)
	}
}

func TestRenderTaskBoard_SortsOverdueFirst(t *testing.T) {
	got := renderTaskBoard(testSnapshot())
	late := strings.Index(got, "Late thing")
	future := strings.Index(got, "Future thing")
	if late < 0 || future < 0 || late > future {
		t.Fatalf("overdue task not first (late=%d future=%d):\n%s", late, future, got)
	}
	if strings.Contains(got, "Finished") {
		t.Fatalf("completed task listed:\n%s", got)
	}
	if !strings.Contains(got, "OVERDUE") {
		t.Fatalf("overdue marker missing:\n%s", got)
	}
	if !strings.Contains(got, "1 overdue") {
		t.Fatalf("footer count missing:\n%s", got)
	}
}

func TestRenderAdminBoard_Counts(t *testing.T) {
	got := renderAdminBoard(testSnapshot())
	for _, want := range []string{"Active clients", "New inquiries", "Open jobs", "$500.00", "Busiest Clients"} {
		if !strings.Contains(got, want) {
			t.Fatalf("admin board missing %q:\n%s", want, got)
		}
	}
}
