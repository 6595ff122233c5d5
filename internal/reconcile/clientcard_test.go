package reconcile

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/crewdesk/crewdesk/internal/domain"
	"github.com/crewdesk/crewdesk/internal/platform"
	"github.com/crewdesk/crewdesk/internal/store"
)

type cardFixture struct {
	store *store.Memory
	fake  *platform.Fake
	cards *ClientCards
}

func newCardFixture(t *testing.T) *cardFixture {
	t.Helper()
	st := store.NewMemory()
	fake := platform.NewFake()
	resolver := NewResolver(fake, zerolog.Nop())
	if err := resolver.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	threads := NewJobThreads(st, fake, zerolog.Nop())
	return &cardFixture{
		store: st,
		fake:  fake,
		cards: NewClientCards(st, fake, resolver, threads, "guild-1", zerolog.Nop()),
	}
}

func (f *cardFixture) refresh(t *testing.T) {
	t.Helper()
	if err := f.cards.resolver.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
}

func (f *cardFixture) client(t *testing.T, id string) domain.Client {
	t.Helper()
	clients, err := f.store.ListClients(context.Background())
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	for _, c := range clients {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("no client %s", id)
	return domain.Client{}
}

func (f *cardFixture) job(t *testing.T, id string) domain.Job {
	t.Helper()
	jobs, err := f.store.ListJobs(context.Background())
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	for _, j := range jobs {
		if j.ID == id {
			return j
		}
	}
	t.Fatalf("no job %s", id)
	return domain.Job{}
}

func seedClientWithJob(t *testing.T, f *cardFixture) (domain.Client, domain.Job) {
	t.Helper()
	ctx := context.Background()
	c := domain.Client{ID: "c1", Code: "ACME", Name: "Acme Co", Active: "yes"}
	j := domain.Job{ID: "ACME-001", ClientID: "c1", ClientCode: "ACME", Title: "Build site", Status: domain.JobInProgress}
	if err := f.store.CreateClient(ctx, c); err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if err := f.store.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return c, j
}

func (f *cardFixture) ensure(t *testing.T, clientID string) Report {
	t.Helper()
	ctx := context.Background()
	c := f.client(t, clientID)
	jobs, err := f.store.ListJobs(ctx)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	return f.cards.Ensure(ctx, &c, jobs)
}

func TestEnsure_CreatesChannelThreadAndCard(t *testing.T) {
	f := newCardFixture(t)
	seedClientWithJob(t, f)

	rep := f.ensure(t, "c1")
	if rep.Failed() {
		t.Fatalf("Ensure failed: %v", rep.Err)
	}
	if rep.Outcome != OutcomeCreated {
		t.Fatalf("outcome = %s, want created", rep.Outcome)
	}

	c := f.client(t, "c1")
	if c.ChannelID == "" || c.CardMessageID == "" {
		t.Fatalf("client IDs not persisted: %+v", c)
	}
	j := f.job(t, "ACME-001")
	if j.ThreadID == "" || j.ThreadCardMessageID == "" {
		t.Fatalf("job IDs not persisted: %+v", j)
	}

	// The channel holds exactly the client card; the thread-created system
	// notice was cleaned up.
	msgs := f.fake.MessagesIn(c.ChannelID)
	if len(msgs) != 1 {
		t.Fatalf("channel messages = %d, want 1 (card only)", len(msgs))
	}
	if msgs[0].ID != c.CardMessageID || msgs[0].System {
		t.Fatalf("unexpected channel message: %+v", msgs[0])
	}
}

func TestEnsure_SecondRunIsUnchanged(t *testing.T) {
	f := newCardFixture(t)
	seedClientWithJob(t, f)

	if rep := f.ensure(t, "c1"); rep.Failed() {
		t.Fatalf("first Ensure: %v", rep.Err)
	}
	f.refresh(t)
	rep := f.ensure(t, "c1")
	if rep.Failed() {
		t.Fatalf("second Ensure: %v", rep.Err)
	}
	if rep.Outcome != OutcomeUnchanged {
		t.Fatalf("second outcome = %s, want unchanged", rep.Outcome)
	}

	c := f.client(t, "c1")
	if got := f.fake.ChannelsNamed(ClientChannelName(c)); len(got) != 1 {
		t.Fatalf("client channels = %d, want 1", len(got))
	}
	if msgs := f.fake.MessagesIn(c.ChannelID); len(msgs) != 1 {
		t.Fatalf("channel messages = %d, want 1", len(msgs))
	}
}

func TestEnsure_SelfHealsDeletedChannel(t *testing.T) {
	f := newCardFixture(t)
	seedClientWithJob(t, f)
	ctx := context.Background()

	if rep := f.ensure(t, "c1"); rep.Failed() {
		t.Fatalf("first Ensure: %v", rep.Err)
	}
	before := f.client(t, "c1")
	if err := f.fake.DeleteChannel(ctx, before.ChannelID); err != nil {
		t.Fatalf("DeleteChannel: %v", err)
	}

	f.refresh(t)
	rep := f.ensure(t, "c1")
	if rep.Failed() {
		t.Fatalf("healing Ensure: %v", rep.Err)
	}

	after := f.client(t, "c1")
	if after.ChannelID == "" || after.ChannelID == before.ChannelID {
		t.Fatalf("channel not recreated: before=%s after=%s", before.ChannelID, after.ChannelID)
	}
	if after.CardMessageID == "" || after.CardMessageID == before.CardMessageID {
		t.Fatalf("card not recreated: before=%s after=%s", before.CardMessageID, after.CardMessageID)
	}
}

func TestEnsure_RepairsDriftedCard(t *testing.T) {
	f := newCardFixture(t)
	seedClientWithJob(t, f)
	ctx := context.Background()

	if rep := f.ensure(t, "c1"); rep.Failed() {
		t.Fatalf("first Ensure: %v", rep.Err)
	}
	c := f.client(t, "c1")
	if _, err := f.fake.EditMessage(ctx, c.ChannelID, c.CardMessageID, "vandalized"); err != nil {
		t.Fatalf("EditMessage: %v", err)
	}

	f.refresh(t)
	rep := f.ensure(t, "c1")
	if rep.Outcome != OutcomeRepaired {
		t.Fatalf("outcome = %s, want repaired", rep.Outcome)
	}
	msgs := f.fake.MessagesIn(c.ChannelID)
	if len(msgs) != 1 || msgs[0].Content == "vandalized" {
		t.Fatalf("card not restored: %+v", msgs)
	}
}

func TestRenderClientCard_LinksOpenJobsOnly(t *testing.T) {
	c := domain.Client{ID: "c1", Code: "ACME", Name: "Acme Co", AuthCode: "az19"}
	jobs := []domain.Job{
		{ID: "ACME-001", ClientID: "c1", Title: "Build site", Status: domain.JobInProgress, ThreadID: "th-1"},
		{ID: "ACME-002", ClientID: "c1", Title: "Old job", Status: domain.JobCompleted, ThreadID: "th-2"},
		{ID: "BOXX-001", ClientID: "c2", Title: "Other client", Status: domain.JobOpen},
	}
	got := renderClientCard(c, jobs, "guild-1")

	if want := "[Build site](https://discord.com/channels/guild-1/th-1)"; !contains(got, want) {
		t.Fatalf("card missing thread link, got:\n%s", got)
	}
	if contains(got, "Old job") || contains(got, "Other client") {
		t.Fatalf("card lists jobs it should not:\n%s", got)
	}
	if !contains(got, "**Auth Code:** `az19`") {
		t.Fatalf("card missing auth code:\n%s", got)
	}
	if !contains(got, "*Client ID: c1*") {
		t.Fatalf("card missing client id footer:\n%s", got)
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
