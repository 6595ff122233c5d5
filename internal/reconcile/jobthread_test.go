package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/crewdesk/crewdesk/internal/domain"
	"github.com/crewdesk/crewdesk/internal/platform"
	"github.com/crewdesk/crewdesk/internal/store"
)

func newThreadFixture(t *testing.T) (*JobThreads, *store.Memory, *platform.Fake, *platform.Channel) {
	t.Helper()
	st := store.NewMemory()
	fake := platform.NewFake()
	ch, err := fake.CreateChannel(context.Background(), "🪪-acme-acme-co", platform.KindText, "")
	if err != nil {
		t.Fatalf("seed channel: %v", err)
	}
	return NewJobThreads(st, fake, zerolog.Nop()), st, fake, ch
}

func storedJob(t *testing.T, st *store.Memory, id string) domain.Job {
	t.Helper()
	jobs, err := st.ListJobs(context.Background())
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

func TestEnsure_ThreadIDPersistedBeforeCardSend(t *testing.T) {
	jt, st, fake, ch := newThreadFixture(t)
	ctx := context.Background()

	j := domain.Job{ID: "ACME-001", ClientID: "c1", Title: "Build site", Status: domain.JobOpen}
	if err := st.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	fake.Hook = func(method string) error {
		if method == "SendMessage" {
			return errors.New("gateway hiccup")
		}
		return nil
	}

	rep := jt.Ensure(ctx, domain.Client{ID: "c1", Name: "Acme Co"}, ch, &j)
	if !rep.Failed() {
		t.Fatal("expected failure when card send fails")
	}

	// The thread itself landed and its ID is already on the row, so the next
	// run adopts it instead of creating a second thread.
	got := storedJob(t, st, "ACME-001")
	if got.ThreadID == "" {
		t.Fatal("thread ID not persisted before card send")
	}
	if got.ThreadCardMessageID != "" {
		t.Fatalf("card ID should be empty after failed send, got %q", got.ThreadCardMessageID)
	}

	fake.Hook = nil
	j = storedJob(t, st, "ACME-001")
	rep = jt.Ensure(ctx, domain.Client{ID: "c1", Name: "Acme Co"}, ch, &j)
	if rep.Failed() {
		t.Fatalf("retry Ensure: %v", rep.Err)
	}
	if got := fake.ChannelsNamed("ACME-001 — Build site"); len(got) != 1 {
		t.Fatalf("threads = %d, want 1 after retry", len(got))
	}
}

func TestEnsure_RecreatesDeletedThread(t *testing.T) {
	jt, st, fake, ch := newThreadFixture(t)
	ctx := context.Background()

	j := domain.Job{ID: "ACME-001", ClientID: "c1", Title: "Build site", Status: domain.JobOpen}
	if err := st.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if rep := jt.Ensure(ctx, domain.Client{ID: "c1"}, ch, &j); rep.Failed() {
		t.Fatalf("first Ensure: %v", rep.Err)
	}
	first := j.ThreadID

	if err := fake.DeleteChannel(ctx, first); err != nil {
		t.Fatalf("DeleteChannel: %v", err)
	}
	j = storedJob(t, st, "ACME-001")
	if rep := jt.Ensure(ctx, domain.Client{ID: "c1"}, ch, &j); rep.Failed() {
		t.Fatalf("healing Ensure: %v", rep.Err)
	}
	if j.ThreadID == "" || j.ThreadID == first {
		t.Fatalf("thread not recreated: first=%s now=%s", first, j.ThreadID)
	}
	got := storedJob(t, st, "ACME-001")
	if got.ThreadID != j.ThreadID || got.ThreadCardMessageID == "" {
		t.Fatalf("store not updated after recreate: %+v", got)
	}
}

func TestEnsure_UnarchivesStoredThread(t *testing.T) {
	jt, st, fake, ch := newThreadFixture(t)
	ctx := context.Background()

	j := domain.Job{ID: "ACME-001", ClientID: "c1", Title: "Build site", Status: domain.JobOpen}
	if err := st.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if rep := jt.Ensure(ctx, domain.Client{ID: "c1"}, ch, &j); rep.Failed() {
		t.Fatalf("first Ensure: %v", rep.Err)
	}

	archived := true
	if _, err := fake.EditChannel(ctx, j.ThreadID, platform.ChannelEdit{Archived: &archived}); err != nil {
		t.Fatalf("archive thread: %v", err)
	}

	j = storedJob(t, st, "ACME-001")
	if rep := jt.Ensure(ctx, domain.Client{ID: "c1"}, ch, &j); rep.Failed() {
		t.Fatalf("second Ensure: %v", rep.Err)
	}
	if th := fake.MustChannel(j.ThreadID); th.Archived {
		t.Fatal("thread still archived")
	}
}

func TestEnsure_DeletesOnlyOwnThreadNotice(t *testing.T) {
	jt, st, fake, ch := newThreadFixture(t)
	ctx := context.Background()

	j := domain.Job{ID: "ACME-001", ClientID: "c1", Title: "Build site", Status: domain.JobOpen}
	if err := st.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	// A user started a same-named thread by hand; that notice is not ours
	// to delete.
	fake.BotID = "human"
	stray, err := fake.CreateThread(ctx, ch.ID, ThreadName(j))
	if err != nil {
		t.Fatalf("seed stray thread: %v", err)
	}
	if err := fake.DeleteChannel(ctx, stray.ID); err != nil {
		t.Fatalf("delete stray thread: %v", err)
	}
	fake.BotID = "bot-user"

	if rep := jt.Ensure(ctx, domain.Client{ID: "c1"}, ch, &j); rep.Failed() {
		t.Fatalf("Ensure: %v", rep.Err)
	}

	var system []platform.Message
	for _, m := range fake.MessagesIn(ch.ID) {
		if m.System {
			system = append(system, m)
		}
	}
	if len(system) != 1 || system[0].AuthorID != "human" {
		t.Fatalf("system notices after ensure = %+v, want only the stray one", system)
	}
}

func TestEnsure_TransientCardFetchDoesNotDuplicate(t *testing.T) {
	jt, st, fake, ch := newThreadFixture(t)
	ctx := context.Background()

	j := domain.Job{ID: "ACME-001", ClientID: "c1", Title: "Build site", Status: domain.JobOpen}
	if err := st.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if rep := jt.Ensure(ctx, domain.Client{ID: "c1"}, ch, &j); rep.Failed() {
		t.Fatalf("first Ensure: %v", rep.Err)
	}

	fake.Hook = func(method string) error {
		if method == "Message" {
			return errors.New("read timeout")
		}
		return nil
	}
	j = storedJob(t, st, "ACME-001")
	rep := jt.Ensure(ctx, domain.Client{ID: "c1"}, ch, &j)
	if !rep.Failed() {
		t.Fatal("expected failure on transient card fetch")
	}
	if rep.Kind() != KindTransient {
		t.Fatalf("kind = %s, want transient", rep.Kind())
	}

	fake.Hook = nil
	msgs, err := fake.RecentMessages(ctx, j.ThreadID, 50)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("thread messages = %d, want 1 (no duplicate card)", len(msgs))
	}
}
