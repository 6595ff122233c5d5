package reconcile

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/crewdesk/crewdesk/internal/domain"
	"github.com/crewdesk/crewdesk/internal/platform"
)

func newResolver(t *testing.T, fake *platform.Fake) *Resolver {
	t.Helper()
	r := NewResolver(fake, zerolog.Nop())
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return r
}

func TestEnsureBoardChannel_IdempotentAcrossRuns(t *testing.T) {
	fake := platform.NewFake()
	ctx := context.Background()

	var firstID string
	for i := 0; i < 5; i++ {
		r := newResolver(t, fake)
		ch, err := r.EnsureBoardChannel(ctx, JobBoardChannel)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if i == 0 {
			firstID = ch.ID
		} else if ch.ID != firstID {
			t.Fatalf("run %d resolved %s, first run resolved %s", i, ch.ID, firstID)
		}
	}

	if got := fake.ChannelsNamed(JobBoardChannel); len(got) != 1 {
		t.Fatalf("job board channels = %d, want 1", len(got))
	}
	if got := fake.ChannelsNamed(CategoryName); len(got) != 1 {
		t.Fatalf("categories = %d, want 1", len(got))
	}
}

func TestEnsureCategory_RenamesLegacyInPlace(t *testing.T) {
	fake := platform.NewFake()
	ctx := context.Background()
	legacy, err := fake.CreateChannel(ctx, legacyCategoryName, platform.KindCategory, "")
	if err != nil {
		t.Fatalf("seed legacy category: %v", err)
	}

	r := newResolver(t, fake)
	cat, err := r.EnsureCategory(ctx)
	if err != nil {
		t.Fatalf("EnsureCategory: %v", err)
	}
	if cat.ID != legacy.ID {
		t.Fatalf("expected legacy category %s adopted, got %s", legacy.ID, cat.ID)
	}
	if cat.Name != CategoryName {
		t.Fatalf("category name = %q, want %q", cat.Name, CategoryName)
	}
	if got := fake.ChannelsNamed(legacyCategoryName); len(got) != 0 {
		t.Fatalf("legacy category still present")
	}
}

func TestEnsureBoardChannel_MigratesLegacyNameAndParent(t *testing.T) {
	fake := platform.NewFake()
	ctx := context.Background()
	// Legacy board sitting outside any category.
	legacy, err := fake.CreateChannel(ctx, "👥 | client-board", platform.KindText, "")
	if err != nil {
		t.Fatalf("seed legacy board: %v", err)
	}

	r := newResolver(t, fake)
	ch, err := r.EnsureBoardChannel(ctx, ClientBoardChannel)
	if err != nil {
		t.Fatalf("EnsureBoardChannel: %v", err)
	}
	if ch.ID != legacy.ID {
		t.Fatalf("expected legacy channel adopted, got new channel %s", ch.ID)
	}
	got := fake.MustChannel(legacy.ID)
	if got.Name != ClientBoardChannel {
		t.Fatalf("name = %q, want %q", got.Name, ClientBoardChannel)
	}
	cat := fake.ChannelsNamed(CategoryName)
	if len(cat) != 1 || got.ParentID != cat[0].ID {
		t.Fatalf("channel not moved under category: parent=%s", got.ParentID)
	}
}

func TestEnsureBoardChannel_DuplicateCleanup(t *testing.T) {
	fake := platform.NewFake()
	ctx := context.Background()

	cat, err := fake.CreateChannel(ctx, CategoryName, platform.KindCategory, "")
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	// Three boards with the same name: two inside the category, one outside.
	inCat1, _ := fake.CreateChannel(ctx, TaskBoardChannel, platform.KindText, cat.ID)
	if _, err := fake.CreateChannel(ctx, TaskBoardChannel, platform.KindText, cat.ID); err != nil {
		t.Fatalf("seed duplicate: %v", err)
	}
	if _, err := fake.CreateChannel(ctx, TaskBoardChannel, platform.KindText, ""); err != nil {
		t.Fatalf("seed stray: %v", err)
	}

	r := newResolver(t, fake)
	ch, err := r.EnsureBoardChannel(ctx, TaskBoardChannel)
	if err != nil {
		t.Fatalf("EnsureBoardChannel: %v", err)
	}
	if ch.ID != inCat1.ID {
		t.Fatalf("survivor = %s, want earliest in-category %s", ch.ID, inCat1.ID)
	}
	if got := fake.ChannelsNamed(TaskBoardChannel); len(got) != 1 {
		t.Fatalf("task board channels after cleanup = %d, want 1", len(got))
	}
}

func TestEnsureClientChannel_StoredIDWinsOverName(t *testing.T) {
	fake := platform.NewFake()
	ctx := context.Background()
	cat, _ := fake.CreateChannel(ctx, CategoryName, platform.KindCategory, "")
	// The stored channel was renamed by hand; a same-named impostor exists.
	stored, _ := fake.CreateChannel(ctx, "🪪-acme-renamed-by-hand", platform.KindText, cat.ID)
	if _, err := fake.CreateChannel(ctx, "🪪-acme-acme-co", platform.KindText, cat.ID); err != nil {
		t.Fatalf("seed impostor: %v", err)
	}

	c := domain.Client{ID: "c1", Code: "ACME", Name: "Acme Co", ChannelID: stored.ID}
	r := newResolver(t, fake)
	ch, created, err := r.EnsureClientChannel(ctx, c)
	if err != nil {
		t.Fatalf("EnsureClientChannel: %v", err)
	}
	if created {
		t.Fatal("created = true, want adoption of stored channel")
	}
	if ch.ID != stored.ID {
		t.Fatalf("resolved %s, want stored %s", ch.ID, stored.ID)
	}
	// Repaired back to the canonical name, impostor removed.
	if got := fake.MustChannel(stored.ID); got.Name != "🪪-acme-acme-co" {
		t.Fatalf("name after repair = %q", got.Name)
	}
	if got := fake.ChannelsNamed("🪪-acme-acme-co"); len(got) != 1 {
		t.Fatalf("channels named canonical = %d, want 1", len(got))
	}
}

func TestEnsureClientChannel_RepairFailureStillResolves(t *testing.T) {
	fake := platform.NewFake()
	ctx := context.Background()
	cat, _ := fake.CreateChannel(ctx, CategoryName, platform.KindCategory, "")

	// Raw code spelling makes the legacy name differ from the canonical one,
	// so adoption requires a rename.
	c := domain.Client{ID: "c1", Code: "AC ME", Name: "Acme Co"}
	legacy, err := fake.CreateChannel(ctx, legacyClientChannelName(c), platform.KindText, cat.ID)
	if err != nil {
		t.Fatalf("seed legacy channel: %v", err)
	}
	fake.Hook = func(method string) error {
		if method == "EditChannel" {
			return platform.ErrPermission
		}
		return nil
	}

	r := newResolver(t, fake)
	ch, created, err := r.EnsureClientChannel(ctx, c)
	if err != nil {
		t.Fatalf("EnsureClientChannel: %v", err)
	}
	if created || ch.ID != legacy.ID {
		t.Fatalf("resolved (%s, created=%v), want legacy %s adopted", ch.ID, created, legacy.ID)
	}
	// The rename failed, so the legacy name survives until a later run.
	if got := fake.MustChannel(legacy.ID); got.Name != legacyClientChannelName(c) {
		t.Fatalf("name = %q after failed repair", got.Name)
	}
}

func TestEnsureClientChannel_CreatesWhenMissing(t *testing.T) {
	fake := platform.NewFake()
	ctx := context.Background()

	c := domain.Client{ID: "c1", Code: "ACME", Name: "Acme Co"}
	r := newResolver(t, fake)
	ch, created, err := r.EnsureClientChannel(ctx, c)
	if err != nil {
		t.Fatalf("EnsureClientChannel: %v", err)
	}
	if !created {
		t.Fatal("created = false, want true")
	}
	cat := fake.ChannelsNamed(CategoryName)
	if len(cat) != 1 || ch.ParentID != cat[0].ID {
		t.Fatalf("client channel not under category")
	}
}
