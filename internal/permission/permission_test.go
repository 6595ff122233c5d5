package permission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/crewdesk/crewdesk/internal/domain"
)

func testOracle() *Oracle {
	return NewOracle(map[string]Tier{
		"role-office": TierFull,
		"role-lead":   TierDataOnly,
		"role-staff":  TierOwnTasks,
	})
}

func TestTierFor_HighestRoleWins(t *testing.T) {
	o := testOracle()
	cases := []struct {
		roles []string
		want  Tier
	}{
		{[]string{"role-office"}, TierFull},
		{[]string{"role-staff", "role-office"}, TierFull},
		{[]string{"role-lead", "role-staff"}, TierDataOnly},
		{[]string{"role-staff"}, TierOwnTasks},
		{[]string{"role-unknown"}, TierNone},
		{nil, TierNone},
	}
	for _, c := range cases {
		if got := o.TierFor(c.roles); got != c.want {
			t.Errorf("TierFor(%v) = %q, want %q", c.roles, got, c.want)
		}
	}
}

func TestAtLeast_Hierarchy(t *testing.T) {
	if !TierFull.AtLeast(TierOwnTasks) {
		t.Fatal("full should include own_tasks")
	}
	if TierOwnTasks.AtLeast(TierDataOnly) {
		t.Fatal("own_tasks should not reach data_only")
	}
	if TierNone.AtLeast(TierOwnTasks) {
		t.Fatal("no roles means no access")
	}
}

func TestFilterClient_RedactsByTier(t *testing.T) {
	c := domain.Client{ID: "c1", Code: "ACME", Name: "Acme Co", AuthCode: "secret", Notes: "vip"}

	full, ok := FilterClient(c, TierFull)
	if !ok || full.AuthCode != "secret" {
		t.Fatalf("full tier lost data: %+v", full)
	}

	lead, ok := FilterClient(c, TierDataOnly)
	if !ok || lead.AuthCode != "" || lead.Notes != "vip" {
		t.Fatalf("data_only filter wrong: %+v", lead)
	}

	staff, ok := FilterClient(c, TierOwnTasks)
	if !ok || staff.Notes != "" || staff.Name != "Acme Co" {
		t.Fatalf("own_tasks filter wrong: %+v", staff)
	}

	if _, ok := FilterClient(c, TierNone); ok {
		t.Fatal("no tier must not see clients")
	}
}

func TestFilterJob_HidesBudgetFromDataOnly(t *testing.T) {
	j := domain.Job{ID: "ACME-001", Title: "Build", Budget: 1200}
	lead, ok := FilterJob(j, TierDataOnly)
	if !ok || lead.Budget != 0 {
		t.Fatalf("data_only sees budget: %+v", lead)
	}
	full, _ := FilterJob(j, TierFull)
	if full.Budget != 1200 {
		t.Fatalf("full lost budget: %+v", full)
	}
}

func TestFilterInvoice_FullOnly(t *testing.T) {
	inv := domain.Invoice{ID: "INV-0001"}
	if _, ok := FilterInvoice(inv, TierDataOnly); ok {
		t.Fatal("data_only must not see invoices")
	}
	if _, ok := FilterInvoice(inv, TierFull); !ok {
		t.Fatal("full must see invoices")
	}
}

func TestFilterTask_OwnTasksOnly(t *testing.T) {
	mine := domain.Task{ID: "t1", AssigneeID: "u1"}
	theirs := domain.Task{ID: "t2", AssigneeID: "u2"}

	if _, ok := FilterTask(mine, TierOwnTasks, "u1"); !ok {
		t.Fatal("staff must see own task")
	}
	if _, ok := FilterTask(theirs, TierOwnTasks, "u1"); ok {
		t.Fatal("staff must not see someone else's task")
	}
	if _, ok := FilterTask(theirs, TierDataOnly, "u1"); !ok {
		t.Fatal("data_only sees all tasks")
	}
}

func TestLoadOracle_ParsesRolesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yml")
	content := "roles:\n  \"role-office\": full\n  \"role-lead\": data_only\n  \"role-staff\": own_tasks\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write roles file: %v", err)
	}
	o, err := LoadOracle(path)
	if err != nil {
		t.Fatalf("LoadOracle: %v", err)
	}
	if got := o.TierFor([]string{"role-lead"}); got != TierDataOnly {
		t.Fatalf("TierFor = %q, want data_only", got)
	}
}

func TestLoadOracle_RejectsUnknownTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yml")
	if err := os.WriteFile(path, []byte("roles:\n  \"r\": superuser\n"), 0o600); err != nil {
		t.Fatalf("write roles file: %v", err)
	}
	if _, err := LoadOracle(path); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}
