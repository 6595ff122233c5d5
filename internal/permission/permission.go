// Package permission maps Discord roles onto the three access tiers and
// filters entity data accordingly. The role-to-tier mapping is loaded from a
// YAML file so deployments can rewire it without a rebuild.
package permission

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crewdesk/crewdesk/internal/domain"
)

// Tier is an access level. Higher tiers include everything below them.
type Tier string

const (
	// TierNone means no CRM access at all.
	TierNone Tier = ""
	// TierOwnTasks sees only tasks assigned to the user.
	TierOwnTasks Tier = "own_tasks"
	// TierDataOnly sees all CRM data except financials.
	TierDataOnly Tier = "data_only"
	// TierFull sees everything, invoices and budgets included.
	TierFull Tier = "full"
)

func (t Tier) level() int {
	switch t {
	case TierFull:
		return 3
	case TierDataOnly:
		return 2
	case TierOwnTasks:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether t grants the required tier or higher.
func (t Tier) AtLeast(required Tier) bool {
	return t.level() >= required.level()
}

// rolesFile is the on-disk shape:
//
//	roles:
//	  "140898...": full
//	  "141038...": data_only
//	  "134939...": own_tasks
type rolesFile struct {
	Roles map[string]Tier `yaml:"roles"`
}

// Oracle answers permission questions for guild members.
type Oracle struct {
	byRole map[string]Tier
}

// LoadOracle reads the roles file.
func LoadOracle(path string) (*Oracle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("permission: read roles file: %w", err)
	}
	var f rolesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("permission: parse roles file: %w", err)
	}
	for role, tier := range f.Roles {
		switch tier {
		case TierFull, TierDataOnly, TierOwnTasks:
		default:
			return nil, fmt.Errorf("permission: role %s has unknown tier %q", role, tier)
		}
	}
	return NewOracle(f.Roles), nil
}

// NewOracle builds an oracle from an explicit role-to-tier map.
func NewOracle(byRole map[string]Tier) *Oracle {
	m := make(map[string]Tier, len(byRole))
	for role, tier := range byRole {
		m[role] = tier
	}
	return &Oracle{byRole: m}
}

// TierFor returns the highest tier granted by any of the member's roles.
// Unknown roles grant nothing.
func (o *Oracle) TierFor(roleIDs []string) Tier {
	best := TierNone
	for _, id := range roleIDs {
		if t, ok := o.byRole[id]; ok && t.level() > best.level() {
			best = t
		}
	}
	return best
}

// FilterClient redacts a client record for the given tier. Returns false
// when the tier may not see the record at all.
func FilterClient(c domain.Client, tier Tier) (domain.Client, bool) {
	switch {
	case tier == TierFull:
		return c, true
	case tier == TierDataOnly:
		c.AuthCode = ""
		return c, true
	case tier == TierOwnTasks:
		// Task context only: identity fields, nothing more.
		return domain.Client{ID: c.ID, Code: c.Code, Name: c.Name}, true
	default:
		return domain.Client{}, false
	}
}

// FilterJob redacts a job record for the given tier.
func FilterJob(j domain.Job, tier Tier) (domain.Job, bool) {
	switch {
	case tier == TierFull:
		return j, true
	case tier == TierDataOnly:
		j.Budget = 0
		return j, true
	case tier == TierOwnTasks:
		return domain.Job{ID: j.ID, Title: j.Title, ClientID: j.ClientID}, true
	default:
		return domain.Job{}, false
	}
}

// FilterInvoice hides invoices entirely below the full tier.
func FilterInvoice(inv domain.Invoice, tier Tier) (domain.Invoice, bool) {
	if tier != TierFull {
		return domain.Invoice{}, false
	}
	return inv, true
}

// FilterTask hides other people's tasks from the own-tasks tier.
func FilterTask(t domain.Task, tier Tier, userID string) (domain.Task, bool) {
	switch {
	case tier.AtLeast(TierDataOnly):
		return t, true
	case tier == TierOwnTasks:
		if !strings.EqualFold(t.AssigneeID, userID) {
			return domain.Task{}, false
		}
		return t, true
	default:
		return domain.Task{}, false
	}
}
