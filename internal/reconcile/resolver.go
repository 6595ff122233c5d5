package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/crewdesk/crewdesk/internal/domain"
	"github.com/crewdesk/crewdesk/internal/platform"
)

// Resolver finds or creates the CRM category and its channels against a
// snapshot of the guild, taken once per sync run with Refresh. The snapshot
// plays the role of a gateway cache: lookups are local, and every mutation
// the resolver performs is applied back to it.
//
// Duplicate policy: after an ensure, exactly one channel matches the
// canonical-or-legacy name set. The survivor is the one already under the
// CRM category, earliest-created on ties; the rest are deleted best-effort.
type Resolver struct {
	pf  platform.Client
	log zerolog.Logger

	mu       sync.Mutex
	channels []platform.Channel
}

func NewResolver(pf platform.Client, log zerolog.Logger) *Resolver {
	return &Resolver{pf: pf, log: log}
}

// Refresh reloads the guild snapshot. Call once at the start of a sync run.
func (r *Resolver) Refresh(ctx context.Context) error {
	chans, err := r.pf.GuildChannels(ctx)
	if err != nil {
		return fmt.Errorf("resolver: list guild channels: %w", err)
	}
	r.mu.Lock()
	r.channels = chans
	r.mu.Unlock()
	return nil
}

// earlier orders snowflake IDs; shorter means older.
func earlier(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func (r *Resolver) byID(id string) (platform.Channel, bool) {
	for _, ch := range r.channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return platform.Channel{}, false
}

func (r *Resolver) matching(kind platform.ChannelKind, names ...string) []platform.Channel {
	var out []platform.Channel
	for _, ch := range r.channels {
		if ch.Kind != kind {
			continue
		}
		for _, n := range names {
			if ch.Name == n {
				out = append(out, ch)
				break
			}
		}
	}
	return out
}

func (r *Resolver) upsert(ch platform.Channel) {
	for i := range r.channels {
		if r.channels[i].ID == ch.ID {
			r.channels[i] = ch
			return
		}
	}
	r.channels = append(r.channels, ch)
}

func (r *Resolver) forget(id string) {
	for i := range r.channels {
		if r.channels[i].ID == id {
			r.channels = append(r.channels[:i], r.channels[i+1:]...)
			return
		}
	}
}

// pickSurvivor selects the channel to keep from a non-empty candidate set:
// in-category beats out-of-category, then earliest ID wins.
func pickSurvivor(cands []platform.Channel, categoryID string) (platform.Channel, []platform.Channel) {
	best := 0
	for i := 1; i < len(cands); i++ {
		a, b := cands[i], cands[best]
		ain, bin := a.ParentID == categoryID, b.ParentID == categoryID
		if ain != bin {
			if ain {
				best = i
			}
			continue
		}
		if earlier(a.ID, b.ID) {
			best = i
		}
	}
	losers := make([]platform.Channel, 0, len(cands)-1)
	for i, ch := range cands {
		if i != best {
			losers = append(losers, ch)
		}
	}
	return cands[best], losers
}

func (r *Resolver) deleteDuplicates(ctx context.Context, losers []platform.Channel) {
	for _, ch := range losers {
		if err := r.pf.DeleteChannel(ctx, ch.ID); err != nil {
			r.log.Warn().Err(err).Str("channel", ch.Name).Str("id", ch.ID).
				Msg("could not delete duplicate channel")
			continue
		}
		r.forget(ch.ID)
		r.log.Info().Str("channel", ch.Name).Str("id", ch.ID).Msg("deleted duplicate channel")
	}
}

// repair moves and renames a channel to its desired parent and name. Repair
// is cosmetic: a failed edit is logged and the channel is returned as found,
// still usable under its old name or parent. The next run tries again.
func (r *Resolver) repair(ctx context.Context, ch platform.Channel, name, parentID string) platform.Channel {
	var edit platform.ChannelEdit
	if ch.Name != name {
		edit.Name = &name
	}
	if ch.ParentID != parentID {
		edit.ParentID = &parentID
	}
	if edit.Name == nil && edit.ParentID == nil {
		return ch
	}
	updated, err := r.pf.EditChannel(ctx, ch.ID, edit)
	if err != nil {
		r.log.Warn().Err(err).Str("channel", ch.Name).Str("id", ch.ID).
			Msg("could not repair channel")
		return ch
	}
	r.upsert(*updated)
	return *updated
}

// EnsureCategory finds, renames, or creates the CRM category.
func (r *Resolver) EnsureCategory(ctx context.Context) (*platform.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureCategoryLocked(ctx)
}

func (r *Resolver) ensureCategoryLocked(ctx context.Context) (*platform.Channel, error) {
	cands := r.matching(platform.KindCategory, CategoryName, legacyCategoryName)
	if len(cands) == 0 {
		cat, err := r.pf.CreateChannel(ctx, CategoryName, platform.KindCategory, "")
		if err != nil {
			return nil, fmt.Errorf("resolver: create category: %w", err)
		}
		r.upsert(*cat)
		r.log.Info().Str("id", cat.ID).Msg("created CRM category")
		return cat, nil
	}

	// Among duplicates, a canonically named category beats a legacy one.
	best := 0
	for i := 1; i < len(cands); i++ {
		a, b := cands[i], cands[best]
		an, bn := a.Name == CategoryName, b.Name == CategoryName
		if an != bn {
			if an {
				best = i
			}
			continue
		}
		if earlier(a.ID, b.ID) {
			best = i
		}
	}
	winner := cands[best]
	losers := append(append([]platform.Channel{}, cands[:best]...), cands[best+1:]...)
	r.deleteDuplicates(ctx, losers)

	winner = r.repair(ctx, winner, CategoryName, winner.ParentID)
	return &winner, nil
}

// EnsureBoardChannel finds, migrates, or creates one board channel under the
// CRM category.
func (r *Resolver) EnsureBoardChannel(ctx context.Context, canonical string) (*platform.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cat, err := r.ensureCategoryLocked(ctx)
	if err != nil {
		return nil, err
	}

	names := append([]string{canonical}, legacyVariants(canonical)...)
	cands := r.matching(platform.KindText, names...)
	if len(cands) == 0 {
		ch, err := r.pf.CreateChannel(ctx, canonical, platform.KindText, cat.ID)
		if err != nil {
			return nil, fmt.Errorf("resolver: create %q: %w", canonical, err)
		}
		r.upsert(*ch)
		r.log.Info().Str("channel", canonical).Str("id", ch.ID).Msg("created board channel")
		return ch, nil
	}

	winner, losers := pickSurvivor(cands, cat.ID)
	r.deleteDuplicates(ctx, losers)

	winner = r.repair(ctx, winner, canonical, cat.ID)
	return &winner, nil
}

// EnsureClientChannel resolves a client's channel: by stored ID first, then
// by canonical or legacy name, creating it when nothing matches. The second
// return reports whether a new channel was created. Persisting the resolved
// ID back to the store is the caller's job.
func (r *Resolver) EnsureClientChannel(ctx context.Context, c domain.Client) (*platform.Channel, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cat, err := r.ensureCategoryLocked(ctx)
	if err != nil {
		return nil, false, err
	}

	desired := ClientChannelName(c)
	cands := r.matching(platform.KindText, desired, legacyClientChannelName(c))

	// The stored ID is authoritative when it still points at a live text
	// channel, even if the channel was renamed out of the name set.
	var winner platform.Channel
	var found bool
	if c.ChannelID != "" {
		if ch, ok := r.byID(c.ChannelID); ok && ch.Kind == platform.KindText {
			winner, found = ch, true
		}
	}

	if !found {
		if len(cands) == 0 {
			ch, err := r.pf.CreateChannel(ctx, desired, platform.KindText, cat.ID)
			if err != nil {
				return nil, false, fmt.Errorf("resolver: create client channel %q: %w", desired, err)
			}
			r.upsert(*ch)
			r.log.Info().Str("client", c.ID).Str("channel", desired).Msg("created client channel")
			return ch, true, nil
		}
		winner, _ = pickSurvivor(cands, cat.ID)
	}

	var losers []platform.Channel
	for _, ch := range cands {
		if ch.ID != winner.ID {
			losers = append(losers, ch)
		}
	}
	r.deleteDuplicates(ctx, losers)

	winner = r.repair(ctx, winner, desired, cat.ID)
	return &winner, false, nil
}
