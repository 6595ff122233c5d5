package platform

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Client used by tests across the repo. IDs are
// monotonic and zero-padded so ordering by ID matches creation order,
// mirroring snowflake comparison on the real platform.
//
// Hook, when set, is consulted before every call with the method name and
// may inject an error.
type Fake struct {
	mu       sync.Mutex
	nextID   int64
	channels map[string]*Channel
	order    []string
	messages map[string][]Message

	BotID string
	Hook  func(method string) error
}

// NewFake returns an empty fake guild.
func NewFake() *Fake {
	return &Fake{
		channels: make(map[string]*Channel),
		messages: make(map[string][]Message),
		BotID:    "bot-user",
	}
}

func (f *Fake) newID() string {
	f.nextID++
	return fmt.Sprintf("%012d", f.nextID)
}

func (f *Fake) hook(method string) error {
	if f.Hook != nil {
		return f.Hook(method)
	}
	return nil
}

func (f *Fake) BotUserID() string { return f.BotID }

func (f *Fake) GuildChannels(ctx context.Context) ([]Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hook("GuildChannels"); err != nil {
		return nil, err
	}
	out := make([]Channel, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, *f.channels[id])
	}
	return out, nil
}

func (f *Fake) CreateChannel(ctx context.Context, name string, kind ChannelKind, parentID string) (*Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hook("CreateChannel"); err != nil {
		return nil, err
	}
	ch := &Channel{ID: f.newID(), Name: name, Kind: kind, ParentID: parentID}
	f.channels[ch.ID] = ch
	f.order = append(f.order, ch.ID)
	out := *ch
	return &out, nil
}

func (f *Fake) EditChannel(ctx context.Context, id string, edit ChannelEdit) (*Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hook("EditChannel"); err != nil {
		return nil, err
	}
	ch, ok := f.channels[id]
	if !ok {
		return nil, ErrNotFound
	}
	if edit.Name != nil {
		ch.Name = *edit.Name
	}
	if edit.ParentID != nil {
		ch.ParentID = *edit.ParentID
	}
	if edit.Archived != nil {
		ch.Archived = *edit.Archived
	}
	out := *ch
	return &out, nil
}

func (f *Fake) DeleteChannel(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hook("DeleteChannel"); err != nil {
		return err
	}
	if _, ok := f.channels[id]; !ok {
		return ErrNotFound
	}
	delete(f.channels, id)
	delete(f.messages, id)
	for i, cid := range f.order {
		if cid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *Fake) CreateThread(ctx context.Context, channelID, name string) (*Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hook("CreateThread"); err != nil {
		return nil, err
	}
	if _, ok := f.channels[channelID]; !ok {
		return nil, ErrNotFound
	}
	th := &Channel{ID: f.newID(), Name: name, Kind: KindThread, ParentID: channelID}
	f.channels[th.ID] = th
	f.order = append(f.order, th.ID)
	// Discord announces new threads with a system message in the parent.
	f.messages[channelID] = append(f.messages[channelID], Message{
		ID:        f.newID(),
		ChannelID: channelID,
		AuthorID:  f.BotID,
		Content:   name,
		System:    true,
	})
	out := *th
	return &out, nil
}

func (f *Fake) Thread(ctx context.Context, id string) (*Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hook("Thread"); err != nil {
		return nil, err
	}
	ch, ok := f.channels[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *ch
	return &out, nil
}

func (f *Fake) Message(ctx context.Context, channelID, messageID string) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hook("Message"); err != nil {
		return nil, err
	}
	for _, m := range f.messages[channelID] {
		if m.ID == messageID {
			out := m
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// RecentMessages returns newest first, like the real API.
func (f *Fake) RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hook("RecentMessages"); err != nil {
		return nil, err
	}
	msgs := f.messages[channelID]
	out := make([]Message, 0, limit)
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

func (f *Fake) SendMessage(ctx context.Context, channelID, content string) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hook("SendMessage"); err != nil {
		return nil, err
	}
	if _, ok := f.channels[channelID]; !ok {
		return nil, ErrNotFound
	}
	m := Message{ID: f.newID(), ChannelID: channelID, AuthorID: f.BotID, Content: content}
	f.messages[channelID] = append(f.messages[channelID], m)
	return &m, nil
}

func (f *Fake) EditMessage(ctx context.Context, channelID, messageID, content string) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hook("EditMessage"); err != nil {
		return nil, err
	}
	msgs := f.messages[channelID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			msgs[i].Content = content
			out := msgs[i]
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (f *Fake) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hook("DeleteMessage"); err != nil {
		return err
	}
	msgs := f.messages[channelID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			f.messages[channelID] = append(msgs[:i], msgs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *Fake) PinMessage(ctx context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hook("PinMessage"); err != nil {
		return err
	}
	msgs := f.messages[channelID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			msgs[i].Pinned = true
			return nil
		}
	}
	return ErrNotFound
}

// Test helpers. These read current state without going through the Client
// interface.

// ChannelsNamed returns all live channels with the given name, in creation
// order.
func (f *Fake) ChannelsNamed(name string) []Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Channel
	for _, id := range f.order {
		if f.channels[id].Name == name {
			out = append(out, *f.channels[id])
		}
	}
	return out
}

// MessagesIn returns a channel's messages oldest first.
func (f *Fake) MessagesIn(channelID string) []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.messages[channelID]))
	copy(out, f.messages[channelID])
	return out
}

// MustChannel returns a channel by ID or panics; for test setup only.
func (f *Fake) MustChannel(id string) Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		panic("fake: no channel " + id)
	}
	return *ch
}
