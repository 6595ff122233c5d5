// Package platform abstracts the chat platform behind a small interface so
// reconciliation and board code can run against an in-memory fake. The only
// production implementation talks to Discord.
package platform

import (
	"context"
	"errors"
)

var (
	// ErrNotFound marks a channel or message that no longer exists. Callers
	// treat it as "recreate", never as a hard failure.
	ErrNotFound = errors.New("platform: not found")
	// ErrPermission marks a missing bot permission. Retrying cannot help;
	// an operator has to fix the role setup.
	ErrPermission = errors.New("platform: permission denied")
)

// ChannelKind distinguishes the three channel shapes the CRM uses.
type ChannelKind int

const (
	KindText ChannelKind = iota
	KindCategory
	KindThread
)

// Channel is a guild channel, category, or thread.
type Channel struct {
	ID       string
	Name     string
	ParentID string
	Kind     ChannelKind
	Archived bool
}

// Message is a message the bot can render boards and cards onto.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
	Pinned    bool
	// System is true for platform-generated notices, like the
	// "started a thread" announcement Discord posts into the parent.
	System bool
}

// ChannelEdit is a partial channel update; nil fields are left unchanged.
type ChannelEdit struct {
	Name     *string
	ParentID *string
	Archived *bool
}

// Client is the surface reconciliation needs from the platform. All methods
// honor ctx cancellation and return ErrNotFound / ErrPermission where the
// platform reports the matching condition.
type Client interface {
	// BotUserID identifies the bot's own account, used to tell our board
	// messages apart from anyone else's.
	BotUserID() string

	GuildChannels(ctx context.Context) ([]Channel, error)
	CreateChannel(ctx context.Context, name string, kind ChannelKind, parentID string) (*Channel, error)
	EditChannel(ctx context.Context, id string, edit ChannelEdit) (*Channel, error)
	DeleteChannel(ctx context.Context, id string) error

	// CreateThread starts a public thread on the given text channel.
	CreateThread(ctx context.Context, channelID, name string) (*Channel, error)
	// Thread fetches a single thread (or channel) by ID.
	Thread(ctx context.Context, id string) (*Channel, error)

	Message(ctx context.Context, channelID, messageID string) (*Message, error)
	RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error)
	SendMessage(ctx context.Context, channelID, content string) (*Message, error)
	EditMessage(ctx context.Context, channelID, messageID, content string) (*Message, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	PinMessage(ctx context.Context, channelID, messageID string) error
}
