package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// threadAutoArchiveMinutes keeps job threads visible for a week before
// Discord auto-archives them; reconciliation unarchives on demand anyway.
const threadAutoArchiveMinutes = 10080

// Discord implements Client against one guild via a discordgo session.
// All calls pass through a shared rate limiter, paced below Discord's
// global REST limit so board refreshes cannot trip 429s.
type Discord struct {
	session *discordgo.Session
	guildID string
	limiter *rate.Limiter
}

// NewDiscord wraps an opened session scoped to guildID. rps/burst configure
// outbound request pacing.
func NewDiscord(session *discordgo.Session, guildID string, rps float64, burst int) *Discord {
	return &Discord{
		session: session,
		guildID: guildID,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (d *Discord) wait(ctx context.Context) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("discord: rate limiter: %w", err)
	}
	return nil
}

// mapErr translates discordgo REST failures onto the package sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Response != nil {
		switch rerr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrPermission, err)
		}
	}
	return err
}

func (d *Discord) BotUserID() string {
	if d.session.State != nil && d.session.State.User != nil {
		return d.session.State.User.ID
	}
	return ""
}

func fromDiscordChannel(ch *discordgo.Channel) *Channel {
	out := &Channel{ID: ch.ID, Name: ch.Name, ParentID: ch.ParentID}
	switch ch.Type {
	case discordgo.ChannelTypeGuildCategory:
		out.Kind = KindCategory
	case discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread:
		out.Kind = KindThread
	default:
		out.Kind = KindText
	}
	if ch.ThreadMetadata != nil {
		out.Archived = ch.ThreadMetadata.Archived
	}
	return out
}

func fromDiscordMessage(m *discordgo.Message) Message {
	msg := Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Pinned:    m.Pinned,
		System:    m.Type == discordgo.MessageTypeThreadCreated,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
	}
	return msg
}

func (d *Discord) GuildChannels(ctx context.Context) ([]Channel, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	chans, err := d.session.GuildChannels(d.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]Channel, 0, len(chans))
	for _, ch := range chans {
		out = append(out, *fromDiscordChannel(ch))
	}
	return out, nil
}

func (d *Discord) CreateChannel(ctx context.Context, name string, kind ChannelKind, parentID string) (*Channel, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	data := discordgo.GuildChannelCreateData{Name: name, ParentID: parentID}
	switch kind {
	case KindCategory:
		data.Type = discordgo.ChannelTypeGuildCategory
	default:
		data.Type = discordgo.ChannelTypeGuildText
	}
	ch, err := d.session.GuildChannelCreateComplex(d.guildID, data, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr(err)
	}
	return fromDiscordChannel(ch), nil
}

func (d *Discord) EditChannel(ctx context.Context, id string, edit ChannelEdit) (*Channel, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	data := &discordgo.ChannelEdit{Archived: edit.Archived}
	if edit.Name != nil {
		data.Name = *edit.Name
	}
	if edit.ParentID != nil {
		data.ParentID = *edit.ParentID
	}
	ch, err := d.session.ChannelEditComplex(id, data, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr(err)
	}
	return fromDiscordChannel(ch), nil
}

func (d *Discord) DeleteChannel(ctx context.Context, id string) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	_, err := d.session.ChannelDelete(id, discordgo.WithContext(ctx))
	return mapErr(err)
}

func (d *Discord) CreateThread(ctx context.Context, channelID, name string) (*Channel, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	ch, err := d.session.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		Type:                discordgo.ChannelTypeGuildPublicThread,
		AutoArchiveDuration: threadAutoArchiveMinutes,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr(err)
	}
	return fromDiscordChannel(ch), nil
}

func (d *Discord) Thread(ctx context.Context, id string) (*Channel, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	ch, err := d.session.Channel(id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr(err)
	}
	return fromDiscordChannel(ch), nil
}

func (d *Discord) Message(ctx context.Context, channelID, messageID string) (*Message, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	m, err := d.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr(err)
	}
	msg := fromDiscordMessage(m)
	return &msg, nil
}

func (d *Discord) RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	msgs, err := d.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, fromDiscordMessage(m))
	}
	return out, nil
}

func (d *Discord) SendMessage(ctx context.Context, channelID, content string) (*Message, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	m, err := d.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr(err)
	}
	msg := fromDiscordMessage(m)
	return &msg, nil
}

func (d *Discord) EditMessage(ctx context.Context, channelID, messageID, content string) (*Message, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	m, err := d.session.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr(err)
	}
	msg := fromDiscordMessage(m)
	return &msg, nil
}

func (d *Discord) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	return mapErr(d.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
}

func (d *Discord) PinMessage(ctx context.Context, channelID, messageID string) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	return mapErr(d.session.ChannelMessagePin(channelID, messageID, discordgo.WithContext(ctx)))
}
