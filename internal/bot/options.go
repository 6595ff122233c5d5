package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/crewdesk/crewdesk/internal/store"
)

// options flattens a (sub)command's option list into name lookups.
type options map[string]*discordgo.ApplicationCommandInteractionDataOption

// subcommand returns the invoked subcommand name and its options.
func subcommand(data discordgo.ApplicationCommandInteractionData) (string, options) {
	if len(data.Options) == 0 || data.Options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return "", options{}
	}
	sub := data.Options[0]
	opts := make(options, len(sub.Options))
	for _, o := range sub.Options {
		opts[o.Name] = o
	}
	return sub.Name, opts
}

func (o options) str(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(opt.StringValue())
}

func (o options) has(name string) bool {
	_, ok := o[name]
	return ok
}

func (o options) float(name string) float64 {
	opt, ok := o[name]
	if !ok {
		return 0
	}
	return opt.FloatValue()
}

// user returns the selected user's ID. User option values carry the ID
// directly, so no session lookup is needed.
func (o options) user(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}
	return opt.UserValue(nil).ID
}

// userError carries a message safe to show the invoking user verbatim.
// Anything else is logged and replaced with a generic reply.
type userError struct{ msg string }

func (e *userError) Error() string { return e.msg }

func usererrf(format string, args ...any) error {
	return &userError{msg: fmt.Sprintf(format, args...)}
}

func userMessage(err error) string {
	var ue *userError
	if errors.As(err, &ue) {
		return ue.msg
	}
	if errors.Is(err, store.ErrNotFound) {
		return "Record not found."
	}
	return "Something went wrong, try again shortly."
}
