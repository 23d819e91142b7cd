package command

import "context"

// Client serves the story bot's chat commands until ctx is done.
type Client interface {
	HandleCommand(ctx context.Context) error
}
