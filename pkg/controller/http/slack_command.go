package http

import (
	"context"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/usecase"
	"github.com/secmon-lab/retainer/pkg/utils/async"
	"github.com/secmon-lab/retainer/pkg/utils/errutil"
	"github.com/secmon-lab/retainer/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// SlackCommandHandler handles slash command requests
type SlackCommandHandler struct {
	dispatcher EventDispatcher
}

func NewSlackCommandHandler(dispatcher EventDispatcher) *SlackCommandHandler {
	return &SlackCommandHandler{dispatcher: dispatcher}
}

// ServeHTTP acknowledges the command at once and runs it in the background,
// since Slack gives up on slash commands after three seconds.
func (h *SlackCommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slash command"), http.StatusBadRequest)
		return
	}

	ev := &usecase.CommandEvent{
		Command:   cmd.Command,
		Text:      cmd.Text,
		ActorID:   cmd.UserID,
		ChannelID: cmd.ChannelID,
		TriggerID: cmd.TriggerID,
	}
	logging.From(ctx).Debug("slash command received",
		"command", ev.Command,
		"user_id", ev.ActorID,
		"channel_id", ev.ChannelID,
	)

	w.WriteHeader(http.StatusOK)

	async.Dispatch(ctx, func(ctx context.Context) error {
		return h.dispatcher.HandleCommand(ctx, ev)
	})
}
