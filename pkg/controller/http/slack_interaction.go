package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/domain/types"
	slacksvc "github.com/secmon-lab/retainer/pkg/service/slack"
	"github.com/secmon-lab/retainer/pkg/usecase"
	"github.com/secmon-lab/retainer/pkg/utils/async"
	"github.com/secmon-lab/retainer/pkg/utils/errutil"
	"github.com/secmon-lab/retainer/pkg/utils/logging"
	"github.com/secmon-lab/retainer/pkg/utils/safe"
	"github.com/slack-go/slack"
)

// SlackInteractionHandler handles Slack interactive component payloads
// (panel button clicks and modal submissions)
type SlackInteractionHandler struct {
	dispatcher EventDispatcher
}

// NewSlackInteractionHandler creates a new Slack interaction handler
func NewSlackInteractionHandler(dispatcher EventDispatcher) *SlackInteractionHandler {
	return &SlackInteractionHandler{
		dispatcher: dispatcher,
	}
}

// ServeHTTP handles Slack interaction webhook requests
func (h *SlackInteractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Slack sends interaction payloads as application/x-www-form-urlencoded
	// with a "payload" field containing JSON
	payload := r.FormValue("payload")
	if payload == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("missing payload field in interaction request"), http.StatusBadRequest)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &callback); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse interaction payload"), http.StatusBadRequest)
		return
	}

	switch callback.Type {
	case slack.InteractionTypeBlockActions:
		h.handleBlockActions(ctx, &callback)
		w.WriteHeader(http.StatusOK)

	case slack.InteractionTypeViewSubmission:
		h.handleViewSubmission(ctx, w, &callback)

	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (h *SlackInteractionHandler) handleBlockActions(ctx context.Context, callback *slack.InteractionCallback) {
	for _, action := range callback.ActionCallback.BlockActions {
		name := types.ActionName(action.ActionID)
		if !name.IsValid() {
			continue
		}

		ev := &usecase.ActionEvent{
			Action:    name,
			CaseID:    model.CaseID(action.Value),
			ActorID:   callback.User.ID,
			ChannelID: callback.Channel.ID,
			TriggerID: callback.TriggerID,
		}
		async.Dispatch(ctx, func(ctx context.Context) error {
			return h.dispatcher.HandleAction(ctx, ev)
		})
	}
}

func (h *SlackInteractionHandler) handleViewSubmission(ctx context.Context, w http.ResponseWriter, callback *slack.InteractionCallback) {
	ev := &usecase.FormEvent{
		Kind:    model.FormKind(callback.View.CallbackID),
		ActorID: callback.User.ID,
	}
	switch ev.Kind {
	case model.FormStartCase:
		ev.Start = slacksvc.StartInputFromView(callback.View, callback.User.ID)
	case model.FormOffer:
		ev.CaseID, ev.Offer = slacksvc.OfferInputFromView(callback.View)
	default:
		logging.From(ctx).Warn("unknown view submission", "callback_id", callback.View.CallbackID)
		w.WriteHeader(http.StatusOK)
		return
	}

	// Field errors keep the modal open so the user can correct the input
	if errs := h.dispatcher.CheckForm(ev); len(errs) > 0 {
		resp := slack.NewErrorsViewSubmissionResponse(errs)
		data, err := json.Marshal(resp)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal view submission response"), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		safe.Write(ctx, w, data)
		return
	}

	w.WriteHeader(http.StatusOK)

	async.Dispatch(ctx, func(ctx context.Context) error {
		return h.dispatcher.HandleForm(ctx, ev)
	})
}
