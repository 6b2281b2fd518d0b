package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/domain/types"
	"github.com/secmon-lab/retainer/pkg/utils/errutil"
	"github.com/secmon-lab/retainer/pkg/utils/keylock"
	"github.com/secmon-lab/retainer/pkg/utils/logging"
)

const createCaseAttempts = 3

// Panel notification texts
const (
	NoteCaseCreated    = "Case created."
	NoteOfferProposed  = "Offer proposed."
	NoteSnapshotReady  = "Finance snapshot ready."
	NoteSnapshotFailed = "Finance snapshot unavailable."
	NotePanelRefreshed = "Panel refreshed."

	snapshotProgressText = "Generating finance snapshot…"
)

var transitionNotes = map[types.ActionName]string{
	types.ActionDismiss: "Case dismissed.",
	types.ActionAccept:  "Offer accepted. Case closed.",
	types.ActionDecline: "Offer declined. Case closed.",
	types.ActionReopen:  "Case reopened.",
}

type CaseUseCase struct {
	repo     interfaces.Repository
	gateway  interfaces.MessagingGateway
	panel    *PanelSync
	snapshot *SnapshotUseCase
	locker   *keylock.Locker
	workflow Workflow
	now      func() time.Time
}

func NewCaseUseCase(
	repo interfaces.Repository,
	gateway interfaces.MessagingGateway,
	panel *PanelSync,
	snapshot *SnapshotUseCase,
	locker *keylock.Locker,
	workflow Workflow,
	now func() time.Time,
) *CaseUseCase {
	return &CaseUseCase{
		repo:     repo,
		gateway:  gateway,
		panel:    panel,
		snapshot: snapshot,
		locker:   locker,
		workflow: workflow,
		now:      now,
	}
}

// GetCase returns the case or ErrCaseNotFound
func (uc *CaseUseCase) GetCase(ctx context.Context, id model.CaseID) (*model.Case, error) {
	c, err := uc.repo.Case().Get(ctx, id)
	if err != nil {
		return nil, caseLookupError(err, id)
	}
	return c, nil
}

// OpenStartForm opens the case start form for a command issued in channelID
func (uc *CaseUseCase) OpenStartForm(ctx context.Context, channelID, triggerID string) error {
	if err := uc.gateway.OpenForm(ctx, triggerID, model.NewStartForm(channelID)); err != nil {
		return goerr.Wrap(fmt.Errorf("%w: %w", ErrGateway, err), "failed to open start form",
			goerr.V("channel_id", channelID))
	}
	return nil
}

// StartCase announces a new case in the channel, stores it with the
// announcement as its thread and posts the panel into that thread. The
// initiator also gets a private panel with the controls the shared one does
// not show them. Once the case is stored it is returned even when a later
// step fails, together with that error.
func (uc *CaseUseCase) StartCase(ctx context.Context, in model.StartInput) (*model.Case, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	threadTS, err := uc.gateway.PostMessage(ctx, in.ChannelID, "", announcement(in), nil)
	if err != nil {
		return nil, goerr.Wrap(fmt.Errorf("%w: %w", ErrGateway, err), "failed to announce case",
			goerr.V("channel_id", in.ChannelID))
	}

	created, err := uc.createCase(ctx, in, threadTS)
	if err != nil {
		text := fmt.Sprintf(":x: The case could not be created: `%s`", err.Error())
		if _, postErr := uc.gateway.PostMessage(ctx, in.ChannelID, threadTS, text, nil); postErr != nil {
			_ = errutil.Handle(ctx, goerr.Wrap(fmt.Errorf("%w: %w", ErrGateway, postErr), "failed to report case creation failure",
				goerr.V("channel_id", in.ChannelID)), "report case creation failure")
		}
		return nil, err
	}

	logging.From(ctx).Info("case started",
		"case_id", created.ID,
		"initiator", created.InitiatorID,
		"ad_account_id", created.AdAccountID,
	)

	unlock := uc.locker.Lock(created.ID.String())
	defer unlock()

	synced, err := uc.panel.Sync(ctx, created, model.PanelAudience(created), NoteCaseCreated)
	if err != nil {
		return created, err
	}
	if err := uc.panel.ShowControls(ctx, synced, synced.InitiatorID); err != nil {
		return synced, err
	}
	return synced, nil
}

func (uc *CaseUseCase) createCase(ctx context.Context, in model.StartInput, threadTS string) (*model.Case, error) {
	var err error
	for attempt := 0; attempt < createCaseAttempts; attempt++ {
		var created *model.Case
		created, err = uc.repo.Case().Create(ctx, model.NewCase(in, threadTS, uc.now()))
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, interfaces.ErrConflict) {
			return nil, goerr.Wrap(err, "failed to create case")
		}
	}
	return nil, goerr.Wrap(err, "failed to allocate case ID", goerr.V("attempts", createCaseAttempts))
}

func announcement(in model.StartInput) string {
	account := fmt.Sprintf("`%s`", in.AdAccountID)
	if in.AccountName != "" {
		account += fmt.Sprintf(" (%s)", in.AccountName)
	}
	return fmt.Sprintf(":rotating_light: *Churn Prevention Case* started by <@%s>.\n"+
		"*Ad account:* %s\n"+
		"*Stakeholder:* <@%s>\n"+
		"*Finance approver:* <@%s>",
		in.InitiatorID, account, in.StakeholderID, in.ApproverID)
}

// ProposeOffer opens the offer form for the approver. The case is not changed.
func (uc *CaseUseCase) ProposeOffer(ctx context.Context, id model.CaseID, actorID, triggerID string) error {
	c, err := uc.GetCase(ctx, id)
	if err != nil {
		return err
	}

	if err := model.CheckTransition(c, actorID, types.ActionProposeOffer); err != nil {
		return err
	}

	form := model.NewOfferForm(c.ID, uc.now(), uc.workflow.OfferExpiryDays)
	if err := uc.gateway.OpenForm(ctx, triggerID, form); err != nil {
		return gatewayError(err, "failed to open offer form", c.ID)
	}
	return nil
}

// SubmitOffer records the offer of the approver on the case and syncs the panel
func (uc *CaseUseCase) SubmitOffer(ctx context.Context, id model.CaseID, actorID string, in model.OfferInput) (*model.Case, error) {
	unlock := uc.locker.Lock(id.String())
	defer unlock()

	c, err := uc.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := model.CheckTransition(c, actorID, types.ActionSubmitOffer); err != nil {
		return nil, err
	}

	now := uc.now()
	offer, err := in.Parse(actorID, now)
	if err != nil {
		return nil, err
	}

	updated, err := uc.repo.Case().Update(ctx, id, func(cur *model.Case) error {
		return model.ApplyTransition(cur, model.Transition{
			Action:  types.ActionSubmitOffer,
			ActorID: actorID,
			Offer:   offer,
		}, now)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save offer", goerr.V(CaseIDKey, id))
	}

	logging.From(ctx).Info("offer proposed", "case_id", id, "offer_type", offer.Type)
	return uc.panel.Sync(ctx, updated, model.PanelAudience(updated), NoteOfferProposed)
}

// Transition performs a status transition (dismiss, accept, decline or
// reopen) by actorID and syncs the panel. Reopening under the clear-all
// policy also regenerates the finance snapshot.
func (uc *CaseUseCase) Transition(ctx context.Context, id model.CaseID, actorID string, action types.ActionName) (*model.Case, error) {
	note, ok := transitionNotes[action]
	if !ok {
		return nil, goerr.Wrap(model.ErrInvalidTransition, "action is not a status transition",
			goerr.V(CaseIDKey, id), goerr.V(model.ActionKey, action))
	}

	updated, err := uc.transition(ctx, id, actorID, action, note)
	if err != nil {
		return nil, err
	}

	if action == types.ActionReopen && uc.workflow.ReopenPolicy == types.ReopenClearAll {
		if err := uc.RunFinanceSnapshot(ctx, id); err != nil {
			return nil, err
		}
		return uc.GetCase(ctx, id)
	}
	return updated, nil
}

func (uc *CaseUseCase) transition(ctx context.Context, id model.CaseID, actorID string, action types.ActionName, note string) (*model.Case, error) {
	unlock := uc.locker.Lock(id.String())
	defer unlock()

	c, err := uc.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := model.CheckTransition(c, actorID, action); err != nil {
		return nil, err
	}

	t := model.Transition{
		Action:       action,
		ActorID:      actorID,
		ReopenPolicy: uc.workflow.ReopenPolicy,
	}
	updated, err := uc.repo.Case().Update(ctx, id, func(cur *model.Case) error {
		return model.ApplyTransition(cur, t, uc.now())
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save transition",
			goerr.V(CaseIDKey, id), goerr.V(model.ActionKey, action))
	}

	logging.From(ctx).Info("case transitioned",
		"case_id", id,
		"action", action,
		"actor", actorID,
		"status", updated.Status,
	)

	synced, err := uc.panel.Sync(ctx, updated, model.PanelAudience(updated), note)
	if err != nil {
		return nil, err
	}
	if action == types.ActionReopen {
		if err := uc.panel.ShowControls(ctx, synced, synced.InitiatorID); err != nil {
			return nil, err
		}
	}
	return synced, nil
}

// RefreshPanel re-renders the panel of a case and shows actorID a private
// panel when the shared one is rendered for someone else. Without an ID the
// latest open case started by actorID is used.
func (uc *CaseUseCase) RefreshPanel(ctx context.Context, id model.CaseID, actorID string) (*model.Case, error) {
	if id == "" {
		latest, err := uc.repo.Case().LatestOpenByInitiator(ctx, actorID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to look up latest open case", goerr.V(ActorIDKey, actorID))
		}
		if latest == nil {
			return nil, goerr.Wrap(ErrCaseNotFound, "no open case started by actor", goerr.V(ActorIDKey, actorID))
		}
		id = latest.ID
	}

	unlock := uc.locker.Lock(id.String())
	defer unlock()

	c, err := uc.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	synced, err := uc.panel.Sync(ctx, c, model.PanelAudience(c), NotePanelRefreshed)
	if err != nil {
		return nil, err
	}
	if err := uc.panel.ShowControls(ctx, synced, actorID); err != nil {
		return nil, err
	}
	return synced, nil
}

// RunFinanceSnapshot generates the finance snapshot of the case, reports a
// failure into the case thread and syncs the panel either way. Only a failed
// panel sync is returned.
func (uc *CaseUseCase) RunFinanceSnapshot(ctx context.Context, id model.CaseID) error {
	c, err := uc.GetCase(ctx, id)
	if err != nil {
		return err
	}

	if _, err := uc.gateway.PostMessage(ctx, c.ChannelID, c.ThreadTS, snapshotProgressText, nil); err != nil {
		_ = errutil.Handle(ctx, gatewayError(err, "failed to post snapshot progress", id), "post snapshot progress")
	}

	note := NoteSnapshotReady
	if _, err := uc.snapshot.Generate(ctx, id, uc.workflow.LookbackDays); err != nil {
		note = NoteSnapshotFailed
		_ = errutil.Handle(ctx, err, "failed to generate finance snapshot")

		text := fmt.Sprintf(":x: Failed to generate finance snapshot: `%s`", err.Error())
		if _, postErr := uc.gateway.PostMessage(ctx, c.ChannelID, c.ThreadTS, text, nil); postErr != nil {
			_ = errutil.Handle(ctx, gatewayError(postErr, "failed to report snapshot failure", id), "report snapshot failure")
		}
	}

	unlock := uc.locker.Lock(id.String())
	defer unlock()

	latest, err := uc.GetCase(ctx, id)
	if err != nil {
		return err
	}
	if _, err := uc.panel.Sync(ctx, latest, model.PanelAudience(latest), note); err != nil {
		return err
	}
	return nil
}
