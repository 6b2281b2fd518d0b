package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/domain/types"
	"github.com/secmon-lab/retainer/pkg/utils/errutil"
	"github.com/secmon-lab/retainer/pkg/utils/logging"
)

// Slash commands
const (
	CommandStart = "/churn-prevention-start"
	CommandPanel = "/churn-prevention-panel"
)

// ActionEvent is a press of a panel control
type ActionEvent struct {
	Action    types.ActionName
	CaseID    model.CaseID
	ActorID   string
	ChannelID string
	TriggerID string
}

// CommandEvent is an invocation of a slash command
type CommandEvent struct {
	Command   string
	Text      string
	ActorID   string
	ChannelID string
	TriggerID string
}

// FormEvent is a submitted form. Start is set for the start form, CaseID and
// Offer for the offer form.
type FormEvent struct {
	Kind    model.FormKind
	ActorID string
	Start   model.StartInput
	CaseID  model.CaseID
	Offer   model.OfferInput
}

type actionHandler func(ctx context.Context, ev *ActionEvent) error
type commandHandler func(ctx context.Context, ev *CommandEvent) error
type formHandler func(ctx context.Context, ev *FormEvent) error

// Dispatcher routes inbound events through fixed tables to the case use
// cases and turns their failures into messages for the people involved
type Dispatcher struct {
	cases   *CaseUseCase
	gateway interfaces.MessagingGateway

	actions  map[types.ActionName]actionHandler
	commands map[string]commandHandler
	forms    map[model.FormKind]formHandler
}

func NewDispatcher(cases *CaseUseCase, gateway interfaces.MessagingGateway) *Dispatcher {
	d := &Dispatcher{
		cases:   cases,
		gateway: gateway,
	}

	d.actions = map[types.ActionName]actionHandler{
		types.ActionProposeOffer: d.proposeOffer,
		types.ActionDismiss:      d.transition,
		types.ActionAccept:       d.transition,
		types.ActionDecline:      d.transition,
		types.ActionReopen:       d.transition,
	}
	d.commands = map[string]commandHandler{
		CommandStart: d.openStartForm,
		CommandPanel: d.refreshPanel,
	}
	d.forms = map[model.FormKind]formHandler{
		model.FormStartCase: d.startCase,
		model.FormOffer:     d.submitOffer,
	}

	return d
}

// ErrUnknownEvent means no handler is registered for an inbound event
var ErrUnknownEvent = errors.New("unknown event")

// HasAction reports whether action has a handler
func (d *Dispatcher) HasAction(action types.ActionName) bool {
	_, ok := d.actions[action]
	return ok
}

// HandleAction runs the handler of a panel control. Failures the actor can
// act on are reported to them and not returned.
func (d *Dispatcher) HandleAction(ctx context.Context, ev *ActionEvent) error {
	handler, ok := d.actions[ev.Action]
	if !ok {
		return goerr.Wrap(ErrUnknownEvent, "no handler for action", goerr.V(model.ActionKey, ev.Action))
	}

	ctx = logging.With(ctx, logging.From(ctx).With("action", ev.Action, "case_id", ev.CaseID, "actor", ev.ActorID))
	if err := handler(ctx, ev); err != nil {
		return d.report(ctx, failure{
			err:       err,
			action:    ev.Action,
			caseID:    ev.CaseID,
			actorID:   ev.ActorID,
			channelID: ev.ChannelID,
		})
	}
	return nil
}

// HandleCommand runs the handler of a slash command
func (d *Dispatcher) HandleCommand(ctx context.Context, ev *CommandEvent) error {
	handler, ok := d.commands[ev.Command]
	if !ok {
		return goerr.Wrap(ErrUnknownEvent, "no handler for command", goerr.V("command", ev.Command))
	}

	ctx = logging.With(ctx, logging.From(ctx).With("command", ev.Command, "actor", ev.ActorID))
	if err := handler(ctx, ev); err != nil {
		return d.report(ctx, failure{
			err:       err,
			caseID:    commandCaseID(ev),
			actorID:   ev.ActorID,
			channelID: ev.ChannelID,
		})
	}
	return nil
}

// CheckForm validates a form submission and returns messages per field ID.
// An empty result means the submission can be accepted.
func (d *Dispatcher) CheckForm(ev *FormEvent) map[string]string {
	var err error
	switch ev.Kind {
	case model.FormStartCase:
		err = ev.Start.Validate()
	case model.FormOffer:
		_, err = ev.Offer.Parse(ev.ActorID, d.cases.now())
	}
	return fieldErrors(err)
}

// HandleForm runs the handler of a submitted form
func (d *Dispatcher) HandleForm(ctx context.Context, ev *FormEvent) error {
	handler, ok := d.forms[ev.Kind]
	if !ok {
		return goerr.Wrap(ErrUnknownEvent, "no handler for form", goerr.V("form", ev.Kind))
	}

	ctx = logging.With(ctx, logging.From(ctx).With("form", ev.Kind, "actor", ev.ActorID))
	if err := handler(ctx, ev); err != nil {
		f := failure{err: err, caseID: ev.CaseID, actorID: ev.ActorID}
		if ev.Kind == model.FormOffer {
			f.action = types.ActionSubmitOffer
		} else {
			f.channelID = ev.Start.ChannelID
		}
		return d.report(ctx, f)
	}
	return nil
}

func (d *Dispatcher) proposeOffer(ctx context.Context, ev *ActionEvent) error {
	return d.cases.ProposeOffer(ctx, ev.CaseID, ev.ActorID, ev.TriggerID)
}

func (d *Dispatcher) transition(ctx context.Context, ev *ActionEvent) error {
	_, err := d.cases.Transition(ctx, ev.CaseID, ev.ActorID, ev.Action)
	return err
}

func (d *Dispatcher) openStartForm(ctx context.Context, ev *CommandEvent) error {
	return d.cases.OpenStartForm(ctx, ev.ChannelID, ev.TriggerID)
}

func (d *Dispatcher) refreshPanel(ctx context.Context, ev *CommandEvent) error {
	_, err := d.cases.RefreshPanel(ctx, commandCaseID(ev), ev.ActorID)
	return err
}

func commandCaseID(ev *CommandEvent) model.CaseID {
	if ev.Command != CommandPanel {
		return ""
	}
	return model.CaseID(strings.ToUpper(strings.TrimSpace(ev.Text)))
}

func (d *Dispatcher) startCase(ctx context.Context, ev *FormEvent) error {
	c, err := d.cases.StartCase(ctx, ev.Start)
	if c == nil {
		return err
	}
	ev.CaseID = c.ID

	if err != nil {
		// the case is stored; report into its thread and still take the snapshot
		if reportErr := d.report(ctx, failure{
			err:       err,
			caseID:    c.ID,
			actorID:   ev.ActorID,
			channelID: ev.Start.ChannelID,
		}); reportErr != nil {
			_ = errutil.Handle(ctx, reportErr, "failed to report case start failure")
		}
	}
	return d.cases.RunFinanceSnapshot(ctx, c.ID)
}

func (d *Dispatcher) submitOffer(ctx context.Context, ev *FormEvent) error {
	_, err := d.cases.SubmitOffer(ctx, ev.CaseID, ev.ActorID, ev.Offer)
	return err
}

type failure struct {
	err       error
	action    types.ActionName
	caseID    model.CaseID
	actorID   string
	channelID string
}

// report converts a handler failure into a message. Errors caused by the
// actor become ephemeral messages, gateway failures a message in the case
// thread. Anything else is returned.
func (d *Dispatcher) report(ctx context.Context, f failure) error {
	logger := logging.From(ctx)

	switch {
	case errors.Is(f.err, model.ErrNotAuthorized),
		errors.Is(f.err, model.ErrInvalidTransition),
		errors.Is(f.err, model.ErrValidation),
		errors.Is(f.err, ErrCaseNotFound):
		logger.Info("event rejected", "error", f.err.Error())
		return d.notifyActor(ctx, f, d.rejectionText(ctx, f))

	case errors.Is(f.err, ErrGateway):
		_ = errutil.Handle(ctx, f.err, "messaging gateway failed")
		c, err := d.cases.GetCase(ctx, f.caseID)
		if err != nil {
			return f.err
		}
		text := fmt.Sprintf(":x: Slack request failed for case `%s`: `%s`", c.ID, f.err.Error())
		if _, err := d.gateway.PostMessage(ctx, c.ChannelID, c.ThreadTS, text, nil); err != nil {
			return goerr.Wrap(err, "failed to report gateway failure", goerr.V(CaseIDKey, c.ID))
		}
		return nil
	}

	return f.err
}

func (d *Dispatcher) notifyActor(ctx context.Context, f failure, text string) error {
	channelID := f.channelID
	if channelID == "" && f.caseID != "" {
		if c, err := d.cases.GetCase(ctx, f.caseID); err == nil {
			channelID = c.ChannelID
		}
	}
	if channelID == "" || f.actorID == "" {
		logging.From(ctx).Warn("no channel to notify actor", "text", text)
		return nil
	}

	if err := d.gateway.PostEphemeral(ctx, channelID, f.actorID, text); err != nil {
		return goerr.Wrap(err, "failed to post ephemeral message",
			goerr.V(CaseIDKey, f.caseID), goerr.V(ActorIDKey, f.actorID))
	}
	return nil
}

func (d *Dispatcher) rejectionText(ctx context.Context, f failure) string {
	switch {
	case errors.Is(f.err, ErrCaseNotFound):
		if f.caseID == "" {
			return "You have no open churn prevention case. Pass a case ID to pick one."
		}
		return fmt.Sprintf("Case `%s` was not found.", f.caseID)

	case errors.Is(f.err, model.ErrNotAuthorized):
		role, _ := model.RequiredRoleOf(f.err)
		if role == types.RoleApprover.String() {
			approver := "the finance approver"
			if c, err := d.cases.GetCase(ctx, f.caseID); err == nil {
				approver = fmt.Sprintf("<@%s>", c.ApproverID)
			}
			verb := "propose"
			if f.action == types.ActionSubmitOffer {
				verb = "submit"
			}
			return fmt.Sprintf("Only %s can %s offers for case `%s`.", approver, verb, f.caseID)
		}
		switch f.action {
		case types.ActionDismiss:
			return "Only the initiator can dismiss this case."
		case types.ActionReopen:
			return "Only the initiator can reopen this case."
		default:
			return "Only the initiator can close this case."
		}

	case errors.Is(f.err, model.ErrValidation):
		for _, msg := range fieldErrors(f.err) {
			return msg
		}
		return "The submitted form is invalid."

	default:
		status := "unknown"
		if c, err := d.cases.GetCase(ctx, f.caseID); err == nil {
			status = c.Status.String()
		}
		return fmt.Sprintf("This action is not available for case `%s` in status *%s*.", f.caseID, status)
	}
}

var fieldMessages = map[string]string{
	model.OfferFieldType:        "Choose an offer type.",
	model.OfferFieldDetails:     "Describe the offer.",
	model.OfferFieldExpiry:      "Use the YYYY-MM-DD format.",
	model.StartFieldAdAccount:   "Enter the ad account ID.",
	model.StartFieldStakeholder: "Choose the stakeholder.",
	model.StartFieldApprover:    "Choose the finance approver.",
}

func fieldErrors(err error) map[string]string {
	result := map[string]string{}
	if err == nil {
		return result
	}

	field, ok := model.InvalidFieldOf(err)
	if !ok {
		return result
	}
	msg, ok := fieldMessages[field]
	if !ok {
		msg = "Invalid value."
	}
	result[field] = msg
	return result
}
