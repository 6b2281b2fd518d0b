package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/domain/types"
)

// DateLayout is the format of offer expiry and report window dates
const DateLayout = "2006-01-02"

// Transition is a request by an actor to move a case
type Transition struct {
	Action  types.ActionName
	ActorID string

	// Offer is required for ActionSubmitOffer and ignored otherwise
	Offer *Offer

	// ReopenPolicy is used by ActionReopen. Empty means retain.
	ReopenPolicy types.ReopenPolicy
}

// RequiredRole returns the only role allowed to perform action
func RequiredRole(action types.ActionName) types.Role {
	switch action {
	case types.ActionProposeOffer, types.ActionSubmitOffer:
		return types.RoleApprover
	default:
		return types.RoleInitiator
	}
}

// CheckTransition verifies that actorID may perform action on c in its
// current state. Authorization is checked before the precondition.
func CheckTransition(c *Case, actorID string, action types.ActionName) error {
	if !action.IsValid() {
		return goerr.Wrap(ErrInvalidTransition, "unknown action",
			goerr.V(CaseIDKey, c.ID), goerr.V(ActionKey, action))
	}

	role := RequiredRole(action)
	if actorID == "" || c.UserOf(role) != actorID {
		return goerr.Wrap(ErrNotAuthorized, "actor does not hold the required role",
			goerr.V(CaseIDKey, c.ID),
			goerr.V(ActorIDKey, actorID),
			goerr.V(ActionKey, action),
			goerr.V(RequiredRoleKey, role))
	}

	var ok bool
	switch action {
	case types.ActionProposeOffer, types.ActionSubmitOffer:
		ok = c.Status == types.CaseStatusOpen && c.Offer == nil
	case types.ActionDismiss:
		ok = c.Status == types.CaseStatusOpen
	case types.ActionAccept, types.ActionDecline:
		ok = c.Status == types.CaseStatusOpen && c.Offer != nil
	case types.ActionReopen:
		ok = c.Status.IsTerminal()
	}
	if !ok {
		return goerr.Wrap(ErrInvalidTransition, "transition is not allowed in current state",
			goerr.V(CaseIDKey, c.ID),
			goerr.V(ActionKey, action),
			goerr.V(StatusKey, c.Status),
			goerr.V("has_offer", c.Offer != nil))
	}
	return nil
}

// ApplyTransition checks t against c and applies its effect to c. On error c
// is left untouched.
func ApplyTransition(c *Case, t Transition, now time.Time) error {
	if err := CheckTransition(c, t.ActorID, t.Action); err != nil {
		return err
	}

	switch t.Action {
	case types.ActionProposeOffer:
		// opening the form does not change the case
		return nil

	case types.ActionSubmitOffer:
		if t.Offer == nil {
			return goerr.Wrap(ErrValidation, "offer is required", goerr.V(CaseIDKey, c.ID))
		}
		offer := *t.Offer
		c.Offer = &offer

	case types.ActionDismiss:
		c.Status = types.CaseStatusDismissed

	case types.ActionAccept:
		c.Status = types.CaseStatusAccepted

	case types.ActionDecline:
		c.Status = types.CaseStatusDeclined

	case types.ActionReopen:
		c.Status = types.CaseStatusOpen
		switch t.ReopenPolicy {
		case types.ReopenClearOffer:
			c.Offer = nil
		case types.ReopenClearAll:
			c.Offer = nil
			c.KPI = nil
		}
	}

	c.UpdatedAt = now
	return nil
}

// OfferInput is the raw content of the offer form
type OfferInput struct {
	Type    string
	Details string
	Expiry  string
	Notes   string
}

// Offer form field names, used to attach validation errors to form inputs
const (
	OfferFieldType    = "offer_type"
	OfferFieldDetails = "details"
	OfferFieldExpiry  = "expiry"
)

// Parse validates the input and builds an Offer proposed by actorID
func (in OfferInput) Parse(actorID string, now time.Time) (*Offer, error) {
	offerType, err := types.ParseOfferType(strings.TrimSpace(in.Type))
	if err != nil {
		return nil, goerr.Wrap(ErrValidation, "choose an offer type",
			goerr.V(FieldKey, OfferFieldType), goerr.V("input", in.Type))
	}

	details := strings.TrimSpace(in.Details)
	if details == "" {
		return nil, goerr.Wrap(ErrValidation, "offer details are required",
			goerr.V(FieldKey, OfferFieldDetails))
	}

	expiry, err := time.Parse(DateLayout, strings.TrimSpace(in.Expiry))
	if err != nil {
		return nil, goerr.Wrap(ErrValidation, "expiry must be a YYYY-MM-DD date",
			goerr.V(FieldKey, OfferFieldExpiry), goerr.V("input", in.Expiry))
	}

	return &Offer{
		Type:       offerType,
		Details:    details,
		Expiry:     expiry,
		Notes:      strings.TrimSpace(in.Notes),
		ProposedBy: actorID,
		ProposedAt: now,
	}, nil
}

// StartInput is the raw content of the case start form
type StartInput struct {
	ChannelID     string
	InitiatorID   string
	AdAccountID   string
	AccountName   string
	StakeholderID string
	ApproverID    string
}

// Start form field names
const (
	StartFieldAdAccount   = "ad_account_id"
	StartFieldStakeholder = "stakeholder"
	StartFieldApprover    = "approver"
)

// Validate checks the start input before any case is created
func (in StartInput) Validate() error {
	if strings.TrimSpace(in.AdAccountID) == "" {
		return goerr.Wrap(ErrValidation, "ad account ID is required",
			goerr.V(FieldKey, StartFieldAdAccount))
	}
	if in.StakeholderID == "" {
		return goerr.Wrap(ErrValidation, "stakeholder is required",
			goerr.V(FieldKey, StartFieldStakeholder))
	}
	if in.ApproverID == "" {
		return goerr.Wrap(ErrValidation, "finance approver is required",
			goerr.V(FieldKey, StartFieldApprover))
	}
	if in.ChannelID == "" || in.InitiatorID == "" {
		return goerr.Wrap(ErrValidation, "channel and initiator are required")
	}
	return nil
}

// NewCase builds an OPEN case from validated start input
func NewCase(in StartInput, threadTS string, now time.Time) *Case {
	return &Case{
		ID:            NewCaseID(),
		Status:        types.CaseStatusOpen,
		ChannelID:     in.ChannelID,
		ThreadTS:      threadTS,
		InitiatorID:   in.InitiatorID,
		ApproverID:    in.ApproverID,
		StakeholderID: in.StakeholderID,
		AdAccountID:   strings.TrimSpace(in.AdAccountID),
		AccountName:   strings.TrimSpace(in.AccountName),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
