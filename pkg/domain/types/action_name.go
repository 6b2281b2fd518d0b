package types

// ActionName identifies a case transition. The values double as Slack
// action IDs for the panel buttons.
type ActionName string

const (
	ActionProposeOffer ActionName = "cp_propose_offer"
	ActionSubmitOffer  ActionName = "cp_submit_offer"
	ActionDismiss      ActionName = "cp_dismiss_case"
	ActionAccept       ActionName = "cp_offer_accepted"
	ActionDecline      ActionName = "cp_offer_declined"
	ActionReopen       ActionName = "cp_reopen_case"
)

// AllActionNames returns every transition
func AllActionNames() []ActionName {
	return []ActionName{
		ActionProposeOffer,
		ActionSubmitOffer,
		ActionDismiss,
		ActionAccept,
		ActionDecline,
		ActionReopen,
	}
}

// IsValid checks if the action name is a known transition
func (a ActionName) IsValid() bool {
	switch a {
	case ActionProposeOffer, ActionSubmitOffer, ActionDismiss, ActionAccept, ActionDecline, ActionReopen:
		return true
	default:
		return false
	}
}

func (a ActionName) String() string {
	return string(a)
}
