package model

import (
	"fmt"
	"strings"

	"github.com/secmon-lab/retainer/pkg/domain/types"
)

// OfferDetailsLimit is the number of runes of offer details shown in the panel
const OfferDetailsLimit = 120

// ControlStyle is the visual emphasis of a panel control
type ControlStyle string

const (
	ControlStyleDefault ControlStyle = ""
	ControlStylePrimary ControlStyle = "primary"
	ControlStyleDanger  ControlStyle = "danger"
)

// Control is an action button of the panel
type Control struct {
	Action types.ActionName
	Label  string
	Style  ControlStyle
	CaseID CaseID
}

// Panel is the rendered state of a case as seen by one viewer
type Panel struct {
	CaseID       CaseID
	HeaderText   string
	FinanceBlock string
	OfferBlock   string
	StatusLine   string
	Controls     []Control
}

// RenderPanel maps the case state and the viewer to a panel. It has no side
// effects and the same input always renders the same panel.
func RenderPanel(c *Case, viewerID string) *Panel {
	return &Panel{
		CaseID:       c.ID,
		HeaderText:   renderHeader(c),
		FinanceBlock: renderFinance(c.KPI),
		OfferBlock:   renderOffer(c.Offer),
		StatusLine:   fmt.Sprintf("*Status*: *%s*  •  %s", c.Status, NextStep(c)),
		Controls:     renderControls(c, viewerID),
	}
}

// NextStep describes who has to act next on the case
func NextStep(c *Case) string {
	switch {
	case c.Status != types.CaseStatusOpen:
		return "Case is closed."
	case c.Offer == nil:
		return fmt.Sprintf("Next: <@%s> proposes the special offer.", c.ApproverID)
	default:
		return fmt.Sprintf("Next: <@%s> holds the meeting and closes the case.", c.InitiatorID)
	}
}

func renderHeader(c *Case) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *Churn Prevention Case* `%s`\n", c.Status.Emoji(), c.ID)
	fmt.Fprintf(&b, "*Ad account*: `%s`", c.AdAccountID)
	if c.AccountName != "" {
		fmt.Fprintf(&b, " (%s)", c.AccountName)
	}
	fmt.Fprintf(&b, "\n*Initiator*: <@%s>   •   *Approver*: <@%s>   •   *Stakeholder*: <@%s>",
		c.InitiatorID, c.ApproverID, c.StakeholderID)
	return b.String()
}

func renderFinance(kpi *KPISnapshot) string {
	if kpi == nil {
		return "*Finance snapshot*\n_Generating / not available yet._"
	}
	return fmt.Sprintf("*Finance snapshot (%s)*\n"+
		"Spend: *%s*  •  Impressions: *%s*  •  Streamed impressions: *%s*\n"+
		"Clicks: *%s*  •  CTR: *%s*  •  E-CPCL: *%s*",
		kpi.DateRangeLabel,
		FormatMoney(kpi.Currency, kpi.Spend),
		FormatInt(kpi.Impressions),
		FormatInt(kpi.StreamedImpressions),
		FormatInt(kpi.Clicks),
		FormatPercent(kpi.CTR),
		FormatMoney(kpi.Currency, kpi.ECPCL),
	)
}

func renderOffer(offer *Offer) string {
	if offer == nil {
		return "*Offer*\n_No offer proposed yet._"
	}
	return fmt.Sprintf("*Offer*\n*%s* — %s\n_Expires_: %s",
		offer.Type,
		Truncate(offer.Details, OfferDetailsLimit),
		offer.Expiry.Format(DateLayout),
	)
}

func renderControls(c *Case, viewerID string) []Control {
	controls := []Control{}
	if viewerID == "" {
		return controls
	}

	add := func(action types.ActionName, label string, style ControlStyle) {
		controls = append(controls, Control{Action: action, Label: label, Style: style, CaseID: c.ID})
	}

	isInitiator := viewerID == c.InitiatorID
	isApprover := viewerID == c.ApproverID

	switch {
	case c.Status == types.CaseStatusOpen && c.Offer == nil:
		if isApprover {
			add(types.ActionProposeOffer, "Propose offer", ControlStylePrimary)
		}
		if isInitiator {
			add(types.ActionDismiss, "Dismiss case", ControlStyleDanger)
		}
	case c.Status == types.CaseStatusOpen:
		if isInitiator {
			add(types.ActionAccept, "Offer accepted", ControlStylePrimary)
			add(types.ActionDecline, "Offer declined", ControlStyleDanger)
			add(types.ActionDismiss, "Dismiss case", ControlStyleDanger)
		}
	default:
		if isInitiator {
			add(types.ActionReopen, "Reopen case", ControlStyleDefault)
		}
	}
	return controls
}

// PanelAudience returns the user the shared panel message is rendered for:
// the participant who has to act next.
func PanelAudience(c *Case) string {
	if c.Status == types.CaseStatusOpen && c.Offer == nil {
		return c.ApproverID
	}
	return c.InitiatorID
}
