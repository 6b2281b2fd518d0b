package slack_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/domain/types"
	"github.com/secmon-lab/retainer/pkg/service/slack"
	goslack "github.com/slack-go/slack"
)

func TestPanelBlocks(t *testing.T) {
	c := &model.Case{
		ID:            "A1B2C3",
		Status:        types.CaseStatusOpen,
		InitiatorID:   "U1",
		ApproverID:    "U2",
		StakeholderID: "U3",
		AdAccountID:   "acc-1",
		Offer: &model.Offer{
			Type:    types.OfferTypeCredits,
			Details: "500 credits",
			Expiry:  time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	t.Run("initiator sees three buttons", func(t *testing.T) {
		blocks := slack.PanelBlocks(model.RenderPanel(c, "U1"))
		gt.Array(t, blocks).Length(7)

		actions, ok := blocks[6].(*goslack.ActionBlock)
		gt.Bool(t, ok).True()
		gt.Value(t, actions.BlockID).Equal(slack.PanelActionsBlockID)
		gt.Array(t, actions.Elements.ElementSet).Length(3)

		accept := actions.Elements.ElementSet[0].(*goslack.ButtonBlockElement)
		gt.Value(t, accept.ActionID).Equal("cp_offer_accepted")
		gt.Value(t, accept.Value).Equal("A1B2C3")
		gt.Value(t, accept.Style).Equal(goslack.StylePrimary)

		decline := actions.Elements.ElementSet[1].(*goslack.ButtonBlockElement)
		gt.Value(t, decline.Style).Equal(goslack.StyleDanger)
	})

	t.Run("stakeholder sees no action block", func(t *testing.T) {
		blocks := slack.PanelBlocks(model.RenderPanel(c, "U3"))
		gt.Array(t, blocks).Length(6)
	})
}

func TestFormView(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	view := slack.FormView(model.NewOfferForm("A1B2C3", now, 14))

	gt.Value(t, view.CallbackID).Equal("churn_offer_modal")
	gt.Value(t, view.PrivateMetadata).Equal("A1B2C3")
	gt.Array(t, view.Blocks.BlockSet).Length(4)

	raw, err := json.Marshal(view)
	gt.NoError(t, err).Required()
	gt.String(t, string(raw)).Contains(`"static_select"`)
	gt.String(t, string(raw)).Contains(`"initial_value":"2026-03-15"`)
	gt.String(t, string(raw)).Contains(`"multiline":true`)

	notes := view.Blocks.BlockSet[3].(*goslack.InputBlock)
	gt.Bool(t, notes.Optional).True()
}

func TestFormValues(t *testing.T) {
	view := goslack.View{
		PrivateMetadata: "C001",
		State: &goslack.ViewState{
			Values: map[string]map[string]goslack.BlockAction{
				model.StartFieldAdAccount:   {slack.InputActionID: {Value: "acc-1"}},
				model.StartFieldAccountName: {slack.InputActionID: {Value: "Acme"}},
				model.StartFieldStakeholder: {slack.InputActionID: {SelectedUser: "U3"}},
				model.StartFieldApprover:    {slack.InputActionID: {SelectedUser: "U2"}},
			},
		},
	}

	in := slack.StartInputFromView(view, "U1")
	gt.Value(t, in).Equal(model.StartInput{
		ChannelID:     "C001",
		InitiatorID:   "U1",
		AdAccountID:   "acc-1",
		AccountName:   "Acme",
		StakeholderID: "U3",
		ApproverID:    "U2",
	})

	offerView := goslack.View{
		PrivateMetadata: "A1B2C3",
		State: &goslack.ViewState{
			Values: map[string]map[string]goslack.BlockAction{
				model.OfferFieldType:    {slack.InputActionID: {SelectedOption: goslack.OptionBlockObject{Value: "DISCOUNT"}}},
				model.OfferFieldDetails: {slack.InputActionID: {Value: "10% off"}},
				model.OfferFieldExpiry:  {slack.InputActionID: {Value: "2099-01-01"}},
			},
		},
	}
	caseID, offer := slack.OfferInputFromView(offerView)
	gt.Value(t, caseID).Equal(model.CaseID("A1B2C3"))
	gt.Value(t, offer.Type).Equal("DISCOUNT")
	gt.Value(t, offer.Notes).Equal("")
}
