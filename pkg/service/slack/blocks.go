package slack

import (
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/slack-go/slack"
)

const (
	// PanelActionsBlockID is the block ID of the panel buttons
	PanelActionsBlockID = "cp_panel_actions"

	// InputActionID is the action ID of every form input element. Inputs are
	// told apart by their block ID, which is the form field ID.
	InputActionID = "value"
)

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, false, false)
}

// PanelBlocks converts a rendered panel into Block Kit blocks
func PanelBlocks(p *model.Panel) []slack.Block {
	blocks := []slack.Block{
		slack.NewSectionBlock(markdown(p.HeaderText), nil, nil),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(markdown(p.FinanceBlock), nil, nil),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(markdown(p.OfferBlock), nil, nil),
		slack.NewContextBlock("", markdown(p.StatusLine)),
	}

	if len(p.Controls) == 0 {
		return blocks
	}

	buttons := make([]slack.BlockElement, 0, len(p.Controls))
	for _, ctrl := range p.Controls {
		btn := slack.NewButtonBlockElement(ctrl.Action.String(), ctrl.CaseID.String(), plain(ctrl.Label))
		switch ctrl.Style {
		case model.ControlStylePrimary:
			btn.Style = slack.StylePrimary
		case model.ControlStyleDanger:
			btn.Style = slack.StyleDanger
		}
		buttons = append(buttons, btn)
	}
	return append(blocks, slack.NewActionBlock(PanelActionsBlockID, buttons...))
}

// FormView converts a form into a modal view request
func FormView(f *model.Form) slack.ModalViewRequest {
	blocks := make([]slack.Block, 0, len(f.Fields))
	for _, field := range f.Fields {
		input := slack.NewInputBlock(field.ID, plain(field.Label), nil, formElement(field))
		input.Optional = field.Optional
		blocks = append(blocks, input)
	}

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      string(f.Kind),
		PrivateMetadata: f.Metadata,
		Title:           plain(f.Title),
		Submit:          plain(f.Submit),
		Close:           plain(f.Close),
		Blocks:          slack.Blocks{BlockSet: blocks},
	}
}

func formElement(field model.FormField) slack.BlockElement {
	switch field.Kind {
	case model.FormFieldUserSelect:
		return slack.NewOptionsSelectBlockElement(slack.OptTypeUser, plain("Select a user"), InputActionID)

	case model.FormFieldStaticSelect:
		options := make([]*slack.OptionBlockObject, 0, len(field.Options))
		for _, opt := range field.Options {
			options = append(options, slack.NewOptionBlockObject(opt.Value, plain(opt.Label), nil))
		}
		return slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, plain("Choose"), InputActionID, options...)

	default:
		input := slack.NewPlainTextInputBlockElement(nil, InputActionID)
		input.Multiline = field.Kind == model.FormFieldMultiline
		input.InitialValue = field.InitialValue
		return input
	}
}

// FormValues flattens a submitted view state into field ID to value
func FormValues(state *slack.ViewState) map[string]string {
	values := map[string]string{}
	if state == nil {
		return values
	}

	for blockID, actions := range state.Values {
		action, ok := actions[InputActionID]
		if !ok {
			continue
		}
		switch {
		case action.SelectedUser != "":
			values[blockID] = action.SelectedUser
		case action.SelectedOption.Value != "":
			values[blockID] = action.SelectedOption.Value
		default:
			values[blockID] = action.Value
		}
	}
	return values
}

// StartInputFromView reads the start form submission of userID
func StartInputFromView(view slack.View, userID string) model.StartInput {
	values := FormValues(view.State)
	return model.StartInput{
		ChannelID:     view.PrivateMetadata,
		InitiatorID:   userID,
		AdAccountID:   values[model.StartFieldAdAccount],
		AccountName:   values[model.StartFieldAccountName],
		StakeholderID: values[model.StartFieldStakeholder],
		ApproverID:    values[model.StartFieldApprover],
	}
}

// OfferInputFromView reads the offer form submission
func OfferInputFromView(view slack.View) (model.CaseID, model.OfferInput) {
	values := FormValues(view.State)
	return model.CaseID(view.PrivateMetadata), model.OfferInput{
		Type:    values[model.OfferFieldType],
		Details: values[model.OfferFieldDetails],
		Expiry:  values[model.OfferFieldExpiry],
		Notes:   values[model.OfferFieldNotes],
	}
}
