package model

import (
	"time"

	"github.com/secmon-lab/retainer/pkg/domain/types"
)

// FormKind identifies a form. The values are used as Slack modal callback IDs.
type FormKind string

const (
	FormStartCase FormKind = "churn_start_modal"
	FormOffer     FormKind = "churn_offer_modal"
)

// FormFieldKind is the input widget of a form field
type FormFieldKind string

const (
	FormFieldText         FormFieldKind = "text"
	FormFieldMultiline    FormFieldKind = "multiline"
	FormFieldUserSelect   FormFieldKind = "user_select"
	FormFieldStaticSelect FormFieldKind = "static_select"
)

// OfferFieldNotes is the optional internal notes field of the offer form
const OfferFieldNotes = "internal_notes"

// StartFieldAccountName is the optional account name field of the start form
const StartFieldAccountName = "account_name"

// Form describes a modal form independent of the chat platform
type Form struct {
	Kind   FormKind
	Title  string
	Submit string
	Close  string

	// Metadata is carried back with the submission: the channel ID for the
	// start form, the case ID for the offer form.
	Metadata string
	Fields   []FormField
}

// FormField is one input of a form
type FormField struct {
	ID           string
	Label        string
	Kind         FormFieldKind
	Optional     bool
	InitialValue string
	Options      []FormOption
}

// FormOption is a choice of a select field
type FormOption struct {
	Value string
	Label string
}

// NewStartForm builds the form opened by the start command in channelID
func NewStartForm(channelID string) *Form {
	return &Form{
		Kind:     FormStartCase,
		Title:    "Start Churn Case",
		Submit:   "Start",
		Close:    "Cancel",
		Metadata: channelID,
		Fields: []FormField{
			{ID: StartFieldAdAccount, Label: "Ad Account ID", Kind: FormFieldText},
			{ID: StartFieldAccountName, Label: "Account Name (optional)", Kind: FormFieldText, Optional: true},
			{ID: StartFieldStakeholder, Label: "Stakeholder (Slack user)", Kind: FormFieldUserSelect},
			{ID: StartFieldApprover, Label: "Finance approver (proposes offer)", Kind: FormFieldUserSelect},
		},
	}
}

// NewOfferForm builds the offer form of caseID. The expiry defaults to
// expiryDays after now.
func NewOfferForm(caseID CaseID, now time.Time, expiryDays int) *Form {
	options := make([]FormOption, 0, len(types.AllOfferTypes()))
	for _, t := range types.AllOfferTypes() {
		options = append(options, FormOption{Value: t.String(), Label: t.Label()})
	}

	return &Form{
		Kind:     FormOffer,
		Title:    "Propose Offer",
		Submit:   "Send",
		Close:    "Cancel",
		Metadata: caseID.String(),
		Fields: []FormField{
			{ID: OfferFieldType, Label: "Offer type", Kind: FormFieldStaticSelect, Options: options},
			{ID: OfferFieldDetails, Label: "Offer details", Kind: FormFieldMultiline},
			{
				ID:           OfferFieldExpiry,
				Label:        "Offer expiry (YYYY-MM-DD)",
				Kind:         FormFieldText,
				InitialValue: now.AddDate(0, 0, expiryDays).Format(DateLayout),
			},
			{ID: OfferFieldNotes, Label: "Internal notes (optional)", Kind: FormFieldMultiline, Optional: true},
		},
	}
}
