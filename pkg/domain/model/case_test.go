package model_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/domain/types"
)

func newOpenCase() *model.Case {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &model.Case{
		ID:            "A1B2C3",
		Status:        types.CaseStatusOpen,
		ChannelID:     "C001",
		ThreadTS:      "1700000000.000100",
		InitiatorID:   "U1",
		ApproverID:    "U2",
		StakeholderID: "U3",
		AdAccountID:   "acc-1",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func newOffer() *model.Offer {
	return &model.Offer{
		Type:       types.OfferTypeDiscount,
		Details:    "10% off",
		Expiry:     time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
		ProposedBy: "U2",
		ProposedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewCaseID(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-F]{6}$`)
	seen := map[model.CaseID]struct{}{}
	for range 100 {
		id := model.NewCaseID()
		gt.Bool(t, pattern.MatchString(id.String())).True()
		seen[id] = struct{}{}
	}
	// 100 draws from 16^6 values practically never collide
	gt.Number(t, len(seen)).Greater(95)
}

func TestCase_RoleOf(t *testing.T) {
	c := newOpenCase()

	role, ok := c.RoleOf("U1")
	gt.Bool(t, ok).True()
	gt.Value(t, role).Equal(types.RoleInitiator)

	role, ok = c.RoleOf("U2")
	gt.Bool(t, ok).True()
	gt.Value(t, role).Equal(types.RoleApprover)

	role, ok = c.RoleOf("U3")
	gt.Bool(t, ok).True()
	gt.Value(t, role).Equal(types.RoleStakeholder)

	_, ok = c.RoleOf("U9")
	gt.Bool(t, ok).False()

	_, ok = c.RoleOf("")
	gt.Bool(t, ok).False()
}

func TestCase_Clone(t *testing.T) {
	c := newOpenCase()
	c.Offer = newOffer()
	c.KPI = &model.KPISnapshot{Impressions: 10}

	cp := c.Clone()
	cp.Offer.Details = "changed"
	cp.KPI.Impressions = 20
	cp.Status = types.CaseStatusDismissed

	gt.Value(t, c.Offer.Details).Equal("10% off")
	gt.Value(t, c.KPI.Impressions).Equal(int64(10))
	gt.Value(t, c.Status).Equal(types.CaseStatusOpen)

	var nilCase *model.Case
	gt.Value(t, nilCase.Clone()).Nil()
}
