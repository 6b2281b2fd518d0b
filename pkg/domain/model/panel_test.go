package model_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/domain/types"
)

func controlActions(p *model.Panel) []types.ActionName {
	actions := make([]types.ActionName, 0, len(p.Controls))
	for _, c := range p.Controls {
		actions = append(actions, c.Action)
	}
	return actions
}

func allCaseStates() []*model.Case {
	var cases []*model.Case
	for _, status := range types.AllCaseStatuses() {
		for _, hasOffer := range []bool{false, true} {
			for _, hasKPI := range []bool{false, true} {
				c := newOpenCase()
				c.Status = status
				if hasOffer {
					c.Offer = newOffer()
				}
				if hasKPI {
					c.KPI = &model.KPISnapshot{Impressions: 1000, Clicks: 5, Spend: 12.5}
				}
				cases = append(cases, c)
			}
		}
	}
	return cases
}

func TestRenderPanel_NonParticipantHasNoControls(t *testing.T) {
	for _, c := range allCaseStates() {
		for _, viewer := range []string{"U3", "U9", ""} {
			p := model.RenderPanel(c, viewer)
			gt.Array(t, p.Controls).Length(0)
		}
	}
}

func TestRenderPanel_Controls(t *testing.T) {
	withOffer := func(status types.CaseStatus) *model.Case {
		c := newOpenCase()
		c.Status = status
		c.Offer = newOffer()
		return c
	}
	withoutOffer := func(status types.CaseStatus) *model.Case {
		c := newOpenCase()
		c.Status = status
		return c
	}

	tests := []struct {
		name   string
		c      *model.Case
		viewer string
		want   []types.ActionName
	}{
		{
			name:   "open without offer, approver",
			c:      withoutOffer(types.CaseStatusOpen),
			viewer: "U2",
			want:   []types.ActionName{types.ActionProposeOffer},
		},
		{
			name:   "open without offer, initiator",
			c:      withoutOffer(types.CaseStatusOpen),
			viewer: "U1",
			want:   []types.ActionName{types.ActionDismiss},
		},
		{
			name:   "open with offer, initiator",
			c:      withOffer(types.CaseStatusOpen),
			viewer: "U1",
			want:   []types.ActionName{types.ActionAccept, types.ActionDecline, types.ActionDismiss},
		},
		{
			name:   "open with offer, approver",
			c:      withOffer(types.CaseStatusOpen),
			viewer: "U2",
			want:   []types.ActionName{},
		},
		{
			name:   "accepted, initiator",
			c:      withOffer(types.CaseStatusAccepted),
			viewer: "U1",
			want:   []types.ActionName{types.ActionReopen},
		},
		{
			name:   "dismissed, initiator",
			c:      withoutOffer(types.CaseStatusDismissed),
			viewer: "U1",
			want:   []types.ActionName{types.ActionReopen},
		},
		{
			name:   "declined, approver",
			c:      withOffer(types.CaseStatusDeclined),
			viewer: "U2",
			want:   []types.ActionName{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := model.RenderPanel(tt.c, tt.viewer)
			gt.Value(t, controlActions(p)).Equal(tt.want)
			for _, ctrl := range p.Controls {
				gt.Value(t, ctrl.CaseID).Equal(tt.c.ID)
			}
		})
	}
}

func TestRenderPanel_ControlLabelsAndStyles(t *testing.T) {
	c := newOpenCase()
	c.Offer = newOffer()

	p := model.RenderPanel(c, "U1")
	gt.Array(t, p.Controls).Length(3)
	gt.Value(t, p.Controls[0].Label).Equal("Offer accepted")
	gt.Value(t, p.Controls[0].Style).Equal(model.ControlStylePrimary)
	gt.Value(t, p.Controls[1].Label).Equal("Offer declined")
	gt.Value(t, p.Controls[1].Style).Equal(model.ControlStyleDanger)
	gt.Value(t, p.Controls[2].Label).Equal("Dismiss case")
	gt.Value(t, p.Controls[2].Style).Equal(model.ControlStyleDanger)
}

func TestRenderPanel_Deterministic(t *testing.T) {
	for _, c := range allCaseStates() {
		for _, viewer := range []string{"U1", "U2", "U3"} {
			gt.Value(t, model.RenderPanel(c, viewer)).Equal(model.RenderPanel(c, viewer))
		}
	}
}

func TestRenderPanel_Header(t *testing.T) {
	c := newOpenCase()
	c.AccountName = "Acme Radio"

	p := model.RenderPanel(c, "U1")
	gt.Value(t, p.CaseID).Equal(c.ID)
	gt.String(t, p.HeaderText).Contains(":rotating_light:")
	gt.String(t, p.HeaderText).Contains("`A1B2C3`")
	gt.String(t, p.HeaderText).Contains("`acc-1` (Acme Radio)")
	gt.String(t, p.HeaderText).Contains("<@U1>")
	gt.String(t, p.HeaderText).Contains("<@U2>")
	gt.String(t, p.HeaderText).Contains("<@U3>")

	seen := map[string]types.CaseStatus{}
	for _, status := range types.AllCaseStatuses() {
		c.Status = status
		header := model.RenderPanel(c, "U1").HeaderText
		icon := strings.SplitN(header, " ", 2)[0]
		_, dup := seen[icon]
		gt.Bool(t, dup).False()
		seen[icon] = status
	}
}

func TestRenderPanel_FinanceBlock(t *testing.T) {
	c := newOpenCase()
	gt.String(t, model.RenderPanel(c, "U1").FinanceBlock).Contains("not available yet")

	c.KPI = &model.KPISnapshot{
		Impressions:         1234567,
		StreamedImpressions: 1000000,
		Clicks:              6420,
		Spend:               9876.5,
		CTR:                 0.0052,
		ECPCL:               1.538,
		DateRangeLabel:      "2026-01-30 → 2026-02-28",
		Currency:            "EUR",
	}
	block := model.RenderPanel(c, "U1").FinanceBlock
	gt.String(t, block).Contains("2026-01-30 → 2026-02-28")
	gt.String(t, block).Contains("Spend: *EUR 9,876.50*")
	gt.String(t, block).Contains("Impressions: *1,234,567*")
	gt.String(t, block).Contains("Streamed impressions: *1,000,000*")
	gt.String(t, block).Contains("Clicks: *6,420*")
	gt.String(t, block).Contains("CTR: *0.52%*")
	gt.String(t, block).Contains("E-CPCL: *EUR 1.54*")
}

func TestRenderPanel_OfferBlock(t *testing.T) {
	c := newOpenCase()
	gt.String(t, model.RenderPanel(c, "U2").OfferBlock).Contains("_No offer proposed yet._")

	c.Offer = newOffer()
	block := model.RenderPanel(c, "U2").OfferBlock
	gt.String(t, block).Contains("*DISCOUNT* — 10% off")
	gt.String(t, block).Contains("_Expires_: 2099-01-01")
}

func TestRenderPanel_OfferDetailsTruncated(t *testing.T) {
	c := newOpenCase()
	c.Offer = newOffer()
	c.Offer.Details = strings.Repeat("x", 150)

	block := model.RenderPanel(c, "U1").OfferBlock
	lines := strings.Split(block, "\n")
	rendered := strings.TrimPrefix(lines[1], "*DISCOUNT* — ")

	gt.Value(t, utf8.RuneCountInString(rendered)).Equal(118)
	gt.Value(t, rendered).Equal(strings.Repeat("x", 117) + "…")
}

func TestRenderPanel_StatusLine(t *testing.T) {
	c := newOpenCase()
	gt.String(t, model.RenderPanel(c, "U1").StatusLine).Contains("Next: <@U2> proposes the special offer.")

	c.Offer = newOffer()
	gt.String(t, model.RenderPanel(c, "U1").StatusLine).Contains("Next: <@U1> holds the meeting and closes the case.")

	c.Status = types.CaseStatusAccepted
	line := model.RenderPanel(c, "U1").StatusLine
	gt.String(t, line).Contains("*ACCEPTED*")
	gt.String(t, line).Contains("Case is closed.")
}

func TestPanelAudience(t *testing.T) {
	c := newOpenCase()
	gt.Value(t, model.PanelAudience(c)).Equal("U2")

	c.Offer = newOffer()
	gt.Value(t, model.PanelAudience(c)).Equal("U1")

	c.Status = types.CaseStatusAccepted
	gt.Value(t, model.PanelAudience(c)).Equal("U1")
}
