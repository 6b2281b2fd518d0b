package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/retainer/pkg/domain/types"
)

// CaseID is a short identifier of a case, 6 upper case hex characters
type CaseID string

// NewCaseID generates a new random CaseID
func NewCaseID() CaseID {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return CaseID(strings.ToUpper(hex[:6]))
}

func (id CaseID) String() string {
	return string(id)
}

// Case represents a churn prevention case of one ad account
type Case struct {
	ID     CaseID
	Status types.CaseStatus

	// Slack location of the case. ThreadTS is the root message of the thread.
	ChannelID string
	ThreadTS  string

	// PanelMessageTS is empty until the panel is posted for the first time
	PanelMessageTS string

	InitiatorID   string
	ApproverID    string
	StakeholderID string

	AdAccountID string
	AccountName string

	Offer *Offer
	KPI   *KPISnapshot

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Offer is the retention offer proposed by the approver
type Offer struct {
	Type       types.OfferType
	Details    string
	Expiry     time.Time
	Notes      string
	ProposedBy string
	ProposedAt time.Time
}

// KPISnapshot is the aggregated finance figures of the reporting window
type KPISnapshot struct {
	Impressions         int64
	StreamedImpressions int64
	Clicks              int64
	Spend               float64
	CTR                 float64
	ECPCL               float64
	DateRangeLabel      string
	Currency            string
}

// RoleOf returns the role userID holds on the case
func (c *Case) RoleOf(userID string) (types.Role, bool) {
	switch userID {
	case "":
		return "", false
	case c.InitiatorID:
		return types.RoleInitiator, true
	case c.ApproverID:
		return types.RoleApprover, true
	case c.StakeholderID:
		return types.RoleStakeholder, true
	default:
		return "", false
	}
}

// UserOf returns the user ID holding role on the case
func (c *Case) UserOf(role types.Role) string {
	switch role {
	case types.RoleInitiator:
		return c.InitiatorID
	case types.RoleApprover:
		return c.ApproverID
	case types.RoleStakeholder:
		return c.StakeholderID
	default:
		return ""
	}
}

// Clone returns a deep copy of the case
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Offer != nil {
		offer := *c.Offer
		cp.Offer = &offer
	}
	if c.KPI != nil {
		kpi := *c.KPI
		cp.KPI = &kpi
	}
	return &cp
}
