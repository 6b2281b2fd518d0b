package types

// Role is one of the three fixed participants of a case
type Role string

const (
	RoleInitiator   Role = "initiator"
	RoleApprover    Role = "approver"
	RoleStakeholder Role = "stakeholder"
)

func (r Role) String() string {
	return string(r)
}
