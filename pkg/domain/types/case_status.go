package types

import "fmt"

// CaseStatus represents the status of a churn prevention case
type CaseStatus string

const (
	CaseStatusOpen      CaseStatus = "OPEN"
	CaseStatusAccepted  CaseStatus = "ACCEPTED"
	CaseStatusDeclined  CaseStatus = "DECLINED"
	CaseStatusDismissed CaseStatus = "DISMISSED"
)

// AllCaseStatuses returns all valid case statuses
func AllCaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusOpen,
		CaseStatusAccepted,
		CaseStatusDeclined,
		CaseStatusDismissed,
	}
}

// IsValid checks if the case status is valid
func (s CaseStatus) IsValid() bool {
	switch s {
	case CaseStatusOpen,
		CaseStatusAccepted,
		CaseStatusDeclined,
		CaseStatusDismissed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status only allows a reopen.
func (s CaseStatus) IsTerminal() bool {
	switch s {
	case CaseStatusAccepted, CaseStatusDeclined, CaseStatusDismissed:
		return true
	default:
		return false
	}
}

// Emoji returns the Slack emoji shown next to the status
func (s CaseStatus) Emoji() string {
	switch s {
	case CaseStatusOpen:
		return ":rotating_light:"
	case CaseStatusAccepted:
		return ":white_check_mark:"
	case CaseStatusDeclined:
		return ":no_entry_sign:"
	case CaseStatusDismissed:
		return ":wastebasket:"
	default:
		return ":grey_question:"
	}
}

// String returns the string representation of the case status
func (s CaseStatus) String() string {
	return string(s)
}

// ParseCaseStatus parses a string into a CaseStatus
func ParseCaseStatus(s string) (CaseStatus, error) {
	status := CaseStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid case status: %s", s)
	}
	return status, nil
}
