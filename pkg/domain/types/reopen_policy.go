package types

import "fmt"

// ReopenPolicy decides what a reopen keeps from the closed case
type ReopenPolicy string

const (
	// ReopenRetain only flips the status back to OPEN.
	ReopenRetain ReopenPolicy = "retain"
	// ReopenClearOffer drops the judged offer so a new one can be proposed.
	ReopenClearOffer ReopenPolicy = "clear-offer"
	// ReopenClearAll drops the offer and the KPI snapshot.
	ReopenClearAll ReopenPolicy = "clear-all"
)

func (p ReopenPolicy) IsValid() bool {
	switch p {
	case ReopenRetain, ReopenClearOffer, ReopenClearAll:
		return true
	default:
		return false
	}
}

func (p ReopenPolicy) String() string {
	return string(p)
}

// ParseReopenPolicy parses a string into a ReopenPolicy. Empty means retain.
func ParseReopenPolicy(s string) (ReopenPolicy, error) {
	if s == "" {
		return ReopenRetain, nil
	}
	p := ReopenPolicy(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid reopen policy: %s", s)
	}
	return p, nil
}
