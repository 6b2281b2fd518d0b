package interfaces

import (
	"context"

	"github.com/secmon-lab/retainer/pkg/domain/model"
)

// CaseUpdateFunc mutates a case inside a store transaction. Returning an
// error aborts the update and leaves the stored case unchanged.
type CaseUpdateFunc func(c *model.Case) error

// CaseRepository defines the interface for Case data access
type CaseRepository interface {
	// Create stores a new case. Returns ErrConflict if the ID is taken.
	Create(ctx context.Context, c *model.Case) (*model.Case, error)

	// Get retrieves a case by ID. Returns ErrNotFound if there is no such case.
	Get(ctx context.Context, id model.CaseID) (*model.Case, error)

	// Update reads the case, applies fn and writes it back atomically.
	// PanelMessageTS can be set once and never changed afterwards; an
	// attempt to change it fails with ErrConflict.
	Update(ctx context.Context, id model.CaseID, fn CaseUpdateFunc) (*model.Case, error)

	// LatestOpenByInitiator returns the most recently created OPEN case
	// started by initiatorID. Returns nil, nil if there is none.
	LatestOpenByInitiator(ctx context.Context, initiatorID string) (*model.Case, error)
}
