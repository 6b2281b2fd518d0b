package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/domain/types"
)

type caseRepository struct {
	mu    sync.RWMutex
	cases map[model.CaseID]*model.Case
}

func newCaseRepository() *caseRepository {
	return &caseRepository{
		cases: make(map[model.CaseID]*model.Case),
	}
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cases[c.ID]; exists {
		return nil, goerr.Wrap(interfaces.ErrConflict, "case already exists", goerr.V("id", c.ID))
	}

	now := time.Now().UTC()
	created := c.Clone()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now

	r.cases[created.ID] = created
	return created.Clone(), nil
}

func (r *caseRepository) Get(ctx context.Context, id model.CaseID) (*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.cases[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
	}

	return c.Clone(), nil
}

func (r *caseRepository) Update(ctx context.Context, id model.CaseID, fn interfaces.CaseUpdateFunc) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.cases[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
	}

	updated := existing.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}

	if existing.PanelMessageTS != "" && updated.PanelMessageTS != existing.PanelMessageTS {
		return nil, goerr.Wrap(interfaces.ErrConflict, "panel message is already set",
			goerr.V("id", id),
			goerr.V("panel_ts", existing.PanelMessageTS))
	}

	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.cases[id] = updated
	return updated.Clone(), nil
}

func (r *caseRepository) LatestOpenByInitiator(ctx context.Context, initiatorID string) (*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *model.Case
	for _, c := range r.cases {
		if c.InitiatorID != initiatorID || c.Status != types.CaseStatusOpen {
			continue
		}
		if latest == nil ||
			c.CreatedAt.After(latest.CreatedAt) ||
			(c.CreatedAt.Equal(latest.CreatedAt) && c.ID > latest.ID) {
			latest = c
		}
	}

	if latest == nil {
		return nil, nil
	}
	return latest.Clone(), nil
}
