package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CasesCollection is the collection name of cases without prefix
const CasesCollection = "cases"

type caseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCaseRepository(client *firestore.Client) *caseRepository {
	return &caseRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *caseRepository) casesCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_" + CasesCollection
	}
	return CasesCollection
}

func (r *caseRepository) doc(id model.CaseID) *firestore.DocumentRef {
	return r.client.Collection(r.casesCollection()).Doc(id.String())
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	now := time.Now().UTC()
	created := c.Clone()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now

	if _, err := r.doc(created.ID).Create(ctx, created); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(interfaces.ErrConflict, "case already exists", goerr.V("id", created.ID))
		}
		return nil, goerr.Wrap(err, "failed to create case", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *caseRepository) Get(ctx context.Context, id model.CaseID) (*model.Case, error) {
	docSnap, err := r.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V("id", id))
	}

	var c model.Case
	if err := docSnap.DataTo(&c); err != nil {
		return nil, goerr.Wrap(err, "failed to decode case", goerr.V("id", id))
	}

	return &c, nil
}

func (r *caseRepository) Update(ctx context.Context, id model.CaseID, fn interfaces.CaseUpdateFunc) (*model.Case, error) {
	docRef := r.doc(id)

	var updated *model.Case
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get case", goerr.V("id", id))
		}

		var existing model.Case
		if err := docSnap.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to decode case", goerr.V("id", id))
		}

		// fn may run again when the transaction is retried
		candidate := existing.Clone()
		if err := fn(candidate); err != nil {
			return err
		}

		if existing.PanelMessageTS != "" && candidate.PanelMessageTS != existing.PanelMessageTS {
			return goerr.Wrap(interfaces.ErrConflict, "panel message is already set",
				goerr.V("id", id),
				goerr.V("panel_ts", existing.PanelMessageTS))
		}

		candidate.ID = existing.ID
		candidate.CreatedAt = existing.CreatedAt
		candidate.UpdatedAt = time.Now().UTC()

		if err := tx.Set(docRef, candidate); err != nil {
			return goerr.Wrap(err, "failed to update case", goerr.V("id", id))
		}
		updated = candidate
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "case update transaction failed", goerr.V("id", id))
	}

	return updated, nil
}

func (r *caseRepository) LatestOpenByInitiator(ctx context.Context, initiatorID string) (*model.Case, error) {
	iter := r.client.Collection(r.casesCollection()).
		Where("InitiatorID", "==", initiatorID).
		Where("Status", "==", types.CaseStatusOpen.String()).
		OrderBy("CreatedAt", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query latest open case", goerr.V("initiator_id", initiatorID))
	}

	var c model.Case
	if err := docSnap.DataTo(&c); err != nil {
		return nil, goerr.Wrap(err, "failed to decode case", goerr.V("doc_id", docSnap.Ref.ID))
	}

	return &c, nil
}
