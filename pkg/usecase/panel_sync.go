package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/utils/logging"
)

// PanelSync keeps the single panel message of a case in line with the case.
// The message is posted once into the case thread and edited afterwards.
// Callers serialize Sync per case.
type PanelSync struct {
	repo    interfaces.Repository
	gateway interfaces.MessagingGateway
}

func NewPanelSync(repo interfaces.Repository, gateway interfaces.MessagingGateway) *PanelSync {
	return &PanelSync{
		repo:    repo,
		gateway: gateway,
	}
}

// Sync renders c for viewerID and writes it to the panel message. note is
// the notification text of the message. It returns the case as stored after
// the sync, which carries the panel message timestamp.
func (s *PanelSync) Sync(ctx context.Context, c *model.Case, viewerID, note string) (*model.Case, error) {
	if s.gateway == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "messaging gateway is not set")
	}

	panel := model.RenderPanel(c, viewerID)
	text := note
	if text == "" {
		text = fmt.Sprintf("Case `%s`", c.ID)
	}

	if c.PanelMessageTS != "" {
		if err := s.gateway.UpdateMessage(ctx, c.ChannelID, c.PanelMessageTS, text, panel); err != nil {
			return nil, gatewayError(err, "failed to update panel message", c.ID)
		}
		return c, nil
	}

	ts, err := s.gateway.PostMessage(ctx, c.ChannelID, c.ThreadTS, text, panel)
	if err != nil {
		return nil, gatewayError(err, "failed to post panel message", c.ID)
	}

	updated, err := s.repo.Case().Update(ctx, c.ID, func(cur *model.Case) error {
		cur.PanelMessageTS = ts
		return nil
	})
	if errors.Is(err, interfaces.ErrConflict) {
		// another instance posted the panel first; keep its message
		winner, getErr := s.repo.Case().Get(ctx, c.ID)
		if getErr != nil {
			return nil, caseLookupError(getErr, c.ID)
		}
		logging.From(ctx).Warn("panel already posted by another writer",
			"case_id", c.ID, "panel_ts", winner.PanelMessageTS, "orphan_ts", ts)
		return s.Sync(ctx, winner, viewerID, note)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save panel message timestamp",
			goerr.V(CaseIDKey, c.ID), goerr.V("panel_ts", ts))
	}

	logging.From(ctx).Debug("panel posted", "case_id", c.ID, "panel_ts", ts)
	return updated, nil
}

// ShowControls posts a private copy of the panel rendered for userID when the
// shared panel is rendered for someone else and userID has controls on it.
func (s *PanelSync) ShowControls(ctx context.Context, c *model.Case, userID string) error {
	if s.gateway == nil {
		return goerr.Wrap(ErrNotConfigured, "messaging gateway is not set")
	}
	if userID == "" || userID == model.PanelAudience(c) {
		return nil
	}

	panel := model.RenderPanel(c, userID)
	if len(panel.Controls) == 0 {
		return nil
	}

	text := fmt.Sprintf("Your controls for case `%s`", c.ID)
	if err := s.gateway.PostEphemeralPanel(ctx, c.ChannelID, c.ThreadTS, userID, text, panel); err != nil {
		return gatewayError(err, "failed to post private panel", c.ID)
	}
	logging.From(ctx).Debug("private panel posted", "case_id", c.ID, "user", userID)
	return nil
}
