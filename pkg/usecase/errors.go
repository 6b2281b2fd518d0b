package usecase

import (
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
	"github.com/secmon-lab/retainer/pkg/domain/model"
)

// Sentinel errors for use case layer
var (
	ErrCaseNotFound = errors.New("case not found")

	// ErrGateway means a call to the chat platform failed
	ErrGateway = errors.New("messaging gateway failed")

	// ErrNotConfigured means a required dependency was not injected
	ErrNotConfigured = errors.New("not configured")
)

// Context keys for error values
const (
	CaseIDKey  = model.CaseIDKey
	ActorIDKey = model.ActorIDKey
)

func gatewayError(err error, msg string, id model.CaseID) error {
	return goerr.Wrap(fmt.Errorf("%w: %w", ErrGateway, err), msg, goerr.V(CaseIDKey, id))
}

func caseLookupError(err error, id model.CaseID) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return goerr.Wrap(ErrCaseNotFound, "case does not exist", goerr.V(CaseIDKey, id))
	}
	return goerr.Wrap(err, "failed to get case", goerr.V(CaseIDKey, id))
}
