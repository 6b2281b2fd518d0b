package memory

import (
	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory keeps cases in process memory. Records are lost on restart.
type Memory struct {
	caseRepo *caseRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		caseRepo: newCaseRepository(),
	}
}

func (m *Memory) Case() interfaces.CaseRepository {
	return m.caseRepo
}

func (m *Memory) Close() error {
	return nil
}
