package memory

import (
	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process repository used for tests and local runs
type Memory struct {
	entry *entryRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		entry: newEntryRepository(),
	}
}

func (m *Memory) Entry() interfaces.EntryRepository {
	return m.entry
}

func (m *Memory) Close() error {
	return nil
}
