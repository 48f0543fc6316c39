package setup

import (
	"amm101ctl/pkg/deployments"

	"github.com/stretchr/testify/mock"
)

// mockSaver is a local testify mock of Saver that also keeps a copy of
// every record it was asked to save.
type mockSaver struct {
	mock.Mock
	saved []deployments.Record
}

func (m *mockSaver) Save(rec *deployments.Record) error {
	m.saved = append(m.saved, *rec)
	return m.Called(rec).Error(0)
}
