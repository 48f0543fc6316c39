package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockCommandExecutor is a testify mock for env.CommandExecutor.
type MockCommandExecutor struct {
	mock.Mock
}

func (m *MockCommandExecutor) LookPath(file string) (string, error) {
	args := m.Called(file)
	return args.String(0), args.Error(1)
}

func (m *MockCommandExecutor) Output(name string, cmdArgs ...string) (string, error) {
	args := m.Called(name, cmdArgs)
	return args.String(0), args.Error(1)
}
