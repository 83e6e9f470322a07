package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/audience-gateway/internal/ports"
)

var _ ports.HealthRegistry = (*MockHealthRegistry)(nil)

// MockHealthRegistry is a mock of ports.HealthRegistry.
type MockHealthRegistry struct {
	mock.Mock
}

// NewMockHealthRegistry creates a mock whose expectations are asserted when
// the test finishes.
func NewMockHealthRegistry(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockHealthRegistry {
	m := &MockHealthRegistry{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Register provides a mock function.
func (m *MockHealthRegistry) Register(checker ports.HealthChecker) error {
	return m.Called(checker).Error(0)
}

// CheckAll provides a mock function.
func (m *MockHealthRegistry) CheckAll(ctx context.Context) *ports.HealthResult {
	result, _ := m.Called(ctx).Get(0).(*ports.HealthResult)
	return result
}
