package awswaf

import (
	"context"

	"iprangesync/internal/netsum"
)

// MockClient is a mock implementation of Client for tests.
type MockClient struct {
	ListIPSetsFunc   func(ctx context.Context, scope string) (map[string]IPSet, error)
	GetAddressesFunc func(ctx context.Context, scope string, set IPSet) ([]string, error)
	CreateIPSetFunc  func(ctx context.Context, scope, name string, family netsum.Family, addresses []string, description string, tags []Tag) error
	UpdateIPSetFunc  func(ctx context.Context, scope string, set IPSet, addresses []string) error
	TagResourceFunc  func(ctx context.Context, arn string, tags []Tag) error
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) ListIPSets(ctx context.Context, scope string) (map[string]IPSet, error) {
	return m.ListIPSetsFunc(ctx, scope)
}

func (m *MockClient) GetAddresses(ctx context.Context, scope string, set IPSet) ([]string, error) {
	return m.GetAddressesFunc(ctx, scope, set)
}

func (m *MockClient) CreateIPSet(ctx context.Context, scope, name string, family netsum.Family, addresses []string, description string, tags []Tag) error {
	return m.CreateIPSetFunc(ctx, scope, name, family, addresses, description, tags)
}

func (m *MockClient) UpdateIPSet(ctx context.Context, scope string, set IPSet, addresses []string) error {
	return m.UpdateIPSetFunc(ctx, scope, set, addresses)
}

func (m *MockClient) TagResource(ctx context.Context, arn string, tags []Tag) error {
	if m.TagResourceFunc == nil {
		return nil
	}
	return m.TagResourceFunc(ctx, arn, tags)
}
