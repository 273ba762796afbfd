package awsec2

import (
	"context"

	"iprangesync/internal/netsum"
)

// MockClient is a mock implementation of Client for tests.
type MockClient struct {
	ListPrefixListsFunc  func(ctx context.Context) (map[string]PrefixList, error)
	GetPrefixListFunc    func(ctx context.Context, id string) (PrefixList, error)
	GetEntriesFunc       func(ctx context.Context, id string, version int64) ([]Entry, error)
	CreatePrefixListFunc func(ctx context.Context, name string, family netsum.Family, maxEntries int32, entries []Entry, tags []Tag) (PrefixList, error)
	ModifyEntriesFunc    func(ctx context.Context, id string, version int64, name string, add []Entry, remove []string) (PrefixList, error)
	ResizeFunc           func(ctx context.Context, id, name string, maxEntries int32) (PrefixList, error)
	CreateTagsFunc       func(ctx context.Context, id string, tags []Tag) error
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) ListPrefixLists(ctx context.Context) (map[string]PrefixList, error) {
	return m.ListPrefixListsFunc(ctx)
}

func (m *MockClient) GetPrefixList(ctx context.Context, id string) (PrefixList, error) {
	return m.GetPrefixListFunc(ctx, id)
}

func (m *MockClient) GetEntries(ctx context.Context, id string, version int64) ([]Entry, error) {
	return m.GetEntriesFunc(ctx, id, version)
}

func (m *MockClient) CreatePrefixList(ctx context.Context, name string, family netsum.Family, maxEntries int32, entries []Entry, tags []Tag) (PrefixList, error) {
	return m.CreatePrefixListFunc(ctx, name, family, maxEntries, entries, tags)
}

func (m *MockClient) ModifyEntries(ctx context.Context, id string, version int64, name string, add []Entry, remove []string) (PrefixList, error) {
	return m.ModifyEntriesFunc(ctx, id, version, name, add, remove)
}

func (m *MockClient) Resize(ctx context.Context, id, name string, maxEntries int32) (PrefixList, error) {
	return m.ResizeFunc(ctx, id, name, maxEntries)
}

func (m *MockClient) CreateTags(ctx context.Context, id string, tags []Tag) error {
	if m.CreateTagsFunc == nil {
		return nil
	}
	return m.CreateTagsFunc(ctx, id, tags)
}
