// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"

	"github.com/scoutfm/scoutfm/internal/services"
)

// MockCatalog is a configurable test double for [services.Catalog].
//
// Pages maps search offsets to result pages; Details maps playlist ids to
// detail objects. The zero value returns empty pages and fails detail lookups.
type MockCatalog struct {
	TokenErr error
	Pages    map[int]*services.PlaylistPage
	Details  map[string]*services.PlaylistDetail
}

func (m *MockCatalog) Token(ctx context.Context) (string, error) {
	if m.TokenErr != nil {
		return "", m.TokenErr
	}
	return "mock-token", nil
}

func (m *MockCatalog) SearchPlaylists(ctx context.Context, query, token string, limit, offset int) (*services.PlaylistPage, error) {
	if page, ok := m.Pages[offset]; ok {
		return page, nil
	}
	return &services.PlaylistPage{}, nil
}

func (m *MockCatalog) PlaylistDetail(ctx context.Context, id, token string) (*services.PlaylistDetail, error) {
	if detail, ok := m.Details[id]; ok {
		return detail, nil
	}
	return nil, errors.New("playlist not found")
}

func (m *MockCatalog) Name() string { return "mock" }

// MockDiscovery is a test double for [services.Discovery] returning a fixed
// link list for every query.
type MockDiscovery struct {
	Links []string
}

func (m *MockDiscovery) Search(ctx context.Context, query string) []string {
	return m.Links
}

func (m *MockDiscovery) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
