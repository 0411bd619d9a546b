// Package mocks provides mock implementations for testing the route guard.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the storage port.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockKeyValueStore(ctrl)
//	store.EXPECT().GetMany(gomock.Any(), gomock.Any()).Return(map[string]string{}, nil)
package mocks

// Generate mock for KeyValueStore interface from internal/ports package.
// This creates MockKeyValueStore with methods for all KeyValueStore interface methods:
// GetMany, SetMany, DeleteMany
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=kv_store_mock.go github.com/target/mmk-routeguard/internal/ports KeyValueStore
