//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are run via `go run` / `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools:
//
// mockgen - regenerates internal/mocks (see internal/mocks/generate.go)
//   Run: go generate ./internal/mocks
//   Version: go.uber.org/mock v0.6.0
//
// Air - Live reload for Go apps (pairs with DEV=true template reloading)
//   Install: go install github.com/air-verse/air@v1.63.0
//   Docs: https://github.com/air-verse/air
