//go:build tools

package tools

// This file tracks the CLI tools the repository relies on.
// It is not compiled into the binary.
//
// - github.com/matryer/moq generates the *_mock_test.go files (see the
//   go:generate lines next to each service's tests)
// - github.com/pressly/goose/v3/cmd/goose is declared as a go.mod tool
