// Package testutil holds shared helpers for unit and integration tests.
package testutil

import (
	"io"
	"log/slog"
)

// DiscardLogger returns an slog.Logger that writes to io.Discard.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
