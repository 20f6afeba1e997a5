// Package runid centralizes the two small formatting concerns every
// persisted record needs: a unique run identifier and a human-readable
// timestamp, so archrun, diagnostics, and report agree on both.
package runid

import (
	"time"

	"github.com/google/uuid"
	"github.com/ncruces/go-strftime"
)

// New returns a fresh run identifier.
func New() string {
	return uuid.NewString()
}

// FormatTime renders t the way diagnostic lines and persisted timestamps
// are rendered throughout this module.
func FormatTime(t time.Time) string {
	return strftime.Format("%Y-%m-%d %H:%M:%S", t)
}
