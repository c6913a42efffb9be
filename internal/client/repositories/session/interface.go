// Package session persists the last-known authenticated session between
// process runs. The stored snapshot is a cache, not a credential: the
// backend's cookie session stays the authority and is reconciled on every
// startup.
package session

import (
	"context"

	"github.com/dmitrijs2005/bdocctl/internal/client/models"
)

// Snapshot is what survives a restart: the serialized Identity plus the
// backend session cookie the browser would otherwise carry implicitly.
type Snapshot struct {
	Identity *models.Identity
	Cookie   string
}

// Store is the durable slot for the session snapshot.
//
// Contract:
//   - Load returns (nil, nil) when nothing usable is stored; malformed or
//     partial stored data is discarded, never propagated as an error.
//   - Save overwrites the slot with the given snapshot.
//   - Clear empties the slot.
//
// No implementation performs network access.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Clear(ctx context.Context) error
}
