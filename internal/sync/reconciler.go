// Package sync implements the three-phase reconciliation pass between the
// local store and the remote store, plus the debounced trigger scheduler.
package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/warungpos/warungpos/internal/model"
	"github.com/warungpos/warungpos/internal/store"
)

// ConflictPolicy selects the merge rule applied per product during download.
// Only last-writer-wins is implemented; the tag exists so an alternative
// (field-level merge, vector clocks) can be substituted without touching the
// orchestrator.
type ConflictPolicy int

const (
	// LastWriterWins adopts the record with the later updated_at timestamp,
	// replacing the whole row. The losing edit is discarded entirely.
	LastWriterWins ConflictPolicy = iota
)

// String returns the string representation of the policy.
func (p ConflictPolicy) String() string {
	switch p {
	case LastWriterWins:
		return "last-writer-wins"
	default:
		return "unknown"
	}
}

// Reconciler merges one remote product record into the local store.
type Reconciler struct {
	policy ConflictPolicy
	local  *store.Store
}

// NewReconciler creates a reconciler with the given policy.
func NewReconciler(policy ConflictPolicy, local *store.Store) *Reconciler {
	return &Reconciler{policy: policy, local: local}
}

// Merge applies the conflict rule for one remote record and reports whether
// the local row was replaced.
//
// The rule, in order:
//  1. Any unsynced pending change for the barcode wins unconditionally;
//     downloads never overwrite a local intent that has not been confirmed.
//  2. A barcode absent locally is adopted as-is.
//  3. A remote record strictly newer than the local one (or a local record
//     with no timestamp) replaces the whole local row.
//  4. Otherwise the local row is left untouched.
func (r *Reconciler) Merge(ctx context.Context, remote model.Product) (bool, error) {
	pending, err := r.local.HasUnsyncedChange(ctx, remote.Barcode)
	if err != nil {
		return false, fmt.Errorf("check pending change: %w", err)
	}
	if pending {
		return false, nil
	}

	local, err := r.local.GetProduct(ctx, remote.Barcode)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// adopt
	case err != nil:
		return false, fmt.Errorf("get local product: %w", err)
	default:
		if !local.UpdatedAt.IsZero() && !remote.UpdatedAt.After(local.UpdatedAt) {
			return false, nil
		}
	}

	if err := r.local.PutProduct(ctx, remote); err != nil {
		return false, fmt.Errorf("adopt remote product: %w", err)
	}

	return true, nil
}
