package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"

	"github.com/warungpos/warungpos/internal/model"
	"github.com/warungpos/warungpos/internal/remote"
	"github.com/warungpos/warungpos/internal/store"
)

var tracer = otel.Tracer("internal/sync")

// Orchestrator runs the three-phase reconciliation pass: upload pending
// product changes, upload pending sales, then download and merge products.
//
// Uploading local intents before downloading keeps the download phase from
// clobbering a local edit with stale remote data.
type Orchestrator struct {
	logger     *slog.Logger
	local      *store.Store
	remote     remote.Store
	online     func() bool
	reconciler *Reconciler
	retention  time.Duration

	// group collapses overlapping FullSync calls into one run. The sale
	// header insert is not idempotent, so two concurrent passes over the
	// same unsynced sale would create duplicate remote rows without this.
	group singleflight.Group

	mu       sync.Mutex
	lastSync time.Time
}

// NewOrchestrator creates a sync orchestrator. online reports current
// connectivity; retention bounds how long confirmed journal entries are kept.
func NewOrchestrator(
	logger *slog.Logger,
	local *store.Store,
	remoteStore remote.Store,
	online func() bool,
	policy ConflictPolicy,
	retention time.Duration,
) *Orchestrator {
	return &Orchestrator{
		logger:     logger.With(slog.String("service", "sync")),
		local:      local,
		remote:     remoteStore,
		online:     online,
		reconciler: NewReconciler(policy, local),
		retention:  retention,
	}
}

// FullSync runs one reconciliation pass. Calls that arrive while a pass is
// in flight join it and share its result. When the terminal is offline this
// is a no-op: zero remote calls, nothing mutated.
func (o *Orchestrator) FullSync(ctx context.Context) error {
	_, err, _ := o.group.Do("full_sync", func() (any, error) {
		return nil, o.fullSync(ctx)
	})
	return err
}

func (o *Orchestrator) fullSync(ctx context.Context) error {
	if !o.online() {
		o.logger.DebugContext(ctx, "skipping sync: offline")
		return nil
	}

	ctx, span := tracer.Start(ctx, "Orchestrator.FullSync")
	defer span.End()

	o.logger.InfoContext(ctx, "starting full sync")

	o.uploadChanges(ctx)
	o.uploadSales(ctx)

	if err := o.downloadProducts(ctx); err != nil {
		return fmt.Errorf("download products: %w", err)
	}

	o.mu.Lock()
	o.lastSync = time.Now().UTC()
	o.mu.Unlock()

	cutoff := time.Now().UTC().Add(-o.retention)
	pruned, err := o.local.PruneSynced(ctx, cutoff)
	if err != nil {
		o.logger.WarnContext(ctx, "pruning synced journal entries failed", slog.Any("error", err))
	} else if pruned > 0 {
		o.logger.InfoContext(ctx, "pruned synced journal entries", slog.Int64("count", pruned))
	}

	o.logger.InfoContext(ctx, "full sync completed")
	return nil
}

// uploadChanges drains the change journal. A failed record is logged and
// left unsynced for the next pass; it never aborts the batch. Product
// uploads are upserts keyed by barcode, so retries are harmless.
func (o *Orchestrator) uploadChanges(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "Orchestrator.uploadChanges")
	defer span.End()

	changes, err := o.local.ListUnsyncedChanges(ctx)
	if err != nil {
		o.logger.ErrorContext(ctx, "listing unsynced changes failed", slog.Any("error", err))
		return
	}
	if len(changes) == 0 {
		return
	}

	o.logger.InfoContext(ctx, "uploading pending product changes", slog.Int("count", len(changes)))

	for _, change := range changes {
		var err error
		switch change.Action {
		case model.ActionDelete:
			snap := change.ProductData
			deletedAt := snap.UpdatedAt
			if snap.DeletedAt != nil {
				deletedAt = *snap.DeletedAt
			}
			err = o.remote.SoftDeleteProduct(ctx, change.Barcode, deletedAt, snap.UpdatedAt)
		default:
			err = o.remote.UpsertProduct(ctx, change.ProductData)
		}
		if err != nil {
			o.logger.WarnContext(ctx, "uploading product change failed",
				slog.Int64("change_id", change.ID),
				slog.String("barcode", change.Barcode),
				slog.String("action", string(change.Action)),
				slog.Any("error", err),
			)
			continue
		}

		if err := o.local.MarkChangeSynced(ctx, change.ID); err != nil {
			o.logger.ErrorContext(ctx, "marking change synced failed",
				slog.Int64("change_id", change.ID), slog.Any("error", err))
		}
	}
}

// uploadSales drains the sale journal. The header insert and the line-item
// insert are separate remote calls: a header failure leaves the sale
// unsynced for retry, but once the header exists the sale is marked synced
// even if the line items fail. Line items are best effort.
func (o *Orchestrator) uploadSales(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "Orchestrator.uploadSales")
	defer span.End()

	sales, err := o.local.ListUnsyncedSales(ctx)
	if err != nil {
		o.logger.ErrorContext(ctx, "listing unsynced sales failed", slog.Any("error", err))
		return
	}
	if len(sales) == 0 {
		return
	}

	o.logger.InfoContext(ctx, "uploading pending sales", slog.Int("count", len(sales)))

	for _, sale := range sales {
		saleID, err := o.remote.InsertSale(ctx, sale.TotalAmount, sale.PaidAt)
		if err != nil {
			o.logger.WarnContext(ctx, "uploading sale failed",
				slog.String("local_sale_id", sale.LocalSaleID),
				slog.Any("error", err),
			)
			continue
		}

		if err := o.remote.InsertSaleItems(ctx, saleID, sale.Items); err != nil {
			o.logger.WarnContext(ctx, "uploading sale items failed, sale header already inserted",
				slog.String("local_sale_id", sale.LocalSaleID),
				slog.Int64("sale_id", saleID),
				slog.Any("error", err),
			)
		}

		if err := o.local.MarkSaleSynced(ctx, sale.LocalSaleID); err != nil {
			o.logger.ErrorContext(ctx, "marking sale synced failed",
				slog.String("local_sale_id", sale.LocalSaleID), slog.Any("error", err))
		}
	}
}

// downloadProducts fetches all remote products and merges each through the
// reconciler. A failed merge is logged and skipped.
func (o *Orchestrator) downloadProducts(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Orchestrator.downloadProducts")
	defer span.End()

	products, err := o.remote.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("list remote products: %w", err)
	}

	var adopted int
	for _, p := range products {
		ok, err := o.reconciler.Merge(ctx, p)
		if err != nil {
			o.logger.WarnContext(ctx, "merging remote product failed",
				slog.String("barcode", p.Barcode), slog.Any("error", err))
			continue
		}
		if ok {
			adopted++
		}
	}

	o.logger.InfoContext(ctx, "merged remote products",
		slog.Int("total", len(products)), slog.Int("adopted", adopted))
	return nil
}

// Status describes the current sync state for the dashboard.
type Status struct {
	Online         bool      `json:"online"`
	LastSyncAt     time.Time `json:"last_sync_at"`
	PendingChanges int64     `json:"pending_changes"`
	PendingSales   int64     `json:"pending_sales"`
}

// Status reports connectivity, the last completed pass, and journal depth.
func (o *Orchestrator) Status(ctx context.Context) (Status, error) {
	changes, sales, err := o.local.CountUnsynced(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("count unsynced: %w", err)
	}

	o.mu.Lock()
	lastSync := o.lastSync
	o.mu.Unlock()

	return Status{
		Online:         o.online(),
		LastSyncAt:     lastSync,
		PendingChanges: changes,
		PendingSales:   sales,
	}, nil
}
