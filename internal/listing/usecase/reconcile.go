package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/metrics"
)

// ImageReconciler removes stored images that no listing references.
// Objects younger than the grace period are kept so uploads of in-flight creates survive.
type ImageReconciler struct {
	listings domain.ListingRepository
	storage  domain.ObjectStorage
	metrics  *metrics.MetricsManager
	grace    time.Duration
	pageSize int
	now      func() time.Time
	logger   *logger.Logger
}

func NewImageReconciler(deps Dependencies, grace time.Duration) *ImageReconciler {
	return &ImageReconciler{
		listings: deps.Listings,
		storage:  deps.Storage,
		metrics:  deps.Metrics,
		grace:    grace,
		pageSize: storagePageSize,
		now:      deps.clock(),
		logger:   deps.named("ImageReconciler"),
	}
}

// Sweep runs one reconciliation pass and returns how many objects it removed.
func (r *ImageReconciler) Sweep(ctx context.Context) (int, error) {
	urls, err := r.listings.ImageURLs(ctx)
	if err != nil {
		return 0, providerError("list image references", err)
	}
	referenced := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if key, ok := r.storage.KeyFromURL(u); ok {
			referenced[key] = struct{}{}
		}
	}

	cutoff := r.now().Add(-r.grace)
	removed := 0
	startAfter := ""
	for {
		objs, err := r.storage.List(ctx, "", domain.ListOptions{Limit: r.pageSize, StartAfter: startAfter})
		if err != nil {
			return removed, providerError("list stored objects", err)
		}

		var orphans []string
		for _, o := range objs {
			if _, ok := referenced[o.Key]; ok {
				continue
			}
			if o.LastModified.After(cutoff) {
				continue
			}
			orphans = append(orphans, o.Key)
		}
		if len(orphans) > 0 {
			if err := r.storage.Remove(ctx, orphans); err != nil {
				return removed, providerError("remove orphaned objects", err)
			}
			removed += len(orphans)
		}

		if len(objs) < r.pageSize {
			break
		}
		startAfter = objs[len(objs)-1].Key
	}

	r.metrics.OrphanImagesRemoved(removed)
	r.logger.Info("Image sweep finished", zap.Int("removed", removed), zap.Int("referenced", len(referenced)))
	return removed, nil
}
