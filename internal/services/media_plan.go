package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kalyonekenobe/funders-sub000/internal/models"
)

var (
	mediaUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_uploads_total",
		Help: "Media object uploads dispatched after commit, by outcome.",
	}, []string{"outcome"})

	mediaDeletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_deletes_total",
		Help: "Media object deletions dispatched after commit, by outcome.",
	}, []string{"outcome"})
)

// UploadItem pairs an allocated descriptor with the still-unsent bytes.
type UploadItem struct {
	Descriptor  models.ObjectDescriptor
	ContentType string
	Data        []byte
}

// UploadPlan is the ordered set of objects an operation must push to the
// remote store once its relational transaction has committed.
type UploadPlan []UploadItem

// DeletionItem references a previously committed object that lost its last
// relational reference.
type DeletionItem struct {
	ObjectKey string
	MediaType models.MediaType
}

// DeletionPlan is the set of stale objects an operation reclaims once its
// relational transaction has committed.
type DeletionPlan []DeletionItem

// MediaExecutor runs upload and deletion plans against the media store as
// fire-and-forget background work. Callers dispatch only after observing a
// successful commit; the dispatched work is never awaited by request
// handling. Failures are logged and counted, not retried and not surfaced —
// a durable outbox drained by a reconciliation worker would be the stronger
// alternative if that ever stops being acceptable.
type MediaExecutor struct {
	store   MediaStore
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewMediaExecutor(store MediaStore) *MediaExecutor {
	return &MediaExecutor{
		store:   store,
		timeout: 2 * time.Minute,
	}
}

// Dispatch spawns one goroutine per plan item. Items are independent keys,
// so they run concurrently with no shared state. Returns immediately.
func (e *MediaExecutor) Dispatch(uploads UploadPlan, deletions DeletionPlan) {
	for _, item := range uploads {
		e.wg.Add(1)
		go func(item UploadItem) {
			defer e.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
			defer cancel()

			d := item.Descriptor
			if err := e.store.Put(ctx, d.ObjectKey, d.MediaType, item.ContentType, item.Data); err != nil {
				// The referencing row is already committed; the key now
				// dangles until the object is re-uploaded out of band.
				log.Printf("Media upload failed for %s (%s): %v", d.ObjectKey, d.MediaType, err)
				mediaUploadsTotal.WithLabelValues("failure").Inc()
				return
			}
			mediaUploadsTotal.WithLabelValues("success").Inc()
		}(item)
	}

	for _, item := range deletions {
		e.wg.Add(1)
		go func(item DeletionItem) {
			defer e.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
			defer cancel()

			if err := e.store.Delete(ctx, item.ObjectKey, item.MediaType); err != nil {
				// The object is orphaned: bytes remain with no referencing row
				log.Printf("Media delete failed for %s (%s): %v", item.ObjectKey, item.MediaType, err)
				mediaDeletesTotal.WithLabelValues("failure").Inc()
				return
			}
			mediaDeletesTotal.WithLabelValues("success").Inc()
		}(item)
	}
}

// Wait blocks until all dispatched work has finished. Used for graceful
// shutdown and by tests; request paths never call it.
func (e *MediaExecutor) Wait() {
	e.wg.Wait()
}
