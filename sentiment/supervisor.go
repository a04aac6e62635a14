package sentiment

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"postvibe/models"
)

// PostStore is the persistence surface the supervisor writes through.
type PostStore interface {
	HasPost(ctx context.Context, id int64) (bool, error)
	CreatePost(ctx context.Context, post models.Post) error
}

// Supervisor owns the intake and output queues for one classification batch,
// runs the worker pool and hands the classified posts to the persister. The
// worker count is an explicit constructor parameter, never ambient state.
type Supervisor struct {
	workers    int
	classifier TextClassifier
	store      PostStore
}

func NewSupervisor(workers int, classifier TextClassifier, store PostStore) *Supervisor {
	if workers < 1 {
		workers = 1
	}
	return &Supervisor{
		workers:    workers,
		classifier: classifier,
		store:      store,
	}
}

// ClassifyAndPersist classifies every draft with the bounded worker pool and
// persists the results tagged with the search terms. A hard classification
// failure aborts the whole batch: nothing from it is persisted. There is no
// cancellation once the batch starts; it runs to success or failure.
func (s *Supervisor) ClassifyAndPersist(ctx context.Context, drafts []models.DraftPost, keyword string, locationTerm string) ([]models.Post, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	batchId := uuid.New().String()
	log.WithFields(log.Fields{
		"batch":   batchId,
		"drafts":  len(drafts),
		"workers": s.workers,
		"keyword": keyword,
	}).Info("Starting classification batch")

	intake := make(chan models.DraftPost, len(drafts))
	for _, draft := range drafts {
		intake <- draft
	}
	close(intake)

	out := make(chan models.Post, len(drafts))

	var wg sync.WaitGroup
	var once sync.Once
	var batchErr error

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			for draft := range intake {
				workersBusy.Inc()
				start := time.Now()
				label, score, err := s.classifier.Classify(ctx, draft.Text)
				classifyDuration.Observe(time.Since(start).Seconds())
				workersBusy.Dec()

				if err != nil {
					classificationFailures.Inc()
					log.WithFields(log.Fields{
						"batch":  batchId,
						"worker": worker,
						"id":     draft.Id,
					}).Error("Classification call failed, aborting batch: ", err)
					once.Do(func() { batchErr = err })
					return
				}

				postsClassified.Inc()
				out <- buildPost(draft, label, score, keyword, locationTerm)
			}
		}(i)
	}

	// One barrier replaces the queue-join plus output-size polling this
	// pipeline originally did; the size check below keeps the second
	// completion condition as a sanity guard.
	wg.Wait()
	close(out)

	if batchErr != nil {
		batchesCompleted.WithLabelValues("classification_error").Inc()
		return nil, batchErr
	}

	classified := make([]models.Post, 0, len(drafts))
	for post := range out {
		classified = append(classified, post)
	}

	if len(classified) != len(drafts) {
		batchesCompleted.WithLabelValues("lost_output").Inc()
		return nil, fmt.Errorf("%w: classified %d of %d drafts", ErrClassification, len(classified), len(drafts))
	}

	if err := s.persist(ctx, classified); err != nil {
		batchesCompleted.WithLabelValues("database_error").Inc()
		return nil, err
	}

	batchesCompleted.WithLabelValues("ok").Inc()
	log.WithFields(log.Fields{
		"batch":      batchId,
		"classified": len(classified),
	}).Info("Classification batch complete")

	return classified, nil
}

// persist writes classified posts, skipping ids the store already has. Not
// transactional: a failure partway leaves earlier items persisted. Concurrent
// batches race on the check-then-insert; the unique index is the final
// arbiter and the losing insert is a benign duplicate, not a failure.
func (s *Supervisor) persist(ctx context.Context, posts []models.Post) error {
	for _, post := range posts {
		exists, err := s.store.HasPost(ctx, post.Id)
		if err != nil {
			return err
		}
		if exists {
			log.WithFields(log.Fields{"id": post.Id}).Info("Post already stored, skipping")
			continue
		}

		if err := s.store.CreatePost(ctx, post); err != nil {
			if exists, checkErr := s.store.HasPost(ctx, post.Id); checkErr == nil && exists {
				log.WithFields(log.Fields{"id": post.Id}).Info("Lost insert race, post already stored")
				continue
			}
			return err
		}
	}
	return nil
}

func buildPost(draft models.DraftPost, label string, score float64, keyword string, locationTerm string) models.Post {
	return models.Post{
		Id:                 draft.Id,
		CreatedAt:          draft.CreatedAt,
		AuthorHandle:       draft.AuthorHandle,
		AuthorDisplayName:  draft.AuthorDisplayName,
		AvatarUrl:          draft.AvatarUrl,
		Text:               draft.Text,
		Geo:                draft.Geo,
		Address:            draft.Address,
		SentimentLabel:     label,
		SentimentScore:     score,
		KeywordSearchTerm:  keyword,
		LocationSearchTerm: locationTerm,
		StoredAt:           time.Now().UTC(),
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
