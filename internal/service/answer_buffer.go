package service

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nfcelis/examspot/internal/model"
	"github.com/nfcelis/examspot/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

type pendingKey struct {
	attemptID  uint
	questionID uint
}

// AnswerBuffer is a write-behind store for autosaved answers. SaveAnswer
// calls land here and a background ticker flushes the accumulated writes to
// the database in batches; SubmitAttempt flushes synchronously before
// grading. Repeated saves for the same attempt/question pair collapse to the
// latest payload.
type AnswerBuffer struct {
	answerRepo repository.AnswerRepository

	mu      sync.Mutex
	pending map[pendingKey]datatypes.JSON
}

func NewAnswerBuffer(answerRepo repository.AnswerRepository) *AnswerBuffer {
	return &AnswerBuffer{
		answerRepo: answerRepo,
		pending:    make(map[pendingKey]datatypes.JSON),
	}
}

// Put records an answer payload for a later flush. Last write wins.
func (b *AnswerBuffer) Put(attemptID, questionID uint, payload datatypes.JSON) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[pendingKey{attemptID: attemptID, questionID: questionID}] = payload
}

// Len reports the number of pending writes.
func (b *AnswerBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Flush writes every pending answer to the database. Entries that fail to
// persist are re-queued unless a newer payload arrived for the same pair
// while the flush was running.
func (b *AnswerBuffer) Flush() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = make(map[pendingKey]datatypes.JSON)
	b.mu.Unlock()

	for key, payload := range batch {
		if err := b.upsert(key, payload); err != nil {
			log.Error().Err(err).Uint("attemptID", key.attemptID).Uint("questionID", key.questionID).
				Msg("AnswerBuffer: flush failed, re-queueing answer")
			b.requeue(key, payload)
		}
	}
}

// FlushAttempt synchronously writes the pending answers for one attempt.
// Unlike Flush, failures are returned to the caller so a submit can abort
// instead of grading stale data. Every entry is attempted; the ones that
// fail stay queued, so an aborted submit never drops an answer.
func (b *AnswerBuffer) FlushAttempt(attemptID uint) error {
	b.mu.Lock()
	batch := make(map[pendingKey]datatypes.JSON)
	for key, payload := range b.pending {
		if key.attemptID == attemptID {
			batch[key] = payload
			delete(b.pending, key)
		}
	}
	b.mu.Unlock()

	var errs []error
	for key, payload := range batch {
		if err := b.upsert(key, payload); err != nil {
			b.requeue(key, payload)
			errs = append(errs, fmt.Errorf("question %d: %w", key.questionID, err))
		}
	}
	return errors.Join(errs...)
}

func (b *AnswerBuffer) upsert(key pendingKey, payload datatypes.JSON) error {
	return b.answerRepo.Upsert(&model.ExamAnswer{
		AttemptID:  key.attemptID,
		QuestionID: key.questionID,
		UserAnswer: payload,
	})
}

func (b *AnswerBuffer) requeue(key pendingKey, payload datatypes.JSON) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.pending[key]; !exists {
		b.pending[key] = payload
	}
}
