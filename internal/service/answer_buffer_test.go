package service

import (
	"testing"

	"gorm.io/datatypes"
)

func TestAnswerBufferLastWriteWins(t *testing.T) {
	repo := newFakeAnswerRepo()
	buffer := NewAnswerBuffer(repo)

	buffer.Put(1, 1, datatypes.JSON(`0`))
	buffer.Put(1, 1, datatypes.JSON(`2`))
	if buffer.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (saves for the same question must collapse)", buffer.Len())
	}

	buffer.Flush()
	if buffer.Len() != 0 {
		t.Errorf("Len after flush = %d, want 0", buffer.Len())
	}
	if repo.upsertCalls != 1 {
		t.Errorf("upsertCalls = %d, want 1", repo.upsertCalls)
	}
	got := repo.answers[answerKey{attemptID: 1, questionID: 1}]
	if string(got.UserAnswer) != `2` {
		t.Errorf("stored payload = %s, want the later save", got.UserAnswer)
	}
}

func TestAnswerBufferFlushFailureRequeues(t *testing.T) {
	repo := newFakeAnswerRepo()
	buffer := NewAnswerBuffer(repo)

	buffer.Put(1, 1, datatypes.JSON(`0`))
	repo.failUpsert = true
	buffer.Flush()
	if buffer.Len() != 1 {
		t.Fatalf("failed write must stay queued, Len = %d", buffer.Len())
	}

	repo.failUpsert = false
	buffer.Flush()
	if buffer.Len() != 0 {
		t.Errorf("Len after retry = %d, want 0", buffer.Len())
	}
	if _, ok := repo.answers[answerKey{attemptID: 1, questionID: 1}]; !ok {
		t.Errorf("answer never reached the repository")
	}
}

func TestAnswerBufferFlushAttemptScope(t *testing.T) {
	repo := newFakeAnswerRepo()
	buffer := NewAnswerBuffer(repo)

	buffer.Put(1, 1, datatypes.JSON(`0`))
	buffer.Put(2, 1, datatypes.JSON(`1`))

	if err := buffer.FlushAttempt(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buffer.Len() != 1 {
		t.Errorf("other attempts' answers must stay buffered, Len = %d", buffer.Len())
	}
	if _, ok := repo.answers[answerKey{attemptID: 1, questionID: 1}]; !ok {
		t.Errorf("attempt 1 answer not flushed")
	}
	if _, ok := repo.answers[answerKey{attemptID: 2, questionID: 1}]; ok {
		t.Errorf("attempt 2 answer flushed out of scope")
	}
}

func TestAnswerBufferFlushAttemptPartialFailureKeepsEverything(t *testing.T) {
	repo := newFakeAnswerRepo()
	buffer := NewAnswerBuffer(repo)

	buffer.Put(1, 1, datatypes.JSON(`0`))
	buffer.Put(1, 2, datatypes.JSON(`1`))

	// One entry fails; the other must still be written, and the failed one
	// must stay queued rather than vanish with the drained batch.
	repo.failUpsertForQIDs = map[uint]bool{1: true}
	if err := buffer.FlushAttempt(1); err == nil {
		t.Fatalf("expected flush error")
	}
	if buffer.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (only the failed entry re-queued)", buffer.Len())
	}
	if _, ok := repo.answers[answerKey{attemptID: 1, questionID: 2}]; !ok {
		t.Errorf("healthy entry must be written despite the sibling failure")
	}

	repo.failUpsertForQIDs = nil
	if err := buffer.FlushAttempt(1); err != nil {
		t.Fatalf("retried flush: %v", err)
	}
	for qid := uint(1); qid <= 2; qid++ {
		if _, ok := repo.answers[answerKey{attemptID: 1, questionID: qid}]; !ok {
			t.Errorf("answer for question %d never reached the repository", qid)
		}
	}
}

func TestAnswerBufferFlushAttemptErrorKeepsEntry(t *testing.T) {
	repo := newFakeAnswerRepo()
	buffer := NewAnswerBuffer(repo)

	buffer.Put(1, 1, datatypes.JSON(`0`))
	repo.failUpsert = true
	if err := buffer.FlushAttempt(1); err == nil {
		t.Fatalf("expected flush error")
	}
	if buffer.Len() != 1 {
		t.Errorf("failed entry must be re-queued, Len = %d", buffer.Len())
	}
}
