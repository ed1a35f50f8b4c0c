package app

import (
	"context"
	"log"

	"github.com/lumiere-studio/lumiere/internal/recording"
	"github.com/lumiere-studio/lumiere/internal/store"
)

type journalEntry struct {
	rec   recording.Recording
	event recording.Event
}

// journal writes recorder events to the recordings table off the frame
// goroutine. Entries are dropped when the queue is full.
type journal struct {
	repo  *store.RecordingRepository
	queue chan journalEntry
}

func newJournal(repo *store.RecordingRepository) *journal {
	return &journal{repo: repo, queue: make(chan journalEntry, 32)}
}

// record is the recorder event callback.
func (j *journal) record(rec recording.Recording, e recording.Event) {
	select {
	case j.queue <- journalEntry{rec: rec, event: e}:
	default:
		log.Printf("Recording journal full, dropping %s event for %s", e, rec.ID)
	}
}

// run drains the queue until ctx is done, then writes whatever is left.
func (j *journal) run(ctx context.Context) {
	for {
		select {
		case entry := <-j.queue:
			j.write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-j.queue:
					j.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (j *journal) write(entry journalEntry) {
	rec := entry.rec
	var err error
	switch entry.event {
	case recording.EventStarted:
		err = j.repo.Create(newRecordingRow(rec, store.RecordingRequested))
	case recording.EventFailed:
		err = j.repo.Create(newRecordingRow(rec, store.RecordingFailed))
	case recording.EventFinished:
		err = j.repo.Finish(rec.ID, store.RecordingFinished, rec.Elapsed.Milliseconds())
	default:
		return
	}
	if err != nil {
		log.Printf("Failed to journal recording %s (%s): %v", rec.ID, entry.event, err)
	}
}

func newRecordingRow(rec recording.Recording, status store.RecordingStatus) *store.Recording {
	return &store.Recording{
		ID:         rec.ID,
		Kind:       string(rec.Kind),
		PhotoCount: rec.PhotoCount,
		DurationMs: rec.Duration.Milliseconds(),
		Status:     status,
	}
}
