package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/AnupBarde45/SEBI-final-sub001/internal/database"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/modules/vectorstore"
)

// SnapshotFlushJob persists the vector store if it has unflushed changes.
// The store writes through on every batch; this is the retry path for
// batches whose synchronous flush failed.
type SnapshotFlushJob struct {
	store *vectorstore.Store
	log   zerolog.Logger
}

// NewSnapshotFlushJob creates a new snapshot flush job
func NewSnapshotFlushJob(store *vectorstore.Store, log zerolog.Logger) *SnapshotFlushJob {
	return &SnapshotFlushJob{
		store: store,
		log:   log.With().Str("job", "snapshot_flush").Logger(),
	}
}

// Name returns the job name
func (j *SnapshotFlushJob) Name() string { return "snapshot_flush" }

// Run flushes pending vector store changes to disk
func (j *SnapshotFlushJob) Run() error {
	return j.store.Flush()
}

// WALCheckpointJob checkpoints the write-ahead logs of all databases so
// the WAL files cannot grow without bound
type WALCheckpointJob struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a new WAL checkpoint job
func NewWALCheckpointJob(databases map[string]*database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string { return "wal_checkpoint" }

// Run checkpoints every database, continuing past individual failures
func (j *WALCheckpointJob) Run() error {
	var lastErr error
	for name, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("WAL checkpoint failed")
			lastErr = err
			continue
		}
		j.log.Debug().Str("database", name).Msg("WAL checkpoint complete")
	}
	return lastErr
}
