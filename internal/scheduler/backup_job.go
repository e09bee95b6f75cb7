package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/AnupBarde45/SEBI-final-sub001/internal/database"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/reliability"
)

// backupTimeout bounds one full backup run including the upload
const backupTimeout = 10 * time.Minute

// BackupJob checkpoints the databases, uploads a data-dir archive, and
// prunes old remote backups
type BackupJob struct {
	backup        *reliability.BackupService
	databases     map[string]*database.DB
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(
	backup *reliability.BackupService,
	databases map[string]*database.DB,
	retentionDays int,
	log zerolog.Logger,
) *BackupJob {
	return &BackupJob{
		backup:        backup,
		databases:     databases,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string { return "backup" }

// Run performs one backup cycle
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	// Checkpoint WALs so the database files on disk are complete
	for name, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", name).Msg("Pre-backup checkpoint failed")
		}
	}

	if err := j.backup.CreateAndUpload(ctx); err != nil {
		return err
	}

	if err := j.backup.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}
