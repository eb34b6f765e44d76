package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"AethFlow/internal/domain/models"
	pkgch "AethFlow/pkg/clickhouse"
	applogger "AethFlow/pkg/logger"
)

// CHRecordArchive implements RecordArchive backed by ClickHouse. Windows are
// inserted in a single transaction so a failed archive leaves no partial job.
type CHRecordArchive struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHRecordArchive(ch *pkgch.Client) *CHRecordArchive {
	return &CHRecordArchive{client: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (a *CHRecordArchive) SetLogger(l *applogger.Logger) { a.l = l }

func (a *CHRecordArchive) ArchiveRecords(ctx context.Context, jobID string, wavelength models.Channel, records []models.ProcessedRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive begin: %w", err)
	}
	const q = `
        INSERT INTO aethflow.processed_records
            (job_id, wavelength, ts, raw_bc, processed_bc, atn)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("archive prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			jobID,
			string(wavelength),
			rec.Timestamp,
			nullable(rec.RawBC),
			nullable(rec.ProcessedBC),
			nullable(rec.Attenuation),
		); err != nil {
			tx.Rollback()
			if a.l != nil {
				a.l.Error("clickhouse archive exec error",
					applogger.String("job_id", jobID),
					applogger.String("wavelength", string(wavelength)),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("archive exec: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive commit: %w", err)
	}
	if a.l != nil {
		a.l.Info("clickhouse archive ok",
			applogger.String("job_id", jobID),
			applogger.String("wavelength", string(wavelength)),
			applogger.Int("rows", len(records)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (a *CHRecordArchive) Close() error {
	return a.client.Close()
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
