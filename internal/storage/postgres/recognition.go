package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"jamesfarrell.me/audd-recognizer/internal/storage/models"
)

// NotifyChannel is the channel new recognitions are announced on.
const NotifyChannel = "new_recognition"

const schemaSQL = `
	CREATE EXTENSION IF NOT EXISTS pgcrypto;

	CREATE TABLE IF NOT EXISTS "Recognition" (
		id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		"videoUrl"  text NOT NULL,
		slug        text NOT NULL DEFAULT '',
		response    text,
		error       text,
		status      text NOT NULL DEFAULT 'pending',
		"createdAt" timestamptz NOT NULL DEFAULT CURRENT_TIMESTAMP,
		"updatedAt" timestamptz NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS recognition_video_url_idx ON "Recognition" ("videoUrl");

	CREATE OR REPLACE FUNCTION notify_new_recognition() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify('new_recognition', row_to_json(NEW)::text);
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;

	DROP TRIGGER IF EXISTS recognition_inserted ON "Recognition";
	CREATE TRIGGER recognition_inserted AFTER INSERT ON "Recognition"
		FOR EACH ROW EXECUTE FUNCTION notify_new_recognition();
`

type RecognitionRepository struct {
	db *sql.DB
}

func NewRecognitionRepository(db *sql.DB) *RecognitionRepository {
	return &RecognitionRepository{db: db}
}

// Migrate creates the table and the insert trigger that feeds NotifyChannel.
func (r *RecognitionRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *RecognitionRepository) Create(ctx context.Context, req *models.RecognitionRequest) (string, error) {
	const query = `
		INSERT INTO "Recognition" ("videoUrl", slug, status, "createdAt", "updatedAt")
		VALUES ($1, $2, 'pending', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id
	`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		req.URL,
		models.ExtractSlugFromURL(req.URL),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert recognition: %w", err)
	}
	return id, nil
}

func (r *RecognitionRepository) Get(ctx context.Context, id string) (*models.Recognition, error) {
	const query = `
		SELECT id, "videoUrl", slug, response, error, status, "createdAt", "updatedAt"
		FROM "Recognition"
		WHERE id = $1
	`

	rec, err := scanRecognition(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *RecognitionRepository) List(ctx context.Context) ([]models.Recognition, error) {
	const query = `
		SELECT id, "videoUrl", slug, response, error, status, "createdAt", "updatedAt"
		FROM "Recognition"
		ORDER BY "createdAt" DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query recognitions: %w", err)
	}
	defer rows.Close()

	recognitions := []models.Recognition{}
	for rows.Next() {
		rec, err := scanRecognition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recognition: %w", err)
		}
		recognitions = append(recognitions, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return recognitions, nil
}

// GetCompletedByURL returns the most recent completed recognition of videoURL.
func (r *RecognitionRepository) GetCompletedByURL(ctx context.Context, videoURL string) (*models.Recognition, error) {
	const query = `
		SELECT id, "videoUrl", slug, response, error, status, "createdAt", "updatedAt"
		FROM "Recognition"
		WHERE "videoUrl" = $1 AND status = 'completed' AND response IS NOT NULL
		ORDER BY "updatedAt" DESC
		LIMIT 1
	`
	return scanRecognition(r.db.QueryRowContext(ctx, query, videoURL))
}

func (r *RecognitionRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	const updateSQL = `
		UPDATE "Recognition"
		SET status = $1, "updatedAt" = CURRENT_TIMESTAMP
		WHERE id = $2
	`
	return r.exec(ctx, updateSQL, id, status, id)
}

// SaveResponse stores the raw recognition response and completes the row.
func (r *RecognitionRepository) SaveResponse(ctx context.Context, id string, response string) error {
	const updateSQL = `
		UPDATE "Recognition"
		SET response = $1, error = NULL, status = 'completed', "updatedAt" = CURRENT_TIMESTAMP
		WHERE id = $2
	`
	return r.exec(ctx, updateSQL, id, response, id)
}

// SaveError records the failure message and marks the row failed.
func (r *RecognitionRepository) SaveError(ctx context.Context, id string, message string) error {
	const updateSQL = `
		UPDATE "Recognition"
		SET error = $1, status = 'failed', "updatedAt" = CURRENT_TIMESTAMP
		WHERE id = $2
	`
	return r.exec(ctx, updateSQL, id, message, id)
}

func (r *RecognitionRepository) exec(ctx context.Context, query string, id string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to execute update: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("no recognition found with ID: %s", id)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecognition(row scanner) (*models.Recognition, error) {
	var rec models.Recognition
	err := row.Scan(
		&rec.ID,
		&rec.VideoURL,
		&rec.Slug,
		&rec.Response,
		&rec.Error,
		&rec.Status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
