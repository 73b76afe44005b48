package outreach

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/waqasmustafa/social-media-outreach/internal/ai"
)

// Migrate creates the schema. Idempotent; called at startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profile_requests (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL DEFAULT 'Social Profile',
			profile_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'draft',
			last_profile_name TEXT NOT NULL DEFAULT '',
			last_response_status TEXT NOT NULL DEFAULT '',
			last_sent_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS profile_images (
			id BIGSERIAL PRIMARY KEY,
			request_id BIGINT NOT NULL REFERENCES profile_requests(id) ON DELETE CASCADE,
			name TEXT NOT NULL DEFAULT '',
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS profile_logs (
			id BIGSERIAL PRIMARY KEY,
			request_id BIGINT NOT NULL,
			profile_name TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			profile_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			response_json TEXT NOT NULL DEFAULT '',
			sent_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS profile_logs_request_idx ON profile_logs (request_id)`,
		`CREATE INDEX IF NOT EXISTS profile_logs_url_idx ON profile_logs (profile_url) WHERE status = 'success'`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// --- requests ---

type requestStore struct {
	db *sql.DB
}

func NewRequestStore(db *sql.DB) RequestStore {
	return &requestStore{db: db}
}

func (r *requestStore) Create(ctx context.Context, req *ProfileRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO profile_requests (name, profile_url, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, req.Name, req.ProfileURL, string(req.Status)).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return err
	}

	for _, img := range req.Images {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO profile_images (request_id, name, data)
			VALUES ($1, $2, $3)
		`, req.ID, img.Name, img.Data); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *requestStore) Get(ctx context.Context, id int64) (*ProfileRequest, error) {
	var (
		req    ProfileRequest
		status string
		sentAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, profile_url, status, last_profile_name, last_response_status, last_sent_at, created_at
		FROM profile_requests
		WHERE id = $1
	`, id).Scan(&req.ID, &req.Name, &req.ProfileURL, &status,
		&req.LastProfileName, &req.LastResponseStatus, &sentAt, &req.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	req.Status = Status(status)
	if sentAt.Valid {
		t := sentAt.Time
		req.LastSentAt = &t
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT name, data FROM profile_images WHERE request_id = $1 ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var img ai.Image
		if err := rows.Scan(&img.Name, &img.Data); err != nil {
			return nil, err
		}
		req.Images = append(req.Images, img)
	}
	return &req, rows.Err()
}

func (r *requestStore) List(ctx context.Context) ([]ProfileRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, profile_url, status, last_profile_name, last_response_status, last_sent_at, created_at
		FROM profile_requests
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProfileRequest
	for rows.Next() {
		var (
			req    ProfileRequest
			status string
			sentAt sql.NullTime
		)
		if err := rows.Scan(&req.ID, &req.Name, &req.ProfileURL, &status,
			&req.LastProfileName, &req.LastResponseStatus, &sentAt, &req.CreatedAt); err != nil {
			return nil, err
		}
		req.Status = Status(status)
		if sentAt.Valid {
			t := sentAt.Time
			req.LastSentAt = &t
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *requestStore) SetStatus(ctx context.Context, id int64, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profile_requests SET status = $2 WHERE id = $1
	`, id, string(status))
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (r *requestStore) SetResult(ctx context.Context, id int64, profileName, responseStatus string, sentAt time.Time, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profile_requests
		SET last_profile_name = $2, last_response_status = $3, last_sent_at = $4, status = $5
		WHERE id = $1
	`, id, profileName, responseStatus, sentAt, string(status))
	if err != nil {
		return err
	}
	return oneRow(res)
}

// Delete removes log rows and images before the parent inside one transaction,
// so a request never disappears while its audit rows survive.
func (r *requestStore) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM profile_logs WHERE request_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM profile_images WHERE request_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM profile_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if err := oneRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- logs ---

type logStore struct {
	db *sql.DB
}

func NewLogStore(db *sql.DB) LogStore {
	return &logStore{db: db}
}

func (l *logStore) Create(ctx context.Context, row *ProfileLog) error {
	return l.db.QueryRowContext(ctx, `
		INSERT INTO profile_logs (request_id, profile_name, brand, profile_url, status, message, response_json, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, row.RequestID, row.ProfileName, row.Brand, row.ProfileURL,
		string(row.Status), row.Message, row.ResponseJSON, row.SentAt).Scan(&row.ID)
}

func (l *logStore) ListByRequest(ctx context.Context, requestID int64) ([]ProfileLog, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, request_id, profile_name, brand, profile_url, status, message, response_json, sent_at
		FROM profile_logs
		WHERE request_id = $1
		ORDER BY sent_at DESC, id DESC
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProfileLog
	for rows.Next() {
		row, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

func (l *logStore) FindSuccessByURL(ctx context.Context, url string) (*ProfileLog, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, request_id, profile_name, brand, profile_url, status, message, response_json, sent_at
		FROM profile_logs
		WHERE status = 'success' AND profile_url = $1
		ORDER BY sent_at DESC, id DESC
		LIMIT 1
	`, url)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanLog(rows)
}

func scanLog(rows *sql.Rows) (*ProfileLog, error) {
	var (
		row    ProfileLog
		status string
	)
	if err := rows.Scan(&row.ID, &row.RequestID, &row.ProfileName, &row.Brand,
		&row.ProfileURL, &status, &row.Message, &row.ResponseJSON, &row.SentAt); err != nil {
		return nil, err
	}
	row.Status = LogStatus(status)
	return &row, nil
}

// --- settings ---

type settingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) SettingsStore {
	return &settingsStore{db: db}
}

func (s *settingsStore) Get(ctx context.Context, key, def string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM app_settings WHERE key = $1
	`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	if value == "" {
		return def, nil
	}
	return value, nil
}

func (s *settingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	return err
}
