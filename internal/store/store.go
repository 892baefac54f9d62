// Package store provides PostgreSQL persistence for run records and master
// profiles. Runs are stored only on full pipeline success.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashishsumanth1/Resume-Council/internal/council"
)

// Store wraps a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and verifies it.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS resume_runs (
			id UUID PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			title TEXT NOT NULL,
			inputs JSONB NOT NULL,
			result JSONB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS profiles (
			id UUID PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			name TEXT NOT NULL,
			raw_text TEXT NOT NULL,
			compact_text TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// RunInputs are the request fields stored alongside a run for transparency.
type RunInputs struct {
	JobDescription string `json:"job_description"`
	MasterProfile  string `json:"master_profile"`
	CompanyDetails string `json:"company_details,omitempty"`
	UsePeerRanking *bool  `json:"use_peer_ranking,omitempty"`
}

// RunRecord is one persisted pipeline run.
type RunRecord struct {
	ID        uuid.UUID         `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Title     string            `json:"title"`
	Inputs    RunInputs         `json:"inputs"`
	Result    council.RunResult `json:"result"`
}

// RunSummary is the listing row for a run.
type RunSummary struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
	HasStage1 bool      `json:"has_stage1"`
	HasStage2 bool      `json:"has_stage2"`
	HasStage3 bool      `json:"has_stage3"`
}

// Profile is a saved master profile with its precomputed compact pack.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Name        string    `json:"name"`
	RawText     string    `json:"raw_text"`
	CompactText string    `json:"compact_text"`
}

// TitleFromJD derives a run title from the first lines of the job
// description, capped at 60 chars.
func TitleFromJD(jobDescription string) string {
	lines := strings.Split(strings.TrimSpace(jobDescription), "\n")
	if len(lines) > 3 {
		lines = lines[:3]
	}
	var parts []string
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			parts = append(parts, t)
		}
	}
	joined := strings.TrimSpace(strings.Join(parts, " "))
	if joined == "" {
		return "Resume Run"
	}
	if len(joined) > 60 {
		return joined[:57] + "..."
	}
	return joined
}

// SaveRun persists a completed run and returns its record.
func (s *Store) SaveRun(ctx context.Context, inputs RunInputs, result *council.RunResult) (*RunRecord, error) {
	record := &RunRecord{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Title:     TitleFromJD(inputs.JobDescription),
		Inputs:    inputs,
		Result:    *result,
	}

	inputsJSON, err := json.Marshal(record.Inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run inputs: %w", err)
	}
	resultJSON, err := json.Marshal(record.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run result: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO resume_runs (id, created_at, title, inputs, result)
		 VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.CreatedAt, record.Title, inputsJSON, resultJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}
	return record, nil
}

// GetRun retrieves one run by id. Returns nil when not found.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	record := &RunRecord{}
	var inputsJSON, resultJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, created_at, title, inputs, result FROM resume_runs WHERE id = $1`,
		id,
	).Scan(&record.ID, &record.CreatedAt, &record.Title, &inputsJSON, &resultJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if err := json.Unmarshal(inputsJSON, &record.Inputs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run inputs: %w", err)
	}
	if err := json.Unmarshal(resultJSON, &record.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run result: %w", err)
	}
	return record, nil
}

// ListRuns returns run summaries, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, title,
		        jsonb_array_length(COALESCE(result->'stage1', '[]'::jsonb)) > 0,
		        COALESCE(jsonb_array_length(result->'stage2'->'votes'), 0) > 0
		          OR (result->'stage2'->>'peer_ranking_used')::boolean,
		        COALESCE(result->'stage3'->>'response', '') <> ''
		 FROM resume_runs
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var item RunSummary
		if err := rows.Scan(&item.ID, &item.CreatedAt, &item.Title, &item.HasStage1, &item.HasStage2, &item.HasStage3); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return out, nil
}

// CreateProfile saves a master profile.
func (s *Store) CreateProfile(ctx context.Context, name, rawText, compactText string) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Master Profile"
	}
	profile := &Profile{
		ID:          uuid.New(),
		CreatedAt:   time.Now().UTC(),
		Name:        name,
		RawText:     rawText,
		CompactText: compactText,
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (id, created_at, name, raw_text, compact_text)
		 VALUES ($1, $2, $3, $4, $5)`,
		profile.ID, profile.CreatedAt, profile.Name, profile.RawText, profile.CompactText,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

// GetProfile retrieves one profile by id. Returns nil when not found.
func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	profile := &Profile{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, created_at, name, raw_text, compact_text FROM profiles WHERE id = $1`,
		id,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.Name, &profile.RawText, &profile.CompactText)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// ListProfiles returns profiles without their raw text, newest first.
func (s *Store) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, name FROM profiles ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	return out, nil
}

// DeleteProfile removes a profile. Reports whether a row was deleted.
func (s *Store) DeleteProfile(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete profile: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
