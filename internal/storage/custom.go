package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/courtside/internal/models"
	"github.com/google/uuid"
)

// SaveCustomWorkout inserts w, or updates it when w.ID already exists.
// A zero ID is assigned; CreatedAt is kept on update.
func (db *DB) SaveCustomWorkout(ctx context.Context, w *models.CustomWorkout) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	exercises, err := json.Marshal(w.Exercises)
	if err != nil {
		return fmt.Errorf("encoding exercises: %w", err)
	}
	_, err = db.db.ExecContext(ctx,
		`INSERT INTO custom_workouts (id, name, exercises, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, exercises = excluded.exercises,
		 updated_at = excluded.updated_at`,
		w.ID.String(), w.Name, string(exercises), w.CreatedAt.UnixMilli(), w.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving custom workout: %w", err)
	}
	return nil
}

// ListCustomWorkouts returns all custom workouts, most recently updated first.
func (db *DB) ListCustomWorkouts(ctx context.Context) ([]models.CustomWorkout, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT id, name, exercises, created_at, updated_at
		 FROM custom_workouts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying custom workouts: %w", err)
	}
	defer rows.Close()

	var out []models.CustomWorkout
	for rows.Next() {
		w, err := scanCustom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// GetCustomWorkout returns the workout with id or ErrNotFound.
func (db *DB) GetCustomWorkout(ctx context.Context, id uuid.UUID) (models.CustomWorkout, error) {
	row := db.db.QueryRowContext(ctx,
		`SELECT id, name, exercises, created_at, updated_at FROM custom_workouts WHERE id = ?`,
		id.String())
	w, err := scanCustom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CustomWorkout{}, ErrNotFound
	}
	return w, err
}

// DeleteCustomWorkout removes the workout with id, returning ErrNotFound if absent.
func (db *DB) DeleteCustomWorkout(ctx context.Context, id uuid.UUID) error {
	res, err := db.db.ExecContext(ctx, `DELETE FROM custom_workouts WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("deleting custom workout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustom(s scanner) (models.CustomWorkout, error) {
	var (
		w                models.CustomWorkout
		id, exercises    string
		created, updated int64
	)
	if err := s.Scan(&id, &w.Name, &exercises, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return w, err
		}
		return w, fmt.Errorf("scanning custom workout: %w", err)
	}
	var err error
	if w.ID, err = uuid.Parse(id); err != nil {
		return w, fmt.Errorf("parsing custom workout id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(exercises), &w.Exercises); err != nil {
		return w, fmt.Errorf("decoding exercises: %w", err)
	}
	w.CreatedAt = time.UnixMilli(created).UTC()
	w.UpdatedAt = time.UnixMilli(updated).UTC()
	return w, nil
}
