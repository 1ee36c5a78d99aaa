package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/courtside/internal/models"
	"github.com/google/uuid"
)

// RecordCompletion inserts a finished workout. A zero ID is replaced with a new one.
func (db *DB) RecordCompletion(ctx context.Context, rec models.HistoryRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := db.db.ExecContext(ctx,
		`INSERT INTO workout_history (id, plan_type, plan_id, plan_name, week, day,
		 exercises_completed, total_exercises, sections, duration_sec, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), string(rec.PlanType), rec.PlanID, rec.PlanName, rec.Week, rec.Day,
		rec.ExercisesCompleted, rec.TotalExercises, rec.Sections, rec.DurationSec,
		rec.StartedAt.UnixMilli(), rec.CompletedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("recording completion: %w", err)
	}
	return nil
}

// ListHistory returns the most recent completions first. limit <= 0 means 50.
func (db *DB) ListHistory(ctx context.Context, limit int) ([]models.HistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.db.QueryContext(ctx,
		`SELECT id, plan_type, plan_id, plan_name, week, day, exercises_completed,
		 total_exercises, sections, duration_sec, started_at, completed_at
		 FROM workout_history ORDER BY completed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryRecord
	for rows.Next() {
		var (
			r                  models.HistoryRecord
			id, planType       string
			started, completed int64
		)
		if err := rows.Scan(&id, &planType, &r.PlanID, &r.PlanName, &r.Week, &r.Day,
			&r.ExercisesCompleted, &r.TotalExercises, &r.Sections, &r.DurationSec,
			&started, &completed); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing history id %q: %w", id, err)
		}
		r.PlanType = models.PlanType(planType)
		r.StartedAt = time.UnixMilli(started).UTC()
		r.CompletedAt = time.UnixMilli(completed).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// WeekCompletion returns the distinct days of an eight-week program week
// that have at least one completed workout, in ascending order.
func (db *DB) WeekCompletion(ctx context.Context, week int) ([]int, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT DISTINCT day FROM workout_history
		 WHERE plan_type = ? AND week = ? ORDER BY day`,
		string(models.PlanEightWeek), week)
	if err != nil {
		return nil, fmt.Errorf("querying week %d: %w", week, err)
	}
	defer rows.Close()

	var days []int
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
