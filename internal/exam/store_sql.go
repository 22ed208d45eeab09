package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, now: time.Now}
}

func (s *SQLStore) PutTest(ctx context.Context, t Test) error {
	if err := t.Validate(); err != nil {
		return err
	}
	qj, err := json.Marshal(t.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tests (id,title,description,time_limit_seconds,shuffle_questions,show_results,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
			time_limit_seconds=EXCLUDED.time_limit_seconds, shuffle_questions=EXCLUDED.shuffle_questions,
			show_results=EXCLUDED.show_results, questions_json=EXCLUDED.questions_json`,
		t.ID, t.Title, t.Description, t.TimeLimitSeconds, t.ShuffleQuestions, t.ShowResultsImmediately, string(qj), s.now().Unix())
	return err
}

const testColumns = `id,title,description,time_limit_seconds,shuffle_questions,show_results,questions_json,created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTest(row rowScanner) (Test, error) {
	var t Test
	var qjson string
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.TimeLimitSeconds, &t.ShuffleQuestions,
		&t.ShowResultsImmediately, &qjson, &t.CreatedAt); err != nil {
		return Test{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &t.Questions); err != nil {
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	t, err := scanTest(s.db.QueryRowContext(ctx, `SELECT `+testColumns+` FROM tests WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, ErrTestNotFound
		}
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) ListTests(ctx context.Context) ([]Test, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+testColumns+` FROM tests ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveResult(ctx context.Context, r Result) error {
	items, err := json.Marshal(r.Items)
	if err != nil {
		return err
	}
	var completed sql.NullString
	if r.CompletedAt != nil {
		completed = sql.NullString{String: r.CompletedAt.UTC().Format(time.RFC3339), Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO results
		(id,session_id,test_id,test_title,student_id,student_name,student_email,raw_score,max_score,percentage,
		 status,needs_manual,completed_at,duration_seconds,items_json,inserted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (id) DO UPDATE SET raw_score=EXCLUDED.raw_score, percentage=EXCLUDED.percentage,
			needs_manual=EXCLUDED.needs_manual, items_json=EXCLUDED.items_json`,
		r.ID, r.SessionID, r.TestID, r.TestTitle, r.StudentID, r.StudentName, r.StudentEmail,
		r.RawScore, r.MaxScore, r.Percentage, string(r.Status), r.NeedsManualGrading, completed,
		r.DurationSeconds, string(items), s.now().UnixNano())
	return err
}

const resultColumns = `id,session_id,test_id,test_title,student_id,student_name,student_email,raw_score,max_score,
	percentage,status,needs_manual,completed_at,duration_seconds,items_json`

func scanResult(row rowScanner) (Result, error) {
	var r Result
	var status, items string
	var completed sql.NullString
	if err := row.Scan(&r.ID, &r.SessionID, &r.TestID, &r.TestTitle, &r.StudentID, &r.StudentName, &r.StudentEmail,
		&r.RawScore, &r.MaxScore, &r.Percentage, &status, &r.NeedsManualGrading, &completed,
		&r.DurationSeconds, &items); err != nil {
		return Result{}, err
	}
	r.Status = ResultStatus(status)
	if completed.Valid {
		ts, err := time.Parse(time.RFC3339, completed.String)
		if err != nil {
			return Result{}, err
		}
		r.CompletedAt = &ts
	}
	if err := json.Unmarshal([]byte(items), &r.Items); err != nil {
		return Result{}, fmt.Errorf("result %s: decode items: %w", r.ID, err)
	}
	return r, nil
}

func (s *SQLStore) GetResult(ctx context.Context, id string) (Result, error) {
	r, err := scanResult(s.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM results WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, ErrResultNotFound
		}
		return Result{}, err
	}
	return r, nil
}

// ListResults returns results in insertion order.
func (s *SQLStore) ListResults(ctx context.Context) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+resultColumns+` FROM results ORDER BY inserted_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
