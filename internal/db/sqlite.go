// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/period"
	"github.com/javiermolinar/horario/internal/planner"
	"github.com/javiermolinar/horario/internal/timetable"
)

// busyTimeout bounds how long a writer waits for the database lock.
const busyTimeout = 5 * time.Second

// SQLite implements timetable.Repository using SQLite.
type SQLite struct {
	db *sql.DB
}

var _ timetable.Repository = (*SQLite)(nil)

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection serializes writers so a transaction never has to
	// upgrade a read lock held by another connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateTimetable adds a new timetable to the repository.
// Returns ErrDuplicateTimetable if the period already has one.
func (s *SQLite) CreateTimetable(ctx context.Context, t *timetable.Timetable) error {
	if t.Status == "" {
		t.Status = timetable.StatusDraft
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	query := `INSERT INTO timetables (year, term, status, created_at) VALUES (?, ?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query,
		t.Period.Year,
		string(t.Period.Term),
		t.Status,
		t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", timetable.ErrDuplicateTimetable, t.Period)
		}
		return fmt.Errorf("inserting timetable: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	t.ID = id

	return nil
}

// GetTimetable retrieves a timetable by ID together with its placements.
func (s *SQLite) GetTimetable(ctx context.Context, id int64) (*timetable.Timetable, error) {
	query := `
		SELECT id, year, term, status, created_at, confirmed_at
		FROM timetables
		WHERE id = ?
	`
	t, err := scanTimetable(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("timetable %d: %w", id, timetable.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	t.Placements, err = listPlacements(ctx, s.db, t.ID)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// FindTimetable retrieves the timetable of a period.
func (s *SQLite) FindTimetable(ctx context.Context, p period.Period) (*timetable.Timetable, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM timetables WHERE year = ? AND term = ?`,
		p.Year, string(p.Term),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("timetable %s: %w", p, timetable.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying timetable: %w", err)
	}
	return s.GetTimetable(ctx, id)
}

// ListTimetables returns all timetables without placements, newest first.
func (s *SQLite) ListTimetables(ctx context.Context) ([]*timetable.Timetable, error) {
	query := `
		SELECT id, year, term, status, created_at, confirmed_at
		FROM timetables
		ORDER BY year DESC, term DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying timetables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*timetable.Timetable
	for rows.Next() {
		t, err := scanTimetable(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating timetables: %w", err)
	}
	return result, nil
}

// DeleteTimetable removes a timetable, its placements, and its plan.
func (s *SQLite) DeleteTimetable(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"placements", "plan_sessions", "plan_groups", "plan_courses"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE timetable_id = ?`, id); err != nil {
			return fmt.Errorf("deleting %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM timetables WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting timetable: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("timetable %d: %w", id, timetable.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// AddPlacement inserts a placement after re-checking, in the same
// transaction, that the timetable is a draft, the session is still pending,
// and no committed placement overlaps it.
func (s *SQLite) AddPlacement(ctx context.Context, p *timetable.Placement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := requireDraftTx(ctx, tx, p.TimetableID); err != nil {
		return err
	}

	var placed bool
	err = tx.QueryRowContext(ctx,
		`SELECT placed FROM plan_sessions WHERE id = ? AND timetable_id = ?`,
		p.SessionID, p.TimetableID,
	).Scan(&placed)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("session %s: %w", p.SessionID, timetable.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying session: %w", err)
	}
	if placed {
		return fmt.Errorf("session %s: %w", p.SessionID, planner.ErrSessionPlaced)
	}

	if err := checkOverlapTx(ctx, tx, p); err != nil {
		return err
	}

	query := `
		INSERT INTO placements (
			timetable_id, session_id, course_id, group_no, professor_id,
			room_id, day, start_time, end_time, duration
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		p.TimetableID,
		p.SessionID,
		p.CourseID,
		p.Group,
		p.ProfessorID,
		p.RoomID,
		int(p.Day),
		p.Start,
		p.End,
		p.Duration,
	)
	if err != nil {
		return fmt.Errorf("inserting placement: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE plan_sessions SET placed = 1 WHERE id = ? AND timetable_id = ?`,
		p.SessionID, p.TimetableID,
	); err != nil {
		return fmt.Errorf("marking session placed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	p.ID = id
	return nil
}

// RemovePlacement deletes a placement of a draft timetable and returns it.
func (s *SQLite) RemovePlacement(ctx context.Context, timetableID, placementID int64) (*timetable.Placement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := requireDraftTx(ctx, tx, timetableID); err != nil {
		return nil, err
	}

	p, err := scanPlacement(tx.QueryRowContext(ctx,
		placementColumns+` WHERE id = ? AND timetable_id = ?`,
		placementID, timetableID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("placement %d: %w", placementID, timetable.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM placements WHERE id = ?`, placementID); err != nil {
		return nil, fmt.Errorf("deleting placement: %w", err)
	}

	var others int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM placements WHERE timetable_id = ? AND session_id = ?`,
		timetableID, p.SessionID,
	).Scan(&others); err != nil {
		return nil, fmt.Errorf("counting session placements: %w", err)
	}
	// A session re-planned under a new identity no longer has a row, so
	// the update is a no-op for it.
	if others == 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE plan_sessions SET placed = 0 WHERE id = ? AND timetable_id = ?`,
			p.SessionID, timetableID,
		); err != nil {
			return nil, fmt.Errorf("releasing session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return p, nil
}

// UpdateStatus moves a timetable from one status to another.
// Returns ErrNotDraft when the stored status no longer matches from.
func (s *SQLite) UpdateStatus(ctx context.Context, id int64, from, to timetable.Status) error {
	if !to.Valid() {
		return fmt.Errorf("invalid status %q", to)
	}

	var confirmedAt any
	if to == timetable.StatusConfirmed {
		confirmedAt = time.Now().Format(time.RFC3339)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE timetables SET status = ?, confirmed_at = ? WHERE id = ? AND status = ?`,
		to, confirmedAt, id, from,
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM timetables WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("timetable %d: %w", id, timetable.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying status: %w", err)
	}
	return fmt.Errorf("timetable %d is %s: %w", id, current, timetable.ErrNotDraft)
}

// LoadPlan returns the session plan of a timetable.
func (s *SQLite) LoadPlan(ctx context.Context, timetableID int64) (*planner.Plan, error) {
	plan := planner.New()

	courses, err := s.db.QueryContext(ctx,
		`SELECT course_id, weekly_hours, submitted FROM plan_courses WHERE timetable_id = ?`,
		timetableID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying plan courses: %w", err)
	}
	for courses.Next() {
		cp := &planner.CoursePlan{}
		if err := courses.Scan(&cp.CourseID, &cp.WeeklyHours, &cp.Submitted); err != nil {
			_ = courses.Close()
			return nil, fmt.Errorf("scanning plan course: %w", err)
		}
		plan.Courses[cp.CourseID] = cp
	}
	if err := closeRows(courses); err != nil {
		return nil, err
	}

	groups, err := s.db.QueryContext(ctx, `
		SELECT course_id, group_no, professor_id, student_count
		FROM plan_groups
		WHERE timetable_id = ?
		ORDER BY course_id, group_no
	`, timetableID)
	if err != nil {
		return nil, fmt.Errorf("querying plan groups: %w", err)
	}
	for groups.Next() {
		var courseID string
		g := &planner.Group{}
		if err := groups.Scan(&courseID, &g.ID, &g.ProfessorID, &g.StudentCount); err != nil {
			_ = groups.Close()
			return nil, fmt.Errorf("scanning plan group: %w", err)
		}
		if cp, ok := plan.Courses[courseID]; ok {
			cp.Groups = append(cp.Groups, g)
		}
	}
	if err := closeRows(groups); err != nil {
		return nil, err
	}

	sessions, err := s.db.QueryContext(ctx, `
		SELECT id, course_id, group_no, duration, placed
		FROM plan_sessions
		WHERE timetable_id = ?
		ORDER BY course_id, group_no, position
	`, timetableID)
	if err != nil {
		return nil, fmt.Errorf("querying plan sessions: %w", err)
	}
	for sessions.Next() {
		sess := &planner.Session{}
		if err := sessions.Scan(&sess.ID, &sess.CourseID, &sess.Group, &sess.Duration, &sess.Placed); err != nil {
			_ = sessions.Close()
			return nil, fmt.Errorf("scanning plan session: %w", err)
		}
		cp, ok := plan.Courses[sess.CourseID]
		if !ok {
			continue
		}
		if g, ok := cp.Group(sess.Group); ok {
			g.Sessions = append(g.Sessions, sess)
		}
	}
	if err := closeRows(sessions); err != nil {
		return nil, err
	}

	return plan, nil
}

// SavePlan replaces the plan of a draft timetable. Placed flags are taken
// from committed placements, not from the caller, and are written back to
// plan so it matches what was stored.
func (s *SQLite) SavePlan(ctx context.Context, timetableID int64, plan *planner.Plan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := requireDraftTx(ctx, tx, timetableID); err != nil {
		return err
	}

	placed, err := placedSessionsTx(ctx, tx, timetableID)
	if err != nil {
		return err
	}

	for _, table := range []string{"plan_sessions", "plan_groups", "plan_courses"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE timetable_id = ?`, timetableID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, courseID := range plan.CourseIDs() {
		cp := plan.Courses[courseID]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO plan_courses (timetable_id, course_id, weekly_hours, submitted) VALUES (?, ?, ?, ?)`,
			timetableID, cp.CourseID, cp.WeeklyHours, cp.Submitted,
		); err != nil {
			return fmt.Errorf("inserting plan course %s: %w", cp.CourseID, err)
		}
		for _, g := range cp.Groups {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO plan_groups (timetable_id, course_id, group_no, professor_id, student_count) VALUES (?, ?, ?, ?, ?)`,
				timetableID, cp.CourseID, g.ID, g.ProfessorID, g.StudentCount,
			); err != nil {
				return fmt.Errorf("inserting plan group %s/%d: %w", cp.CourseID, g.ID, err)
			}
			for pos, sess := range g.Sessions {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO plan_sessions (id, timetable_id, course_id, group_no, position, duration, placed)
					VALUES (?, ?, ?, ?, ?, ?, ?)
				`, sess.ID, timetableID, cp.CourseID, g.ID, pos, sess.Duration, placed[sess.ID]); err != nil {
					return fmt.Errorf("inserting session %s: %w", sess.ID, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	for _, cp := range plan.Courses {
		for _, g := range cp.Groups {
			for _, sess := range g.Sessions {
				sess.Placed = placed[sess.ID]
			}
		}
	}
	return nil
}

// requireDraftTx returns ErrNotFound or ErrNotDraft unless the timetable
// exists and is a draft.
func requireDraftTx(ctx context.Context, tx *sql.Tx, id int64) error {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM timetables WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("timetable %d: %w", id, timetable.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying timetable status: %w", err)
	}
	if timetable.Status(status) != timetable.StatusDraft {
		return fmt.Errorf("timetable %d is %s: %w", id, status, timetable.ErrNotDraft)
	}
	return nil
}

// checkOverlapTx loads placements overlapping p on the same day and runs
// the domain overlap check against them.
// Two time ranges overlap if: start1 < end2 AND start2 < end1
func checkOverlapTx(ctx context.Context, tx *sql.Tx, p *timetable.Placement) error {
	rows, err := tx.QueryContext(ctx,
		placementColumns+`
		WHERE timetable_id = ?
		  AND day = ?
		  AND start_time < ?
		  AND end_time > ?
		ORDER BY id
	`, p.TimetableID, int(p.Day), p.End, p.Start)
	if err != nil {
		return fmt.Errorf("checking overlap: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var existing []*timetable.Placement
	for rows.Next() {
		e, err := scanPlacement(rows)
		if err != nil {
			return err
		}
		existing = append(existing, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating overlaps: %w", err)
	}

	return timetable.CheckOverlap(existing, p)
}

func placedSessionsTx(ctx context.Context, tx *sql.Tx, timetableID int64) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT session_id FROM placements WHERE timetable_id = ?`, timetableID)
	if err != nil {
		return nil, fmt.Errorf("querying placed sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	placed := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning placed session: %w", err)
		}
		placed[id] = true
	}
	return placed, rows.Err()
}

const placementColumns = `
	SELECT id, timetable_id, session_id, course_id, group_no, professor_id,
	       room_id, day, start_time, end_time, duration
	FROM placements`

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listPlacements(ctx context.Context, q queryer, timetableID int64) ([]*timetable.Placement, error) {
	rows, err := q.QueryContext(ctx, placementColumns+` WHERE timetable_id = ? ORDER BY id`, timetableID)
	if err != nil {
		return nil, fmt.Errorf("querying placements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*timetable.Placement
	for rows.Next() {
		p, err := scanPlacement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating placements: %w", err)
	}
	return result, nil
}

func scanPlacement(r rowScanner) (*timetable.Placement, error) {
	var (
		p   timetable.Placement
		day int
	)
	err := r.Scan(
		&p.ID,
		&p.TimetableID,
		&p.SessionID,
		&p.CourseID,
		&p.Group,
		&p.ProfessorID,
		&p.RoomID,
		&day,
		&p.Start,
		&p.End,
		&p.Duration,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning placement: %w", err)
	}
	p.Day = grid.Day(day)
	return &p, nil
}

func scanTimetable(r rowScanner) (*timetable.Timetable, error) {
	var (
		t           timetable.Timetable
		term        string
		createdAt   string
		confirmedAt sql.NullString
	)
	err := r.Scan(&t.ID, &t.Period.Year, &term, &t.Status, &createdAt, &confirmedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning timetable: %w", err)
	}
	t.Period.Term = period.Term(term)

	t.CreatedAt, err = parseTimestamp(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created at: %w", err)
	}
	if confirmedAt.Valid {
		ts, err := parseTimestamp(confirmedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing confirmed at: %w", err)
		}
		t.ConfirmedAt = &ts
	}
	return &t, nil
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	_ = rows.Close()
	if err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}
	return nil
}

// parseTimestamp parses a timestamp in the formats SQLite might return.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %s", s)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
