package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS timetables (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			year         INTEGER NOT NULL,
			term         TEXT NOT NULL CHECK(term IN ('I', 'II')),
			status       TEXT NOT NULL DEFAULT 'draft' CHECK(status IN ('draft', 'confirmed')),
			created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
			confirmed_at DATETIME,
			UNIQUE(year, term)
		);

		CREATE TABLE IF NOT EXISTS placements (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timetable_id INTEGER NOT NULL REFERENCES timetables(id) ON DELETE CASCADE,
			session_id   TEXT NOT NULL,
			course_id    TEXT NOT NULL,
			group_no     INTEGER NOT NULL,
			professor_id TEXT NOT NULL DEFAULT '',
			room_id      TEXT NOT NULL,
			day          INTEGER NOT NULL CHECK(day BETWEEN 0 AND 5),
			start_time   TIME NOT NULL,
			end_time     TIME NOT NULL,
			duration     INTEGER NOT NULL CHECK(duration > 0)
		);

		CREATE INDEX IF NOT EXISTS idx_placements_timetable ON placements(timetable_id, day);
		CREATE INDEX IF NOT EXISTS idx_placements_session ON placements(session_id);

		CREATE TABLE IF NOT EXISTS plan_courses (
			timetable_id INTEGER NOT NULL REFERENCES timetables(id) ON DELETE CASCADE,
			course_id    TEXT NOT NULL,
			weekly_hours INTEGER NOT NULL,
			submitted    INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (timetable_id, course_id)
		);

		CREATE TABLE IF NOT EXISTS plan_groups (
			timetable_id  INTEGER NOT NULL REFERENCES timetables(id) ON DELETE CASCADE,
			course_id     TEXT NOT NULL,
			group_no      INTEGER NOT NULL,
			professor_id  TEXT NOT NULL DEFAULT '',
			student_count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (timetable_id, course_id, group_no)
		);

		CREATE TABLE IF NOT EXISTS plan_sessions (
			id           TEXT PRIMARY KEY,
			timetable_id INTEGER NOT NULL REFERENCES timetables(id) ON DELETE CASCADE,
			course_id    TEXT NOT NULL,
			group_no     INTEGER NOT NULL,
			position     INTEGER NOT NULL,
			duration     INTEGER NOT NULL CHECK(duration > 0),
			placed       INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_plan_sessions_timetable ON plan_sessions(timetable_id, course_id);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	return nil
}
