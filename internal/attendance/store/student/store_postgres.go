package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scangate/internal/attendance/models"
	id "scangate/pkg/domain"
	"scangate/pkg/platform/sentinel"
)

// PostgresDirectory reads students from the portal's students table:
//
//	CREATE TABLE students (
//	    id           UUID PRIMARY KEY,
//	    school_id    TEXT NOT NULL UNIQUE,
//	    display_name TEXT NOT NULL
//	);
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// LookupByPayload matches the payload as a school ID first, then as an
// internal UUID. A single round trip covers both: the id::text comparison is
// cheap and the payload is at most one of the two.
func (d *PostgresDirectory) LookupByPayload(ctx context.Context, payload string) (models.Student, error) {
	query := `
		SELECT id, school_id, display_name
		FROM students
		WHERE school_id = $1 OR id::text = $1
		LIMIT 1
	`
	var (
		student models.Student
		rawID   string
	)
	err := d.db.QueryRowContext(ctx, query, payload).Scan(&rawID, &student.SchoolID, &student.DisplayName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Student{}, sentinel.ErrNotFound
		}
		return models.Student{}, fmt.Errorf("lookup student: %w", err)
	}

	studentID, err := id.ParseStudentID(rawID)
	if err != nil {
		return models.Student{}, fmt.Errorf("corrupt student id: %w", err)
	}
	student.ID = studentID
	return student, nil
}
