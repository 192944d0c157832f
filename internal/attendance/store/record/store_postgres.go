package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"scangate/internal/attendance/models"
	id "scangate/pkg/domain"
	"scangate/pkg/platform/sentinel"
)

// PostgresStore persists attendance records in PostgreSQL.
// This store is pure I/O - the decision table and write policy live in the
// resolver and recorder. What belongs here is the uniqueness constraint:
//
//	CREATE TABLE attendance_records (
//	    id         UUID PRIMARY KEY,
//	    student_id UUID NOT NULL,
//	    date       DATE NOT NULL,
//	    time_in    TIMESTAMPTZ,
//	    time_out   TIMESTAMPTZ,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL,
//	    UNIQUE (student_id, date)
//	);
type PostgresStore struct {
	db  *sql.DB
	loc *time.Location
}

// NewPostgres constructs a PostgreSQL-backed record store. The location is
// the institution time zone used to persist the date column.
func NewPostgres(db *sql.DB, loc *time.Location) *PostgresStore {
	if loc == nil {
		loc = time.Local
	}
	return &PostgresStore{db: db, loc: loc}
}

const pqUniqueViolation = "23505"

func (s *PostgresStore) FindForDay(ctx context.Context, studentID id.StudentID, day id.Day) (models.AttendanceRecord, error) {
	query := `
		SELECT id, student_id, date, time_in, time_out, created_at, updated_at
		FROM attendance_records
		WHERE student_id = $1 AND date = $2
	`
	rec, err := s.scanRecord(s.db.QueryRowContext(ctx, query, studentID.String(), day.Time(s.loc)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AttendanceRecord{}, sentinel.ErrNotFound
		}
		return models.AttendanceRecord{}, fmt.Errorf("find attendance record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Insert(ctx context.Context, studentID id.StudentID, day id.Day, kind id.EntryKind, at time.Time) (models.AttendanceRecord, error) {
	column, err := punchColumn(kind)
	if err != nil {
		return models.AttendanceRecord{}, err
	}

	query := fmt.Sprintf(`
		INSERT INTO attendance_records (id, student_id, date, %s, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, student_id, date, time_in, time_out, created_at, updated_at
	`, column)
	rec, err := s.scanRecord(s.db.QueryRowContext(ctx, query, uuid.NewString(), studentID.String(), day.Time(s.loc), at, at))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return models.AttendanceRecord{}, sentinel.ErrConflict
		}
		return models.AttendanceRecord{}, fmt.Errorf("insert attendance record: %w", err)
	}
	return rec, nil
}

// SetIfAbsent atomically populates the punch column only when it is NULL.
// The conditional UPDATE prevents TOCTOU races between resolution and write:
// whichever device commits first wins, the loser is told the field is taken.
func (s *PostgresStore) SetIfAbsent(ctx context.Context, studentID id.StudentID, day id.Day, kind id.EntryKind, at time.Time) (models.AttendanceRecord, error) {
	column, err := punchColumn(kind)
	if err != nil {
		return models.AttendanceRecord{}, err
	}

	query := fmt.Sprintf(`
		UPDATE attendance_records
		SET %s = $3, updated_at = $4
		WHERE student_id = $1 AND date = $2 AND %s IS NULL
		RETURNING id, student_id, date, time_in, time_out, created_at, updated_at
	`, column, column)
	rec, err := s.scanRecord(s.db.QueryRowContext(ctx, query, studentID.String(), day.Time(s.loc), at, at))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.AttendanceRecord{}, fmt.Errorf("set attendance field: %w", err)
	}

	// No row matched: either the record is missing or the field is taken.
	if _, findErr := s.FindForDay(ctx, studentID, day); findErr != nil {
		return models.AttendanceRecord{}, findErr
	}
	return models.AttendanceRecord{}, sentinel.ErrAlreadyRecorded
}

func punchColumn(kind id.EntryKind) (string, error) {
	switch kind {
	case id.EntryTimeIn:
		return "time_in", nil
	case id.EntryTimeOut:
		return "time_out", nil
	default:
		return "", fmt.Errorf("unknown entry kind %q", kind)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanRecord(row rowScanner) (models.AttendanceRecord, error) {
	var (
		rec        models.AttendanceRecord
		rawID      string
		rawStudent string
		rawDate    time.Time
		timeIn     sql.NullTime
		timeOut    sql.NullTime
	)
	if err := row.Scan(&rawID, &rawStudent, &rawDate, &timeIn, &timeOut, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return models.AttendanceRecord{}, err
	}

	parsed, err := uuid.Parse(rawID)
	if err != nil {
		return models.AttendanceRecord{}, fmt.Errorf("corrupt record id: %w", err)
	}
	rec.ID = parsed

	studentID, err := id.ParseStudentID(rawStudent)
	if err != nil {
		return models.AttendanceRecord{}, fmt.Errorf("corrupt student id: %w", err)
	}
	rec.StudentID = studentID

	// DATE columns come back as midnight UTC; read the calendar date as-is
	// rather than shifting zones.
	rec.Date = id.DayOf(rawDate)
	if timeIn.Valid {
		t := timeIn.Time
		rec.TimeIn = &t
	}
	if timeOut.Valid {
		t := timeOut.Time
		rec.TimeOut = &t
	}
	return rec, nil
}
