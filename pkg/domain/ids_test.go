package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "scangate/pkg/domain-errors"
)

// TestParseStudentID_Invariants validates the parsing invariant:
// "student IDs must be valid, non-empty, non-nil UUIDs".
func TestParseStudentID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseStudentID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseStudentID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseStudentID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseStudentID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, StudentID(validUUID), id)
	})
}

func TestParseDeviceID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDeviceID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts opaque identifiers", func(t *testing.T) {
		id, err := ParseDeviceID("sbo-gate-1")
		require.NoError(t, err)
		assert.Equal(t, DeviceID("sbo-gate-1"), id)
	})
}

func TestDay(t *testing.T) {
	manila, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)

	t.Run("truncates to calendar date", func(t *testing.T) {
		morning := time.Date(2026, time.March, 9, 7, 15, 0, 0, manila)
		afternoon := time.Date(2026, time.March, 9, 16, 45, 0, 0, manila)
		assert.Equal(t, DayOf(morning), DayOf(afternoon))
	})

	t.Run("string round trip", func(t *testing.T) {
		d, err := ParseDay("2026-03-09")
		require.NoError(t, err)
		assert.Equal(t, "2026-03-09", d.String())
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		_, err := ParseDay("09/03/2026")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("midnight in location", func(t *testing.T) {
		d, err := ParseDay("2026-03-09")
		require.NoError(t, err)
		at := d.Time(manila)
		assert.Equal(t, 0, at.Hour())
		assert.Equal(t, manila, at.Location())
	})
}

func TestParseEntryKind(t *testing.T) {
	t.Run("accepts time_in and time_out", func(t *testing.T) {
		for _, raw := range []string{"time_in", "time_out"} {
			k, err := ParseEntryKind(raw)
			require.NoError(t, err)
			assert.True(t, k.IsValid())
		}
	})

	t.Run("rejects anything else", func(t *testing.T) {
		for _, raw := range []string{"", "lunch", "TIME_IN"} {
			_, err := ParseEntryKind(raw)
			require.Error(t, err, "raw=%q", raw)
		}
	})
}
