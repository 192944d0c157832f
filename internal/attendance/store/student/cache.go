package student

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"scangate/internal/attendance/models"
	id "scangate/pkg/domain"
	"scangate/pkg/platform/circuit"
	"scangate/pkg/platform/sentinel"
)

const cacheKeyPrefix = "scangate:student:"

// Directory is the lookup behavior this package's stores implement.
type Directory interface {
	LookupByPayload(ctx context.Context, payload string) (models.Student, error)
}

// CachedDirectory fronts a directory with a Redis TTL cache. Morning rush has
// the whole school scanning within minutes; the cache keeps directory load
// flat. Misses (unknown payloads) are not cached so a student enrolled
// mid-day becomes scannable immediately.
type CachedDirectory struct {
	inner   Directory
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	breaker *circuit.Breaker
}

type cachedStudent struct {
	ID          string `json:"id"`
	SchoolID    string `json:"school_id"`
	DisplayName string `json:"display_name"`
}

// NewCachedDirectory wraps inner with a Redis cache. A nil client disables
// caching and the wrapper becomes a pass-through. Repeated Redis failures
// open a breaker that routes lookups straight to the directory until the
// cache answers again.
func NewCachedDirectory(inner Directory, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedDirectory {
	return &CachedDirectory{
		inner:   inner,
		client:  client,
		ttl:     ttl,
		logger:  logger,
		breaker: circuit.New("student-cache", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(2)),
	}
}

func (d *CachedDirectory) LookupByPayload(ctx context.Context, payload string) (models.Student, error) {
	if d.client == nil {
		return d.inner.LookupByPayload(ctx, payload)
	}

	key := cacheKeyPrefix + payload
	if !d.breaker.IsOpen() {
		raw, err := d.client.Get(ctx, key).Result()
		if err == nil {
			d.breaker.RecordSuccess()
			var cached cachedStudent
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				if studentID, parseErr := id.ParseStudentID(cached.ID); parseErr == nil {
					return models.Student{
						ID:          studentID,
						SchoolID:    cached.SchoolID,
						DisplayName: cached.DisplayName,
					}, nil
				}
			}
			// Corrupt cache entry: fall through to the directory and rewrite.
		} else if errors.Is(err, redis.Nil) {
			d.breaker.RecordSuccess()
		} else {
			// Cache trouble must not fail the scan; the directory still answers.
			if _, change := d.breaker.RecordFailure(); change.Opened && d.logger != nil {
				d.logger.WarnContext(ctx, "student cache breaker opened", "error", err)
			} else if d.logger != nil {
				d.logger.WarnContext(ctx, "student cache read failed", "error", err)
			}
		}
	}

	student, err := d.inner.LookupByPayload(ctx, payload)
	if err != nil {
		return models.Student{}, err
	}

	encoded, err := json.Marshal(cachedStudent{
		ID:          student.ID.String(),
		SchoolID:    student.SchoolID,
		DisplayName: student.DisplayName,
	})
	if err == nil {
		// The write doubles as the recovery probe while the breaker is open.
		if setErr := d.client.Set(ctx, key, encoded, d.ttl).Err(); setErr != nil {
			d.breaker.RecordFailure()
			if d.logger != nil {
				d.logger.WarnContext(ctx, "student cache write failed", "error", setErr)
			}
		} else if _, change := d.breaker.RecordSuccess(); change.Closed && d.logger != nil {
			d.logger.InfoContext(ctx, "student cache breaker closed")
		}
	}
	return student, nil
}

// Invalidate drops the cache entry for a payload. Exposed for enrollment
// update hooks.
func (d *CachedDirectory) Invalidate(ctx context.Context, payload string) error {
	if d.client == nil {
		return nil
	}
	if err := d.client.Del(ctx, cacheKeyPrefix+payload).Err(); err != nil {
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	return nil
}
