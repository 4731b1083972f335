// Package database owns the console's Redis connection and the
// durable per-session state stored in it. The console keeps no
// database of its own: projects, integrations and syncs live behind
// the platform API, so Redis holds only session state, cached query
// results and rate-limit counters.
package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/GrandGaleTechnologies/docops-console/pkg/config"
	"github.com/GrandGaleTechnologies/docops-console/pkg/utils"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrSessionNotFound is returned when no state exists for a session id,
// either because it never existed or because it expired.
var ErrSessionNotFound = errors.New("session not found")

// Hash field names for per-session state. auth_token, auth_refresh_token
// and auth_user are the browser-visible names and must not change; the
// remaining fields are console-side session metadata.
const (
	fieldAuthToken        = "auth_token"
	fieldAuthRefreshToken = "auth_refresh_token"
	fieldAuthUser         = "auth_user"
	fieldUserID           = "user_id"
	fieldDeviceInfo       = "device_info"
	fieldIPAddress        = "ip_address"
	fieldCreatedAt        = "created_at"
)

// SessionState is the durable state of one browser session. AuthUser
// is the JSON-serialized user projection exactly as stored; decoding
// it (and deciding what a malformed value means) is the session
// service's job, not this layer's.
type SessionState struct {
	AuthToken        string
	AuthRefreshToken string
	AuthUser         string
	UserID           string
	DeviceInfo       string
	IPAddress        string
	CreatedAt        time.Time
}

// RedisDB wraps a Redis client for session storage, query caching and
// rate limiting. Each browser session lives under one hash keyed by
// its session id, so login writes and logout deletes are atomic.
type RedisDB struct {
	client *redis.Client
}

// NewRedisDB creates a new Redis connection with automatic retry and
// exponential backoff.
//
// Example:
//
//	redisDB, err := database.NewRedisDB(&cfg.Redis)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Redis connection failed")
//	}
//	defer redisDB.Close()
func NewRedisDB(cfg *config.RedisConfig) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	// Verify connection with retry
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var lastErr error
	err := utils.Retry(ctx, utils.StoreRetryConfig(), func() error {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pingCancel()

		if err := client.Ping(pingCtx).Err(); err != nil {
			lastErr = err
			log.Warn().Err(err).Msg("Failed to ping Redis, retrying...")
			return err
		}
		return nil
	})

	if err != nil {
		client.Close()
		if lastErr != nil {
			return nil, fmt.Errorf("failed to connect to Redis after retries: %w", lastErr)
		}
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Msg("Successfully connected to Redis")

	return &RedisDB{client: client}, nil
}

// Close closes the Redis connection and releases all resources.
func (r *RedisDB) Close() error {
	return r.client.Close()
}

// Client returns the underlying Redis client. The query cache and the
// rate limiter share this connection pool.
func (r *RedisDB) Client() *redis.Client {
	return r.client
}

// Ping verifies the connection is alive. Used by the readiness probe.
func (r *RedisDB) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func sessionKey(sid string) string {
	return "session:" + sid
}

// SetSessionState stores the full state for a session in one HSET, so
// a failed login can never leave a half-written session behind.
//
// Example:
//
//	err := redisDB.SetSessionState(ctx, sid, database.SessionState{
//	    AuthToken:        tokens.AccessToken,
//	    AuthRefreshToken: tokens.RefreshToken,
//	    AuthUser:         string(userJSON),
//	    UserID:           strconv.FormatInt(user.ID, 10),
//	    DeviceInfo:       "Chrome 128 · Windows 11 · Desktop",
//	    IPAddress:        "203.0.113.42",
//	    CreatedAt:        time.Now(),
//	}, 7*24*time.Hour)
func (r *RedisDB) SetSessionState(ctx context.Context, sid string, state SessionState, expiry time.Duration) error {
	key := sessionKey(sid)
	fields := map[string]interface{}{
		fieldAuthToken:        state.AuthToken,
		fieldAuthRefreshToken: state.AuthRefreshToken,
		fieldAuthUser:         state.AuthUser,
		fieldUserID:           state.UserID,
		fieldDeviceInfo:       state.DeviceInfo,
		fieldIPAddress:        state.IPAddress,
		fieldCreatedAt:        state.CreatedAt.Unix(),
	}

	if err := r.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("failed to set session state: %w", err)
	}
	if err := r.client.Expire(ctx, key, expiry).Err(); err != nil {
		return fmt.Errorf("failed to set session expiry: %w", err)
	}
	return nil
}

// GetSessionState retrieves the stored state for a session id. Returns
// ErrSessionNotFound when nothing is stored under the id.
func (r *RedisDB) GetSessionState(ctx context.Context, sid string) (*SessionState, error) {
	result, err := r.client.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session state: %w", err)
	}
	if len(result) == 0 {
		return nil, ErrSessionNotFound
	}

	state := &SessionState{
		AuthToken:        result[fieldAuthToken],
		AuthRefreshToken: result[fieldAuthRefreshToken],
		AuthUser:         result[fieldAuthUser],
		UserID:           result[fieldUserID],
		DeviceInfo:       result[fieldDeviceInfo],
		IPAddress:        result[fieldIPAddress],
	}
	if unix, err := strconv.ParseInt(result[fieldCreatedAt], 10, 64); err == nil {
		state.CreatedAt = time.Unix(unix, 0)
	}
	return state, nil
}

// SetSessionTokens replaces both tokens for a session, leaving the
// stored user and metadata untouched. Used after a refresh rotation.
func (r *RedisDB) SetSessionTokens(ctx context.Context, sid, accessToken, refreshToken string) error {
	fields := map[string]interface{}{
		fieldAuthToken:        accessToken,
		fieldAuthRefreshToken: refreshToken,
	}
	if err := r.client.HSet(ctx, sessionKey(sid), fields).Err(); err != nil {
		return fmt.Errorf("failed to set session tokens: %w", err)
	}
	return nil
}

// SetSessionUser replaces only the stored user projection. Tokens and
// metadata are untouched.
func (r *RedisDB) SetSessionUser(ctx context.Context, sid, userJSON string) error {
	if err := r.client.HSet(ctx, sessionKey(sid), fieldAuthUser, userJSON).Err(); err != nil {
		return fmt.Errorf("failed to set session user: %w", err)
	}
	return nil
}

// DeleteSessionState removes all stored state for a session id. Safe
// to call for ids that no longer exist.
func (r *RedisDB) DeleteSessionState(ctx context.Context, sid string) error {
	if err := r.client.Del(ctx, sessionKey(sid)).Err(); err != nil {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}

// ListUserSessions returns the session ids belonging to a user, with
// their metadata. Uses SCAN in batches of 100 to avoid blocking Redis;
// the console's session count is small, so a full scan is acceptable.
func (r *RedisDB) ListUserSessions(ctx context.Context, userID string) (map[string]*SessionState, error) {
	sessions := make(map[string]*SessionState)
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, "session:*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan sessions: %w", err)
		}

		for _, key := range keys {
			sid := key[len("session:"):]
			state, err := r.GetSessionState(ctx, sid)
			if err != nil {
				if errors.Is(err, ErrSessionNotFound) {
					continue // expired between SCAN and HGETALL
				}
				return nil, err
			}
			if state.UserID == userID {
				sessions[sid] = state
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return sessions, nil
}

// IncrementRateLimit bumps the fixed-window counter for an ip/endpoint
// pair and returns the new count. The window starts on the first hit.
//
// Example:
//
//	count, err := redisDB.IncrementRateLimit(ctx, "203.0.113.42", "login", time.Minute)
//	if count > int64(cfg.RateLimit.RequestsPerMinute) {
//	    // reject
//	}
func (r *RedisDB) IncrementRateLimit(ctx context.Context, ip, endpoint string, window time.Duration) (int64, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", ip, endpoint)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	// Set expiry on first request
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	return count, nil
}

// GetRateLimitCount reads the current counter without incrementing.
func (r *RedisDB) GetRateLimitCount(ctx context.Context, ip, endpoint string) (int64, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", ip, endpoint)
	count, err := r.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rate limit count: %w", err)
	}
	return count, nil
}
