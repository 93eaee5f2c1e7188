// Package otp issues and checks one-time password-reset codes kept in Redis.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codeDigits         = 6
	DefaultMaxAttempts = 5
)

var (
	ErrInvalidCode     = errors.New("invalid or expired code")
	ErrTooManyAttempts = errors.New("too many attempts, request a new code")
)

// Store keeps one active code per email; a new Issue replaces the old one.
type Store struct {
	cache       *redis.Client
	ttl         time.Duration
	maxAttempts int64
}

func NewStore(cache *redis.Client, ttl time.Duration) *Store {
	return &Store{cache: cache, ttl: ttl, maxAttempts: DefaultMaxAttempts}
}

// TTL is how long an issued code stays valid.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Issue generates a fresh code for email and resets its attempt counter.
func (s *Store) Issue(ctx context.Context, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	pipe := s.cache.TxPipeline()
	pipe.Set(ctx, codeKey(email), code, s.ttl)
	pipe.Del(ctx, attemptsKey(email))
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks code without using it up. Every guess is counted before the
// comparison, so concurrent guesses cannot get past the limit; a match resets
// the counter.
func (s *Store) Verify(ctx context.Context, email, code string) error {
	stored, err := s.cache.Get(ctx, codeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}

	pipe := s.cache.TxPipeline()
	attempts := pipe.Incr(ctx, attemptsKey(email))
	pipe.Expire(ctx, attemptsKey(email), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("count otp attempt: %w", err)
	}
	if attempts.Val() > s.maxAttempts {
		return ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) != 1 {
		return ErrInvalidCode
	}
	if err := s.cache.Del(ctx, attemptsKey(email)).Err(); err != nil {
		return fmt.Errorf("reset otp attempts: %w", err)
	}
	return nil
}

// Consume verifies code and deletes it so it cannot be replayed.
func (s *Store) Consume(ctx context.Context, email, code string) error {
	if err := s.Verify(ctx, email, code); err != nil {
		return err
	}
	if err := s.cache.Del(ctx, codeKey(email), attemptsKey(email)).Err(); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

func generateCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func codeKey(email string) string {
	return "otp:reset:" + strings.ToLower(strings.TrimSpace(email))
}

func attemptsKey(email string) string {
	return "otp:attempts:" + strings.ToLower(strings.TrimSpace(email))
}
