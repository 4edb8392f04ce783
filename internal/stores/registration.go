package stores

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrReservationHeld             = errors.New("registration reservation held")
	ErrReservationRedisUnavailable = errors.New("registration reservation redis unavailable")
)

// RegistrationReservations guards the window between hashing and saving a
// new account so two registrations of one email cannot both reach Save.
type RegistrationReservations struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRegistrationReservations(redisClient redis.UniversalClient, prefix string) *RegistrationReservations {
	if prefix == "" {
		prefix = "ea"
	}
	return &RegistrationReservations{
		redis:  redisClient,
		prefix: prefix + ":reg",
	}
}

func (s *RegistrationReservations) key(email string) string {
	return s.prefix + ":" + email
}

// Reserve claims email for ttl and returns the owner token needed by Release.
func (s *RegistrationReservations) Reserve(ctx context.Context, email string, ttl time.Duration) (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw[:])

	ok, err := s.redis.SetNX(ctx, s.key(email), token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReservationRedisUnavailable, err)
	}
	if !ok {
		return "", ErrReservationHeld
	}

	return token, nil
}

// Release deletes the reservation if token still owns it.
func (s *RegistrationReservations) Release(ctx context.Context, email, token string) error {
	const maxRetries = 4
	key := s.key(email)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, key).Result()
			if err != nil {
				return err
			}
			if current != token {
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}, key)

		if err == nil || errors.Is(err, redis.Nil) {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("%w: %v", ErrReservationRedisUnavailable, err)
	}

	return fmt.Errorf("%w: release contention", ErrReservationRedisUnavailable)
}

// Held reports whether email is currently reserved.
func (s *RegistrationReservations) Held(ctx context.Context, email string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(email)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrReservationRedisUnavailable, err)
	}
	return n > 0, nil
}
