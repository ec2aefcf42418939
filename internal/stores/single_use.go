package stores

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	recordVersionV1 = 1

	// consumed records linger as tombstones so replays report
	// AlreadyConsumed instead of NotFound, bounded to keep keyspace small.
	tombstoneTTL = 10 * time.Minute

	casRetries = 4
)

var (
	ErrNotFound         = errors.New("single-use token not found")
	ErrAlreadyConsumed  = errors.New("single-use token already consumed")
	ErrExpired          = errors.New("single-use token expired")
	ErrMismatch         = errors.New("single-use token mismatch")
	ErrAttemptsExceeded = errors.New("single-use token attempts exceeded")
	ErrRedisUnavailable = errors.New("single-use store redis unavailable")
)

// Record is the persisted state of one single-use token. Only the SHA-256
// digest of the secret is stored.
type Record struct {
	OwnerID    string
	SecretHash [32]byte
	CreatedAt  int64
	ExpiresAt  int64
	Consumed   bool
	Attempts   uint16
}

// SingleUseStore manages single-use tokens keyed by (purpose, owner).
type SingleUseStore struct {
	redis  redis.UniversalClient
	prefix string
	clock  func() time.Time
}

// NewSingleUseStore wires the store to Redis. clock defaults to time.Now.
func NewSingleUseStore(redisClient redis.UniversalClient, prefix string, clock func() time.Time) *SingleUseStore {
	if prefix == "" {
		prefix = "a1u"
	}
	if clock == nil {
		clock = time.Now
	}
	return &SingleUseStore{redis: redisClient, prefix: prefix, clock: clock}
}

func (s *SingleUseStore) key(purpose, ownerID string) string {
	return s.prefix + ":" + purpose + ":" + ownerID
}

// Issue stores a fresh record for (purpose, owner), superseding any prior
// record for the pair. The overwrite is what enforces "one live token per
// purpose per owner": the previous token can never validate again.
func (s *SingleUseStore) Issue(ctx context.Context, purpose, ownerID string, secretHash [32]byte, ttl time.Duration) error {
	now := s.clock()
	record := &Record{
		OwnerID:    ownerID,
		SecretHash: secretHash,
		CreatedAt:  now.Unix(),
		ExpiresAt:  now.Add(ttl).Unix(),
	}

	encoded, err := encodeRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(purpose, ownerID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Validate checks the presented value against the live record without
// consuming it on success. Mismatches still count against maxAttempts, and
// an expired record is tombstoned on first touch so it can never be retried.
func (s *SingleUseStore) Validate(ctx context.Context, purpose, ownerID string, providedHash [32]byte, maxAttempts int) error {
	return s.check(ctx, purpose, ownerID, providedHash, maxAttempts, false)
}

// Consume performs Validate and, on success, flips the record to consumed in
// the same atomic step that read it. Exactly one concurrent caller observes
// success; every other observes ErrAlreadyConsumed.
func (s *SingleUseStore) Consume(ctx context.Context, purpose, ownerID string, providedHash [32]byte, maxAttempts int) error {
	return s.check(ctx, purpose, ownerID, providedHash, maxAttempts, true)
}

func (s *SingleUseStore) check(ctx context.Context, purpose, ownerID string, providedHash [32]byte, maxAttempts int, consume bool) error {
	key := s.key(purpose, ownerID)

	for i := 0; i < casRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeRecord(data)
			if err != nil {
				return err
			}

			if record.Consumed {
				return ErrAlreadyConsumed
			}

			now := s.clock()
			if now.Unix() > record.ExpiresAt {
				// Expiry is terminal: tombstone as consumed.
				if err := writeRecord(ctx, tx, key, record, tombstoneTTL, true); err != nil {
					return err
				}
				return ErrExpired
			}

			if subtle.ConstantTimeCompare(record.SecretHash[:], providedHash[:]) != 1 {
				record.Attempts++
				if int(record.Attempts) >= maxAttempts {
					if err := writeRecord(ctx, tx, key, record, tombstoneTTL, true); err != nil {
						return err
					}
					return ErrAttemptsExceeded
				}

				remaining := time.Duration(record.ExpiresAt-now.Unix()) * time.Second
				if remaining <= 0 {
					remaining = time.Second
				}
				if err := writeRecord(ctx, tx, key, record, remaining, false); err != nil {
					return err
				}
				return ErrMismatch
			}

			if !consume {
				return nil
			}

			return writeRecord(ctx, tx, key, record, tombstoneTTL, true)
		}, key)

		if err == redis.TxFailedErr {
			// Lost the CAS race; re-read and decide again.
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return ErrNotFound
			case errors.Is(err, ErrAlreadyConsumed),
				errors.Is(err, ErrExpired),
				errors.Is(err, ErrMismatch),
				errors.Is(err, ErrAttemptsExceeded):
				return err
			default:
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
		return nil
	}

	return fmt.Errorf("%w: transaction contention", ErrRedisUnavailable)
}

func writeRecord(ctx context.Context, tx *redis.Tx, key string, record *Record, ttl time.Duration, consumed bool) error {
	if consumed {
		record.Consumed = true
	}

	encoded, err := encodeRecord(record)
	if err != nil {
		return err
	}

	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, encoded, ttl)
		return nil
	})
	return err
}

func encodeRecord(record *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordVersionV1)
	if record.Consumed {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.OwnerID) > 65535 {
		return nil, errors.New("single-use record owner id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.OwnerID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.OwnerID)
	buf.Write(record.SecretHash[:])

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordVersionV1 {
		return nil, errors.New("invalid single-use record version")
	}

	consumed, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &Record{Consumed: consumed == 1}

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var ownerLen uint16
	if err := binary.Read(reader, binary.BigEndian, &ownerLen); err != nil {
		return nil, err
	}
	owner := make([]byte, ownerLen)
	if _, err := io.ReadFull(reader, owner); err != nil {
		return nil, err
	}
	record.OwnerID = string(owner)

	if _, err := io.ReadFull(reader, record.SecretHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
