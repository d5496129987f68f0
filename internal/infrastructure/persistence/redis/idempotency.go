package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/minipos/internal/domain/sale"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

// IdempotencyStore 结账幂等键
// Key: idempotency:{key}，值为JSON {fp, invoice_no}
type IdempotencyStore struct {
	client *redis.Client
}

var _ sale.IdempotencyStore = (*IdempotencyStore)(nil)

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

type idempotencyRecord struct {
	Fingerprint string `json:"fp"`
	InvoiceNo   string `json:"invoice_no,omitempty"`
}

func idempotencyKey(key string) string {
	return "idempotency:" + key
}

// reserveAttempts 读取时key恰好过期会再占用一次，仍落空则报错
const reserveAttempts = 2

var errReserveExpired = errors.New("idempotency key expired between SETNX and GET")

// Reserve SETNX占用，失败时读出已有记录
func (s *IdempotencyStore) Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (sale.Reservation, error) {
	value, _ := json.Marshal(idempotencyRecord{Fingerprint: fingerprint})

	for attempt := 0; attempt < reserveAttempts; attempt++ {
		ok, err := s.client.SetNX(ctx, idempotencyKey(key), value, ttl).Result()
		if err != nil {
			return sale.Reservation{}, apperrors.ErrRedisError.WithErr(err)
		}
		if ok {
			return sale.Reservation{Acquired: true, Fingerprint: fingerprint}, nil
		}

		raw, err := s.client.Get(ctx, idempotencyKey(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return sale.Reservation{}, apperrors.ErrRedisError.WithErr(err)
		}

		var rec idempotencyRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return sale.Reservation{}, apperrors.ErrRedisError.WithErr(err)
		}
		return sale.Reservation{Fingerprint: rec.Fingerprint, InvoiceNo: rec.InvoiceNo}, nil
	}
	return sale.Reservation{}, apperrors.ErrRedisError.WithErr(errReserveExpired)
}

// Complete 登记单号，key已被释放或过期时忽略
func (s *IdempotencyStore) Complete(ctx context.Context, key, invoiceNo string, ttl time.Duration) error {
	raw, err := s.client.Get(ctx, idempotencyKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return apperrors.ErrRedisError.WithErr(err)
	}

	var rec idempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return apperrors.ErrRedisError.WithErr(err)
	}
	rec.InvoiceNo = invoiceNo
	value, _ := json.Marshal(rec)

	if err := s.client.SetXX(ctx, idempotencyKey(key), value, ttl).Err(); err != nil {
		return apperrors.ErrRedisError.WithErr(err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(key)).Err(); err != nil {
		return apperrors.ErrRedisError.WithErr(err)
	}
	return nil
}
