package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/xiebiao/minipos/internal/domain/sale"
	"github.com/xiebiao/minipos/internal/domain/user"
	apperrors "github.com/xiebiao/minipos/pkg/errors"
)

// KV 带过期时间的键值存储，未启用Redis时替代会话和幂等键存储
type KV struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]kvEntry
}

type kvEntry struct {
	value     interface{}
	expiresAt time.Time
}

// NewKV 创建KV
func NewKV() *KV {
	return &KV{now: time.Now, entries: map[string]kvEntry{}}
}

// get 调用方需持有mu
func (kv *KV) get(key string) (interface{}, bool) {
	e, ok := kv.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !kv.now().Before(e.expiresAt) {
		delete(kv.entries, key)
		return nil, false
	}
	return e.value, true
}

func (kv *KV) set(key string, value interface{}, ttl time.Duration) {
	e := kvEntry{value: value}
	if ttl > 0 {
		e.expiresAt = kv.now().Add(ttl)
	}
	kv.entries[key] = e
}

// Sessions 会话存储视图
func (kv *KV) Sessions() user.SessionStore { return sessionStore{kv} }

// Idempotency 幂等键存储视图
func (kv *KV) Idempotency() sale.IdempotencyStore { return idempotencyStore{kv} }

type sessionStore struct{ kv *KV }

func sessionKey(userID uint) string {
	return "session:" + strconv.FormatUint(uint64(userID), 10)
}

func (s sessionStore) SaveSession(_ context.Context, session user.Session, ttl time.Duration) error {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	s.kv.set(sessionKey(session.UserID), session, ttl)
	return nil
}

func (s sessionStore) GetSession(_ context.Context, userID uint) (*user.Session, error) {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	v, ok := s.kv.get(sessionKey(userID))
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}
	session := v.(user.Session)
	return &session, nil
}

func (s sessionStore) DeleteSession(_ context.Context, userID uint) error {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	delete(s.kv.entries, sessionKey(userID))
	return nil
}

func (s sessionStore) AddToBlacklist(_ context.Context, token string, ttl time.Duration) error {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	s.kv.set("blacklist:"+token, true, ttl)
	return nil
}

func (s sessionStore) IsInBlacklist(_ context.Context, token string) (bool, error) {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	_, ok := s.kv.get("blacklist:" + token)
	return ok, nil
}

type idempotencyStore struct{ kv *KV }

func (s idempotencyStore) Reserve(_ context.Context, key, fingerprint string, ttl time.Duration) (sale.Reservation, error) {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	k := "idempotency:" + key
	if v, ok := s.kv.get(k); ok {
		r := v.(sale.Reservation)
		r.Acquired = false
		return r, nil
	}
	s.kv.set(k, sale.Reservation{Fingerprint: fingerprint}, ttl)
	return sale.Reservation{Acquired: true, Fingerprint: fingerprint}, nil
}

func (s idempotencyStore) Complete(_ context.Context, key, invoiceNo string, ttl time.Duration) error {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	k := "idempotency:" + key
	v, ok := s.kv.get(k)
	if !ok {
		return nil
	}
	r := v.(sale.Reservation)
	r.InvoiceNo = invoiceNo
	s.kv.set(k, r, ttl)
	return nil
}

func (s idempotencyStore) Release(_ context.Context, key string) error {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	delete(s.kv.entries, "idempotency:"+key)
	return nil
}
