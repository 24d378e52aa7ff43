// Package cache stores extraction results keyed by the uploaded bytes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"couponocr/pkg/coupon"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache holds extractions of previously seen uploads.
type Cache interface {
	Get(ctx context.Context, key string) (*coupon.Extraction, bool, error)
	Put(ctx context.Context, key string, x *coupon.Extraction) error
}

// Key is the hex SHA-256 of an upload.
func Key(buf []byte) string {
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// Nop never hits.
type Nop struct{}

func (Nop) Get(context.Context, string) (*coupon.Extraction, bool, error) { return nil, false, nil }
func (Nop) Put(context.Context, string, *coupon.Extraction) error        { return nil }

// Memory is an in-process LRU cache with a per-entry TTL, used when no redis
// is configured. Expired entries are purged in the background.
type Memory struct {
	lru *expirable.LRU[string, coupon.Extraction]
}

// NewMemory keeps at most size entries for ttl each.
func NewMemory(size int, ttl time.Duration) *Memory {
	return &Memory{lru: expirable.NewLRU[string, coupon.Extraction](size, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (*coupon.Extraction, bool, error) {
	x, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	x.Result = append([]coupon.FieldResult(nil), x.Result...)
	return &x, true, nil
}

func (m *Memory) Put(_ context.Context, key string, x *coupon.Extraction) error {
	cp := *x
	cp.Result = append([]coupon.FieldResult(nil), x.Result...)
	m.lru.Add(key, cp)
	return nil
}

// Len is the number of entries held, expired ones not yet purged included.
func (m *Memory) Len() int {
	return m.lru.Len()
}
