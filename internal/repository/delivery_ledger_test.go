package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerRedisStub struct {
	redis.Cmdable
	keys map[string]string
	ttls map[string]time.Duration
	err  error
}

func newLedgerRedisStub() *ledgerRedisStub {
	return &ledgerRedisStub{keys: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *ledgerRedisStub) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	if s.err != nil {
		return redis.NewBoolResult(false, s.err)
	}
	if _, ok := s.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	s.keys[key] = value.(string)
	s.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (s *ledgerRedisStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	s.keys[key] = value.(string)
	s.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (s *ledgerRedisStub) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := s.keys[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *ledgerRedisStub) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := s.keys[k]; ok {
			delete(s.keys, k)
			delete(s.ttls, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestDeliveryLedgerClaimOnce(t *testing.T) {
	ctx := context.Background()
	stub := newLedgerRedisStub()
	ledger := NewDeliveryLedger(stub, time.Hour, time.Minute)

	ok, err := ledger.Claim(ctx, "msg-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Minute, stub.ttls["notify:delivered:msg-1"])

	require.NoError(t, ledger.Confirm(ctx, "msg-1"))
	assert.Equal(t, time.Hour, stub.ttls["notify:delivered:msg-1"])

	ok, err = ledger.Claim(ctx, "msg-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, ledger.Release(ctx, "msg-1"))
	ok, err = ledger.Claim(ctx, "msg-1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDeliveryLedgerInFlightClaimIsNotADuplicate(t *testing.T) {
	ctx := context.Background()
	stub := newLedgerRedisStub()
	ledger := NewDeliveryLedger(stub, time.Hour, time.Minute)

	ok, err := ledger.Claim(ctx, "msg-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ledger.Claim(ctx, "msg-1")
	require.ErrorContains(t, err, "already being delivered")
	require.False(t, ok)

	// The hold lapses when the attempt dies before Confirm.
	delete(stub.keys, "notify:delivered:msg-1")
	ok, err = ledger.Claim(ctx, "msg-1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDeliveryLedgerPropagatesErrors(t *testing.T) {
	ledger := NewDeliveryLedger(&ledgerRedisStub{err: errors.New("conn refused")}, 0, 0)
	_, err := ledger.Claim(context.Background(), "msg-1")
	require.ErrorContains(t, err, "conn refused")
}
