// Package redisstore keeps typed values in Redis hashes as JSON or JSV text.
// Each key holds two fields: the serialized document and the name of the
// format it was written in.
package redisstore

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/reoring/typetext"
)

const (
	fieldData   = "data"
	fieldFormat = "format"
)

var (
	// ErrNotFound is returned when the key does not exist.
	ErrNotFound = errors.New("redisstore: not found")
	// ErrFormatMismatch is returned when a stored value was written in a
	// different format than the store reads.
	ErrFormatMismatch = errors.New("redisstore: stored format differs")
)

// Option configures a Store.
type Option func(*config)

type config struct {
	prefix  string
	ttl     time.Duration
	retries uint64
	log     *zap.Logger
}

// WithPrefix prepends prefix to every key.
func WithPrefix(prefix string) Option { return func(c *config) { c.prefix = prefix } }

// WithTTL sets the expiry applied on Put. Zero keeps keys forever.
func WithTTL(ttl time.Duration) Option { return func(c *config) { c.ttl = ttl } }

// WithRetries sets how many times a failed Redis call is retried.
func WithRetries(n uint64) Option { return func(c *config) { c.retries = n } }

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// Store reads and writes values through a typetext.Serializer.
type Store struct {
	client redis.UniversalClient
	ser    *typetext.Serializer
	cfg    config
}

// New wraps an existing client.
func New(client redis.UniversalClient, ser *typetext.Serializer, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("redisstore: client is nil")
	}
	if ser == nil {
		return nil, errors.New("redisstore: serializer is nil")
	}
	cfg := config{retries: 2, log: zap.NewNop()}
	for _, o := range opts {
		o(&cfg)
	}
	cfg.log = cfg.log.With(zap.String("component", "redisstore"), zap.String("format", ser.Format()))
	return &Store{client: client, ser: ser, cfg: cfg}, nil
}

func (s *Store) key(k string) string { return s.cfg.prefix + k }

// do runs op with exponential backoff. Errors wrapped in
// backoff.Permanent stop the retries.
func (s *Store) do(ctx context.Context, name string, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = time.Second
	b := backoff.WithContext(backoff.WithMaxRetries(bo, s.cfg.retries), ctx)
	return backoff.RetryNotify(op, b, func(err error, next time.Duration) {
		s.cfg.log.Warn("redis call failed, retrying", zap.String("op", name), zap.Error(err), zap.Duration("next", next))
	})
}

// Put serializes v and stores it under key.
func (s *Store) Put(ctx context.Context, key string, v any) error {
	data, err := s.ser.Serialize(v)
	if err != nil {
		return errors.Wrapf(err, "redisstore: serialize %s", key)
	}
	k := s.key(key)
	return s.do(ctx, "put", func() error {
		pipe := s.client.TxPipeline()
		pipe.HSet(ctx, k, fieldData, data, fieldFormat, s.ser.Format())
		if s.cfg.ttl > 0 {
			pipe.Expire(ctx, k, s.cfg.ttl)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
}

// Get reads the value stored under key into out.
func (s *Store) Get(ctx context.Context, key string, out any) error {
	var res map[string]string
	k := s.key(key)
	err := s.do(ctx, "get", func() error {
		var err error
		res, err = s.client.HGetAll(ctx, k).Result()
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "redisstore: get %s", key)
	}
	if len(res) == 0 {
		return errors.Wrapf(ErrNotFound, "key %s", key)
	}
	if f := res[fieldFormat]; f != "" && f != s.ser.Format() {
		return errors.Wrapf(ErrFormatMismatch, "key %s holds %s", key, f)
	}
	return s.ser.Deserialize([]byte(res[fieldData]), out)
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	k := s.key(key)
	return s.do(ctx, "delete", func() error { return s.client.Del(ctx, k).Err() })
}

// Load reads the value stored under key as a T.
func Load[T any](ctx context.Context, s *Store, key string) (T, error) {
	var v T
	err := s.Get(ctx, key, &v)
	return v, err
}
