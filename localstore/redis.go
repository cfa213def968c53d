package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis keeps session keys in Redis under "<prefix><session>:<key>" and broadcasts
// changes on the "<prefix><session>:storage" channel. Keys expire ttl after their
// last write; a zero ttl keeps them forever.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *Redis {
	if prefix == "" {
		prefix = "krushee:session:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, log: logger.Named("localstore")}
}

func (r *Redis) For(sessionID string) Store {
	return &redisSession{r: r, base: r.prefix + sessionID + ":"}
}

type redisSession struct {
	r    *Redis
	base string
}

func (s *redisSession) key(name string) string {
	return s.base + name
}

func (s *redisSession) channel() string {
	return s.base + "storage"
}

func (s *redisSession) ReadKey(ctx context.Context, name string) (string, bool, error) {
	v, err := s.r.client.Get(ctx, s.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", name, err)
	}
	return v, true, nil
}

func (s *redisSession) WriteKey(ctx context.Context, name, value string) error {
	if err := s.r.client.Set(ctx, s.key(name), value, s.r.ttl).Err(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *redisSession) RemoveKey(ctx context.Context, name string) error {
	if err := s.r.client.Del(ctx, s.key(name)).Err(); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

func (s *redisSession) Broadcast(ctx context.Context, name string) error {
	if err := s.r.client.Publish(ctx, s.channel(), name).Err(); err != nil {
		return fmt.Errorf("broadcast %s: %w", name, err)
	}
	return nil
}

func (s *redisSession) Watch(ctx context.Context, onChange func(name string)) (func(), error) {
	pubsub := s.r.client.Subscribe(ctx, s.channel())
	// Wait for the subscription confirmation so no broadcast sent after Watch returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("watch %s: %w", s.channel(), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				onChange(msg.Payload)
			}
		}
	}()

	return func() {
		cancel()
		if err := pubsub.Close(); err != nil {
			s.r.log.Debug("close pubsub", zap.Error(err))
		}
		<-done
	}, nil
}
