package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BrooksCoder/RegistrationApp/pkg/config"
)

// Redis list layout: producers LPUSH onto the queue, the consumer moves the
// tail into a processing list and removes it once handled.
func processingList(queue string) string { return queue + ":processing" }
func deadList(queue string) string { return queue + ":dead" }
func attemptsHash(queue string) string { return queue + ":attempts" }

// RedisPublisher pushes messages onto a Redis list.
type RedisPublisher struct {
	client redis.Cmdable
	queue  string
}

// NewRedisPublisher builds a publisher for queue.
func NewRedisPublisher(client redis.Cmdable, queue string) *RedisPublisher {
	return &RedisPublisher{client: client, queue: queue}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, id string, body []byte) error {
	if err := p.client.LPush(ctx, p.queue, body).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", id, err)
	}
	return nil
}

// Transport implements Publisher.
func (p *RedisPublisher) Transport() string { return config.TransportRedis }

// Close implements Publisher. The client is owned by the caller.
func (p *RedisPublisher) Close(context.Context) error { return nil }

// Depth reports messages waiting in the queue.
func (p *RedisPublisher) Depth(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, p.queue).Result()
}

// RedisSubscriber receives from the list written by RedisPublisher. Messages
// left in the processing list by a consumer that stopped before settling them
// are moved back onto the queue on the first Receive.
type RedisSubscriber struct {
	client   redis.Cmdable
	queue    string
	wait     time.Duration
	requeued bool
}

// NewRedisSubscriber builds a subscriber that blocks up to wait per receive.
func NewRedisSubscriber(client redis.Cmdable, queue string, wait time.Duration) *RedisSubscriber {
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &RedisSubscriber{client: client, queue: queue, wait: wait}
}

// Receive implements Subscriber. It returns at most one message per call and
// an empty slice when the wait elapses.
func (s *RedisSubscriber) Receive(ctx context.Context, _ int) ([]Delivery, error) {
	if !s.requeued {
		if _, err := s.Requeue(ctx); err != nil {
			return nil, err
		}
		s.requeued = true
	}
	body, err := s.client.BLMove(ctx, s.queue, processingList(s.queue), "RIGHT", "LEFT", s.wait).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis receive: %w", err)
	}
	id := PeekID([]byte(body))
	attempts, err := s.client.HIncrBy(ctx, attemptsHash(s.queue), id, 1).Result()
	if err != nil {
		attempts = 1
	}
	return []Delivery{&redisDelivery{sub: s, id: id, body: body, attempts: int(attempts)}}, nil
}

// Requeue moves every unsettled message from the processing list back to the
// consuming end of the queue, oldest first, and reports how many moved.
func (s *RedisSubscriber) Requeue(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := s.client.LMove(ctx, processingList(s.queue), s.queue, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("redis requeue: %w", err)
		}
		moved++
	}
}

// Close implements Subscriber.
func (s *RedisSubscriber) Close(context.Context) error { return nil }

type redisDelivery struct {
	sub      *RedisSubscriber
	id       string
	body     string
	attempts int
}

func (d *redisDelivery) ID() string { return d.id }
func (d *redisDelivery) Body() []byte { return []byte(d.body) }
func (d *redisDelivery) Attempts() int { return d.attempts }

func (d *redisDelivery) Complete(ctx context.Context) error {
	if err := d.sub.client.LRem(ctx, processingList(d.sub.queue), 1, d.body).Err(); err != nil {
		return fmt.Errorf("redis complete %s: %w", d.id, err)
	}
	d.sub.client.HDel(ctx, attemptsHash(d.sub.queue), d.id)
	return nil
}

func (d *redisDelivery) Abandon(ctx context.Context) error {
	if err := d.sub.client.LRem(ctx, processingList(d.sub.queue), 1, d.body).Err(); err != nil {
		return fmt.Errorf("redis abandon %s: %w", d.id, err)
	}
	if err := d.sub.client.LPush(ctx, d.sub.queue, d.body).Err(); err != nil {
		return fmt.Errorf("redis abandon %s: %w", d.id, err)
	}
	return nil
}

func (d *redisDelivery) DeadLetter(ctx context.Context, reason string) error {
	if err := d.sub.client.LRem(ctx, processingList(d.sub.queue), 1, d.body).Err(); err != nil {
		return fmt.Errorf("redis dead-letter %s: %w", d.id, err)
	}
	if err := d.sub.client.LPush(ctx, deadList(d.sub.queue), d.body).Err(); err != nil {
		return fmt.Errorf("redis dead-letter %s: %w", d.id, err)
	}
	d.sub.client.HDel(ctx, attemptsHash(d.sub.queue), d.id)
	return nil
}
