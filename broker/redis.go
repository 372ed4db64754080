package broker

import (
	"context"
	"time"

	"github.com/golangid/meshserve/candishared"
	"github.com/golangid/meshserve/codebase/factory/types"
	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/logger"
	"github.com/golangid/meshserve/tracer"
	"github.com/gomodule/redigo/redis"
)

// RedisBroker publish pubsub event to redis channel with same name
type RedisBroker struct {
	pool *redis.Pool
}

// NewRedisBroker setup redis for publish message
func NewRedisBroker(pool *redis.Pool) *RedisBroker {
	return &RedisBroker{pool: pool}
}

// NewRedisPool construct redis pool from url, ex: redis://:password@localhost:6379/0
func NewRedisPool(dsn string) *redis.Pool {
	return &redis.Pool{
		MaxIdle: 3,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(dsn)
		},
		TestOnBorrow: func(c redis.Conn, _ time.Time) error {
			_, err := c.Do("PING")
			return err
		},
	}
}

// GetPublisher method
func (r *RedisBroker) GetPublisher() interfaces.Publisher {
	return r
}

// GetName method
func (r *RedisBroker) GetName() types.Broker {
	return types.Redis
}

// Health method
func (r *RedisBroker) Health() map[string]error {
	ping := r.pool.Get()
	_, err := ping.Do("PING")
	ping.Close()
	return map[string]error{string(types.Redis): err}
}

// Disconnect method
func (r *RedisBroker) Disconnect(ctx context.Context) error {
	deferFunc := logger.LogWithDefer("redis: closing pool...")
	defer deferFunc()

	return r.pool.Close()
}

// PublishMessage method
func (r *RedisBroker) PublishMessage(ctx context.Context, args *candishared.PublisherArgument) (err error) {
	trace, _ := tracer.StartTrace(ctx, "redis_broker:publish_message")
	defer func() {
		trace.SetError(err)
		trace.Finish()
	}()

	if err := args.Validate(); err != nil {
		return err
	}

	trace.SetTag("topic", args.Topic)
	trace.SetTag("key", args.Key)
	trace.Log("message", args.Message)

	conn := r.pool.Get()
	defer conn.Close()

	receivers, err := redis.Int(conn.Do("PUBLISH", args.Topic, args.Message))
	trace.SetTag("receivers", receivers)
	return err
}
