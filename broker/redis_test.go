package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/golangid/meshserve/candishared"
	"github.com/golangid/meshserve/codebase/factory/types"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
)

type fakeRedisConn struct {
	commands [][]interface{}
	err      error
}

func (c *fakeRedisConn) Close() error { return nil }
func (c *fakeRedisConn) Err() error   { return nil }
func (c *fakeRedisConn) Do(commandName string, args ...interface{}) (interface{}, error) {
	c.commands = append(c.commands, append([]interface{}{commandName}, args...))
	if c.err != nil {
		return nil, c.err
	}
	if commandName == "PING" {
		return "PONG", nil
	}
	return int64(1), nil
}
func (c *fakeRedisConn) Send(commandName string, args ...interface{}) error { return nil }
func (c *fakeRedisConn) Flush() error                                       { return nil }
func (c *fakeRedisConn) Receive() (interface{}, error)                      { return nil, nil }

func newFakeRedisPool(conn *fakeRedisConn) *redis.Pool {
	return &redis.Pool{Dial: func() (redis.Conn, error) { return conn, nil }}
}

func TestRedisBroker(t *testing.T) {
	conn := &fakeRedisConn{}
	bk := NewRedisBroker(newFakeRedisPool(conn))
	assert.Equal(t, types.Redis, bk.GetName())

	err := bk.GetPublisher().PublishMessage(context.Background(), &candishared.PublisherArgument{
		Topic: "users:users:insert", Message: []byte(`{"id":1}`),
	})
	assert.NoError(t, err)
	assert.Equal(t, []interface{}{"PUBLISH", "users:users:insert", []byte(`{"id":1}`)}, conn.commands[0])
	assert.NoError(t, bk.Health()["redis"])

	conn.err = errors.New("connection reset")
	assert.EqualError(t, bk.Health()["redis"], "connection reset")
	assert.NoError(t, bk.Disconnect(context.Background()))
}
