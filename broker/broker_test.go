package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/golangid/meshserve/codebase/factory/types"
	"github.com/stretchr/testify/assert"
)

func TestInitBrokers(t *testing.T) {
	redisConn := &fakeRedisConn{}
	natsConn := &fakeNATSConn{connected: true}
	redisBroker := NewRedisBroker(newFakeRedisPool(redisConn))
	natsBroker := &NATSBroker{conn: natsConn}

	bk := InitBrokers(redisBroker, natsBroker)
	assert.Len(t, bk.GetBrokers(), 2)
	assert.Equal(t, []interface{}{natsBroker, redisBroker}, []interface{}{bk.Publishers()[0], bk.Publishers()[1]})
	assert.Equal(t, map[string]error{"redis": nil, "nats": nil}, bk.Health())

	assert.PanicsWithValue(t, "Register broker: redis has been registered", func() {
		bk.RegisterBroker(types.Redis, redisBroker)
	})

	redisConn.err = errors.New("connection reset")
	assert.NoError(t, bk.Disconnect(context.Background()))
}
