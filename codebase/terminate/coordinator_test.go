package terminate

import (
	"context"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/golangid/meshserve/logger"
	"github.com/stretchr/testify/assert"
)

func TestCoordinatorTerminate(t *testing.T) {
	c := New(SetLogger(logger.NewNop()))

	var mu sync.Mutex
	var events []string
	record := func(eventName string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, eventName)
	}
	c.Register(record)
	id := c.Register(record)
	c.Register(func(string) { panic("boom") })
	c.Register(record)
	assert.Equal(t, 4, c.Len())

	c.Unregister(id)
	assert.Equal(t, 3, c.Len())

	c.Terminate("SIGTERM")
	c.Terminate("SIGINT")

	select {
	case <-c.Done():
	default:
		t.Fatal("done channel must be closed after terminate")
	}
	assert.Equal(t, []string{"SIGTERM", "SIGTERM"}, events)
}

func TestCoordinatorFinalizer(t *testing.T) {
	c := New()

	var serverClosed int32
	var closedBeforeFinalize bool
	c.RegisterFinalizer(func(string) {
		closedBeforeFinalize = atomic.LoadInt32(&serverClosed) == 1
	})
	c.Register(func(string) {
		time.Sleep(20 * time.Millisecond)
		atomic.StoreInt32(&serverClosed, 1)
	})
	assert.Equal(t, 2, c.Len())

	c.Terminate("SIGTERM")
	assert.True(t, closedBeforeFinalize)
}

func TestCoordinatorRegisterAfterTerminate(t *testing.T) {
	c := New(SetLogger(logger.NewNop()))
	c.Terminate("SIGINT")

	var events []string
	id := c.Register(func(eventName string) { events = append(events, eventName) })
	assert.Equal(t, -1, id)
	assert.Equal(t, []string{"SIGINT"}, events)
	assert.Equal(t, 0, c.Len())

	id = c.RegisterFinalizer(func(eventName string) { events = append(events, "final "+eventName) })
	assert.Equal(t, -1, id)
	assert.Equal(t, []string{"SIGINT", "final SIGINT"}, events)
}

func TestCoordinatorWaitContext(t *testing.T) {
	c := New()
	var called int32
	c.Register(func(eventName string) {
		assert.Equal(t, "context canceled", eventName)
		atomic.AddInt32(&called, 1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	assert.Equal(t, "context canceled", c.Wait(ctx, syscall.SIGUSR1))
	assert.Equal(t, int32(1), atomic.LoadInt32(&called))
}

func TestCoordinatorWaitAfterTerminate(t *testing.T) {
	c := New()
	c.Terminate("manual")
	assert.Equal(t, "", c.Wait(context.Background(), syscall.SIGUSR1))
}

func TestSignalName(t *testing.T) {
	assert.Equal(t, "SIGTERM", SignalName(syscall.SIGTERM))
	assert.Equal(t, "SIGINT", SignalName(syscall.SIGINT))
	assert.Equal(t, syscall.SIGUSR2.String(), SignalName(syscall.SIGUSR2))
}
