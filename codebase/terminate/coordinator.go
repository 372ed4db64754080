package terminate

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/golangid/meshserve/codebase/interfaces"
)

// Handler called once with the name of the event ending the process
type Handler func(eventName string)

// Coordinator process-wide registry of terminate handlers, owned by the entry point
type Coordinator struct {
	logger interfaces.Logger

	mu         sync.Mutex
	lastID     int
	handlers   map[int]entry
	eventName  string
	terminated bool

	once sync.Once
	done chan struct{}
}

type entry struct {
	handler  Handler
	finalize bool
}

type (
	option struct {
		logger interfaces.Logger
	}

	// OptionFunc type
	OptionFunc func(*option)
)

// SetLogger option func
func SetLogger(logger interfaces.Logger) OptionFunc {
	return func(o *option) {
		o.logger = logger
	}
}

// New coordinator
func New(opts ...OptionFunc) *Coordinator {
	var opt option
	for _, o := range opts {
		o(&opt)
	}
	return &Coordinator{
		logger:   opt.logger,
		handlers: make(map[int]entry),
		done:     make(chan struct{}),
	}
}

// Register add handler, every call adds exactly one handler.
// Handler registered after termination is called immediately with the terminate event name, returned id is -1.
func (c *Coordinator) Register(fn Handler) (id int) {
	return c.register(entry{handler: fn})
}

// RegisterFinalizer add handler running after every Register handler has returned,
// used for dependencies still needed while servers drain
func (c *Coordinator) RegisterFinalizer(fn Handler) (id int) {
	return c.register(entry{handler: fn, finalize: true})
}

func (c *Coordinator) register(e entry) int {
	c.mu.Lock()
	if c.terminated {
		eventName := c.eventName
		c.mu.Unlock()
		if c.logger != nil {
			c.logger.Warn("terminate handler registered after " + eventName + ", running it now")
		}
		c.run([]Handler{e.handler}, eventName)
		return -1
	}
	defer c.mu.Unlock()
	c.lastID++
	c.handlers[c.lastID] = e
	return c.lastID
}

// Unregister remove handler by id
func (c *Coordinator) Unregister(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, id)
}

// Len count registered handlers
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

// Terminate run every handler once with eventName and wait all of them, next calls are no-op
func (c *Coordinator) Terminate(eventName string) {
	c.once.Do(func() {
		defer close(c.done)

		c.mu.Lock()
		c.terminated = true
		c.eventName = eventName
		ids := make([]int, 0, len(c.handlers))
		for id := range c.handlers {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		var handlers, finalizers []Handler
		for _, id := range ids {
			if e := c.handlers[id]; e.finalize {
				finalizers = append(finalizers, e.handler)
			} else {
				handlers = append(handlers, e.handler)
			}
		}
		c.mu.Unlock()

		if c.logger != nil {
			c.logger.Infof("Terminating %d handler(s) for %s", len(handlers)+len(finalizers), eventName)
		}
		c.run(handlers, eventName)
		c.run(finalizers, eventName)
	})
}

// run call handlers concurrently and wait all of them, panics are logged
func (c *Coordinator) run(handlers []Handler, eventName string) {
	var wg sync.WaitGroup
	for _, h := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil && c.logger != nil {
					c.logger.Errorf("terminate handler panic: %v", r)
				}
			}()
			h(eventName)
		}(h)
	}
	wg.Wait()
}

// Done closed after Terminate finished
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Wait block until one of signals (default SIGINT and SIGTERM) or ctx is done, then terminate
func (c *Coordinator) Wait(ctx context.Context, signals ...os.Signal) string {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	quitSignal := make(chan os.Signal, 1)
	signal.Notify(quitSignal, signals...)
	defer signal.Stop(quitSignal)

	var eventName string
	select {
	case sig := <-quitSignal:
		eventName = SignalName(sig)
	case <-ctx.Done():
		eventName = ctx.Err().Error()
	case <-c.done:
		return ""
	}
	c.Terminate(eventName)
	return eventName
}

var signalNames = map[os.Signal]string{
	syscall.SIGHUP:  "SIGHUP",
	syscall.SIGINT:  "SIGINT",
	syscall.SIGQUIT: "SIGQUIT",
	syscall.SIGTERM: "SIGTERM",
}

// SignalName return conventional upper case name of signal
func SignalName(sig os.Signal) string {
	if name, ok := signalNames[sig]; ok {
		return name
	}
	return sig.String()
}
