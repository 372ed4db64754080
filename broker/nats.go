package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/golangid/meshserve/candishared"
	"github.com/golangid/meshserve/codebase/factory/types"
	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/logger"
	"github.com/golangid/meshserve/tracer"
	"github.com/nats-io/nats.go"
)

// NATSOptionFunc func type
type NATSOptionFunc func(*NATSBroker)

// NATSSetURL set server url, comma separated for cluster
func NATSSetURL(url string) NATSOptionFunc {
	return func(bk *NATSBroker) {
		bk.url = url
	}
}

// NATSSetOptions set additional nats connection options
func NATSSetOptions(opts ...nats.Option) NATSOptionFunc {
	return func(bk *NATSBroker) {
		bk.natsOptions = append(bk.natsOptions, opts...)
	}
}

// NATSSetFlushTimeout set max wait for pending messages on disconnect
func NATSSetFlushTimeout(timeout time.Duration) NATSOptionFunc {
	return func(bk *NATSBroker) {
		bk.flushTimeout = timeout
	}
}

type natsConn interface {
	PublishMsg(msg *nats.Msg) error
	FlushTimeout(timeout time.Duration) error
	IsConnected() bool
	Close()
}

// NATSBroker broker
type NATSBroker struct {
	url          string
	natsOptions  []nats.Option
	flushTimeout time.Duration
	conn         natsConn
}

// NewNATSBroker connect to nats server
func NewNATSBroker(opts ...NATSOptionFunc) (bk *NATSBroker, err error) {
	deferFunc := logger.LogWithDefer("Load NATS broker configuration... ")
	defer func() {
		if err != nil {
			logger.LogRed(err.Error())
			return
		}
		deferFunc()
	}()

	bk = &NATSBroker{url: nats.DefaultURL, flushTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(bk)
	}

	conn, err := nats.Connect(bk.url, append([]nats.Option{nats.Name("meshserve")}, bk.natsOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("NATS: cannot connect to %s: %w", bk.url, err)
	}
	bk.conn = conn
	return bk, nil
}

// GetPublisher method
func (n *NATSBroker) GetPublisher() interfaces.Publisher {
	return n
}

// GetName method
func (n *NATSBroker) GetName() types.Broker {
	return types.NATS
}

// Health method
func (n *NATSBroker) Health() map[string]error {
	var err error
	if !n.conn.IsConnected() {
		err = nats.ErrConnectionClosed
	}
	return map[string]error{string(types.NATS): err}
}

// Disconnect flush pending messages then close connection
func (n *NATSBroker) Disconnect(ctx context.Context) error {
	deferFunc := logger.LogWithDefer("nats: disconnect...")
	defer deferFunc()

	defer n.conn.Close()
	if !n.conn.IsConnected() {
		return nil
	}
	timeout := n.flushTimeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}
	return n.conn.FlushTimeout(timeout)
}

// PublishMessage method, topic is used as subject
func (n *NATSBroker) PublishMessage(ctx context.Context, args *candishared.PublisherArgument) (err error) {
	trace, _ := tracer.StartTrace(ctx, "nats:publish_message")
	defer func() {
		trace.SetError(err)
		trace.Finish()
	}()

	if err := args.Validate(); err != nil {
		return err
	}

	trace.SetTag("subject", args.Topic)
	trace.Log("message", args.Message)

	msg := nats.NewMsg(args.Topic)
	msg.Data = args.Message
	if args.Key != "" {
		msg.Header.Set(nats.MsgIdHdr, args.Key)
	}
	for k, v := range args.Header {
		msg.Header.Set(k, fmt.Sprint(v))
	}
	traceHeader := map[string]string{}
	trace.InjectRequestHeader(traceHeader)
	for k, v := range traceHeader {
		msg.Header.Set(k, v)
	}
	return n.conn.PublishMsg(msg)
}
