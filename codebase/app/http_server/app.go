package httpserver

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/golangid/meshserve/logger"
)

type appFactory struct {
	opt option
}

// NewAppFactory default socket library, chi router served by net/http
func NewAppFactory(opts ...OptionFunc) AppFactory {
	f := &appFactory{opt: getDefaultOption()}
	for _, o := range opts {
		o(&f.opt)
	}
	if f.opt.logger == nil {
		f.opt.logger = logger.NewNop()
	}
	return f
}

func (f *appFactory) App() (App, error) {
	return newChiApp(f.opt, nil), nil
}

func (f *appFactory) SSLApp(creds SSLCredentials) (App, error) {
	cert, err := tls.LoadX509KeyPair(creds.CertFile, creds.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load key pair: %w", err)
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if creds.CAFile != "" {
		caPEM, err := os.ReadFile(creds.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("ca file %s has no certificate", creds.CAFile)
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.VerifyClientCertIfGiven
	}
	return newChiApp(f.opt, tlsConfig), nil
}

type chiApp struct {
	opt       option
	router    *chi.Mux
	tlsConfig *tls.Config

	mu        sync.Mutex
	server    *http.Server
	closeOnce sync.Once
}

func newChiApp(opt option, tlsConfig *tls.Config) *chiApp {
	router := chi.NewRouter()
	router.Use(opt.middlewares...)
	return &chiApp{opt: opt, router: router, tlsConfig: tlsConfig}
}

func (a *chiApp) Any(pattern string, handler http.Handler) {
	a.router.Handle(pattern, handler)
}

func (a *chiApp) Listen(host string, port int, cb func(socket ListenSocket)) {
	listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		a.opt.logger.Errorf("listen: %v", err)
		cb(nil)
		return
	}
	if a.tlsConfig != nil {
		listener = tls.NewListener(listener, a.tlsConfig)
	}

	server := &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: a.opt.readHeaderTimeout,
		TLSConfig:         a.tlsConfig,
	}
	a.mu.Lock()
	a.server = server
	a.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.opt.logger.Errorf("serve: %v", err)
		}
	}()
	cb(listener)
}

// Close graceful shutdown, next calls are no-op
func (a *chiApp) Close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		server := a.server
		a.mu.Unlock()
		if server == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), a.opt.closeTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			a.opt.logger.Errorf("close: %v", err)
			server.Close()
		}
	})
}
