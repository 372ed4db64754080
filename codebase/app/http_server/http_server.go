package httpserver

import (
	"fmt"
	"sync"

	"github.com/golangid/meshserve/codebase/factory/types"
	"github.com/golangid/meshserve/logger"
)

var (
	defaultFactory     AppFactory
	defaultFactoryOnce sync.Once
)

func getDefaultFactory() AppFactory {
	defaultFactoryOnce.Do(func() {
		defaultFactory = NewAppFactory()
	})
	return defaultFactory
}

// StartServer mount handler on every path, bind host and port, and block until bind result is known.
// On success one close handler is registered on opts.Terminator.
func StartServer(opts ServerOptions) error {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	protocol := opts.Protocol
	if protocol == "" {
		protocol = string(types.HTTP)
		if opts.SSLCredentials != nil {
			protocol = string(types.HTTPS)
		}
	}
	factory := opts.AppFactory
	if factory == nil {
		factory = getDefaultFactory()
	}

	var app App
	var err error
	if opts.SSLCredentials != nil {
		app, err = factory.SSLApp(*opts.SSLCredentials)
	} else {
		app, err = factory.App()
	}
	if err != nil {
		return err
	}

	app.Any("/*", opts.Handler)

	url := fmt.Sprintf("%s://%s:%d", protocol, opts.Host, opts.Port)
	log.Info("Starting server on " + url)

	settled := make(chan ListenSocket, 1)
	var once sync.Once
	app.Listen(opts.Host, opts.Port, func(socket ListenSocket) {
		once.Do(func() { settled <- socket })
	})

	if socket := <-settled; socket == nil {
		return &BindError{URL: url}
	}

	if opts.Terminator != nil {
		opts.Terminator.Register(func(eventName string) {
			log.Info(fmt.Sprintf("Closing %s for %s", url, eventName))
			app.Close()
		})
	}
	return nil
}
