package httpserver

import (
	"net"
	"net/http"

	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/codebase/terminate"
)

type (
	// ServerOptions settings for one StartServer call
	ServerOptions struct {
		Handler        http.Handler
		Logger         interfaces.Logger
		Protocol       string
		Host           string
		Port           int
		SSLCredentials *SSLCredentials
		// Terminator receive the close handler of started server, nil means no handler registered
		Terminator *terminate.Coordinator
		// AppFactory socket library, nil use default factory
		AppFactory AppFactory
	}

	// SSLCredentials pem file locations, CAFile is optional
	SSLCredentials struct {
		CertFile string
		KeyFile  string
		CAFile   string
	}

	// AppFactory create application context
	AppFactory interface {
		App() (App, error)
		SSLApp(creds SSLCredentials) (App, error)
	}

	// App application context of a listening server
	App interface {
		Any(pattern string, handler http.Handler)
		// Listen bind host and port then call cb exactly once, nil socket means bind failed
		Listen(host string, port int, cb func(socket ListenSocket))
		Close()
	}

	// ListenSocket handle of bound socket
	ListenSocket interface {
		Addr() net.Addr
	}
)

// BindError returned when listen callback receive no socket
type BindError struct {
	URL string
}

func (e *BindError) Error() string {
	return "Failed to start server on " + e.URL + "!"
}
