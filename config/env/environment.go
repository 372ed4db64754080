package env

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golangid/meshserve/candihelper"
	"github.com/golangid/meshserve/codebase/factory/types"
	"github.com/golangid/meshserve/validator"
	"github.com/joho/godotenv"
)

// Env model
type Env struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"meshserve" validate:"required"`
	BuildNumber string `env:"BUILD_NUMBER"`
	// Environment on application
	Environment string `env:"ENVIRONMENT"`
	DebugMode   bool   `env:"DEBUG_MODE" envDefault:"true"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	Server Server

	// SubgraphSchemaDir directory of subgraph SDL files, one subgraph per *.graphql file
	SubgraphSchemaDir string `env:"SUBGRAPH_SCHEMA_DIR" envDefault:"schema" validate:"required"`

	// PubSubBrokers external brokers receiving every pubsub event
	PubSubBrokers []string `env:"PUBSUB_BROKERS" envSeparator:","`

	Kafka struct {
		Brokers       []string `env:"KAFKA_BROKERS" envSeparator:","`
		ClientID      string   `env:"KAFKA_CLIENT_ID" envDefault:"meshserve"`
		ClientVersion string   `env:"KAFKA_CLIENT_VERSION" envDefault:"2.0.0"`
	}
	RabbitMQ struct {
		Broker       string `env:"RABBITMQ_BROKER"`
		ExchangeName string `env:"RABBITMQ_EXCHANGE_NAME" envDefault:"amq.topic"`
	}
	RedisDSN string `env:"REDIS_DSN"`
	NATSURL  string `env:"NATS_URL"`

	// JaegerTracingHost env, empty for disable tracing
	JaegerTracingHost string `env:"JAEGER_TRACING_HOST"`
}

// Server listener environment
type Server struct {
	Protocol        string        `env:"SERVER_PROTOCOL" envDefault:"http" validate:"oneof=http https"`
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0" validate:"required"`
	Port            int           `env:"SERVER_PORT" envDefault:"4000" validate:"min=1,max=65535"`
	SSLCertFile     string        `env:"SSL_CERT_FILE"`
	SSLKeyFile      string        `env:"SSL_KEY_FILE"`
	SSLCAFile       string        `env:"SSL_CA_FILE"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	GraphQLPath     string        `env:"GRAPHQL_PATH" envDefault:"/graphql"`
}

// UseSSL check ssl credentials is set
func (s Server) UseSSL() bool {
	return s.SSLCertFile != "" && s.SSLKeyFile != ""
}

// Load environment from given .env file path (missing file is only a warning) and process environment
func Load(dotEnvPath string) (Env, error) {
	if dotEnvPath != "" {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Printf("Warning: load env, %v", err)
		}
	}
	return Parse()
}

// Parse environment from process environment
func Parse() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("error getting env configs: %w", err)
	}

	mErrs := candihelper.NewMultiError()
	if err := validator.NewStructValidator().ValidateStruct(e); err != nil {
		var validationErrs candihelper.MultiError
		if errors.As(err, &validationErrs) {
			mErrs.Merge(validationErrs)
		} else {
			mErrs.Append("validation", err)
		}
	}
	e.validateRelation(mErrs)

	if mErrs.HasError() {
		return e, fmt.Errorf("basic environment error: \n%s", mErrs.Error())
	}
	return e, nil
}

func (e *Env) validateRelation(mErrs candihelper.MultiError) {
	e.Server.Protocol = strings.ToLower(e.Server.Protocol)
	if e.Server.Protocol == string(types.HTTPS) && !e.Server.UseSSL() {
		mErrs.Append("SERVER_PROTOCOL", errors.New("https protocol requires SSL_CERT_FILE and SSL_KEY_FILE environment"))
	}
	if !strings.HasPrefix(e.Server.GraphQLPath, "/") {
		e.Server.GraphQLPath = "/" + e.Server.GraphQLPath
	}

	for _, name := range e.PubSubBrokers {
		brokerType, ok := types.ParseBroker(strings.TrimSpace(name))
		if !ok {
			mErrs.Append("PUBSUB_BROKERS", fmt.Errorf("unknown broker '%s'", name))
			continue
		}
		var missing string
		switch brokerType {
		case types.Kafka:
			if len(e.Kafka.Brokers) == 0 {
				missing = "KAFKA_BROKERS"
			}
		case types.RabbitMQ:
			if e.RabbitMQ.Broker == "" {
				missing = "RABBITMQ_BROKER"
			}
		case types.Redis:
			if e.RedisDSN == "" {
				missing = "REDIS_DSN"
			}
		case types.NATS:
			if e.NATSURL == "" {
				missing = "NATS_URL"
			}
		}
		if missing != "" {
			mErrs.Append(missing, fmt.Errorf("%s broker is active, missing %s environment", brokerType, missing))
		}
	}
}

// Brokers return parsed broker types from PUBSUB_BROKERS
func (e Env) Brokers() (brokers []types.Broker) {
	for _, name := range e.PubSubBrokers {
		if b, ok := types.ParseBroker(strings.TrimSpace(name)); ok {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// URL listener url of served server
func (e Env) URL() string {
	return fmt.Sprintf("%s://%s:%d", e.Server.Protocol, e.Server.Host, e.Server.Port)
}

// LookupWorkdir return WORKDIR environment used to locate .env file
func LookupWorkdir() string {
	return os.Getenv("WORKDIR")
}
