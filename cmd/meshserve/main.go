package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	graphqlserver "github.com/golangid/meshserve/codebase/app/graphql_server"
	httpserver "github.com/golangid/meshserve/codebase/app/http_server"
	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/codebase/terminate"
	"github.com/golangid/meshserve/config"
	"github.com/golangid/meshserve/config/env"
	"github.com/golangid/meshserve/logger"
	"github.com/golangid/meshserve/tracer"
	"github.com/golangid/meshserve/transport"
	"github.com/golangid/meshserve/transport/mysql"
)

const loadConfigTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("\x1b[31;1mFailed to start service: %v\x1b[0m\n", r)
			fmt.Printf("Stack trace: \n%s\n", debug.Stack())
			exitCode = 1
		}
	}()

	var envFile string
	flag.StringVar(&envFile, "env", env.LookupWorkdir()+".env", "path of .env file")
	flag.Parse()

	e, err := env.Load(envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger.SetDebugMode(e.DebugMode)
	log := logger.NewZapLogger(logger.OptionSetLevel(e.LogLevel), logger.OptionAddField("service", e.ServiceName))
	defer log.Sync()

	if e.JaegerTracingHost != "" {
		closeTracer, err := tracer.InitOpenTracing(e.ServiceName, e.JaegerTracingHost)
		if err != nil {
			log.Errorf("tracer: %v", err)
		} else {
			defer closeTracer()
		}
	}

	coordinator := terminate.New(terminate.SetLogger(log.Child("terminate")))

	ctx, cancel := context.WithTimeout(context.Background(), loadConfigTimeout)
	cfg, err := config.Init(ctx, e, log)
	cancel()
	if err != nil {
		log.Error(err.Error())
		return 1
	}
	coordinator.RegisterFinalizer(func(eventName string) {
		ctx, cancel := context.WithTimeout(context.Background(), e.Server.ShutdownTimeout)
		defer cancel()
		if err := cfg.Exit(ctx); err != nil {
			log.Errorf("close dependencies: %v", err)
		}
	})

	executors, err := loadExecutors(e, cfg, log)
	if err != nil {
		log.Error(err.Error())
		coordinator.Terminate("load subgraphs failure")
		return 1
	}

	handler := graphqlserver.NewHandler(executors,
		graphqlserver.SetRootPath(e.Server.GraphQLPath),
		graphqlserver.SetServiceInfo(e.ServiceName, e.BuildNumber),
		graphqlserver.SetLogger(log.Child("http")),
		graphqlserver.SetPubSub(cfg.PubSub),
		graphqlserver.SetDisablePlayground(!e.DebugMode),
		graphqlserver.AddHealthCheck("broker", cfg.Brokers.Health),
	)

	var creds *httpserver.SSLCredentials
	if e.Server.UseSSL() {
		creds = &httpserver.SSLCredentials{CertFile: e.Server.SSLCertFile, KeyFile: e.Server.SSLKeyFile, CAFile: e.Server.SSLCAFile}
	}
	err = httpserver.StartServer(httpserver.ServerOptions{
		Handler:        handler,
		Logger:         log,
		Protocol:       e.Server.Protocol,
		Host:           e.Server.Host,
		Port:           e.Server.Port,
		SSLCredentials: creds,
		Terminator:     coordinator,
		AppFactory: httpserver.NewAppFactory(
			httpserver.SetLogger(log.Child("http")),
			httpserver.SetCloseTimeout(e.Server.ShutdownTimeout),
		),
	})
	if err != nil {
		log.Error(err.Error())
		coordinator.Terminate("start failure")
		return 1
	}
	logger.LogGreen(fmt.Sprintf("%s serving %d subgraph(s) on %s", e.ServiceName, len(executors), e.URL()))

	eventName := coordinator.Wait(context.Background())
	log.Infof("%s stopped by %s", e.ServiceName, eventName)
	return 0
}

func loadExecutors(e env.Env, cfg *config.Config, log interfaces.Logger) (map[string]interfaces.Executor, error) {
	subgraphs, err := transport.LoadSubgraphs(e.SubgraphSchemaDir)
	if err != nil {
		return nil, fmt.Errorf("load subgraphs from %s: %w", e.SubgraphSchemaDir, err)
	}

	registry := transport.NewRegistry()
	registry.Register(mysql.Kind, mysql.GetSubgraphExecutor)

	executors := make(map[string]interfaces.Executor, len(subgraphs))
	for _, subgraph := range subgraphs {
		executor, err := registry.GetSubgraphExecutor(transport.GetSubgraphExecutorOptions{
			Subgraph: subgraph,
			PubSub:   cfg.PubSub,
			Logger:   log,
		})
		if err != nil {
			return nil, err
		}
		executors[subgraph.Name] = executor
	}
	return executors, nil
}
