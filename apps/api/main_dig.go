package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux

	dig_container "github.com/Maks0bs/mmLearnJS-backend-sub000/apps/api/di/dig"
	echoapi "github.com/Maks0bs/mmLearnJS-backend-sub000/apps/api/echo"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	blobsvc "github.com/Maks0bs/mmLearnJS-backend-sub000/services/blob"
)

func startWithDig() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		dbLogger dig_container.DBLoggerParam,
		closeStore dig_container.Closer,
		cleaner *blobsvc.Cleaner,
		server *echoapi.Server,
	) {
		logger.Info(fmt.Sprintf("mmLearn API %q starting on the %s store", conf.Build, conf.Database.Engine))
		defer closeStoreWithin(conf, closeStore, dbLogger.Logger)
		defer logger.Info("mmLearn API stopped")

		cleaner.Start()
		defer cleaner.Stop()

		serveDebug(conf, logger)
		go server.Start()

		select {
		case err := <-server.Errors():
			logger.Fatal(fmt.Sprintf("api server failed: %v", err), err)
		case sig := <-server.ShutdownSignal():
			logger.Info(fmt.Sprintf("received %v, draining requests", sig))
			drain(conf, server, logger)
		}
	}))
}

// serveDebug exposes /debug/vars and /debug/pprof on the debug host.
func serveDebug(conf *core.Config, logger core.Logger) {
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("engine").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug endpoint on %s: %v", conf.Server.DebugHost, err), err)
		}
	}()
}

// drain lets in-flight requests finish until the shutdown timeout, then drops the remaining connections.
func drain(conf *core.Config, server *echoapi.Server, logger core.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err == nil {
		return
	}
	logger.Error(fmt.Sprintf("requests still running after %v: %v", conf.Server.ShutdownTimeout, err), err)
	if err = server.Close(); err != nil {
		logger.Fatal(fmt.Sprintf("closing api server: %v", err), err)
	}
}

func closeStoreWithin(conf *core.Config, closeStore dig_container.Closer, logger core.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	if err := closeStore(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("closing %s store: %v", conf.Database.Engine, err), err)
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
