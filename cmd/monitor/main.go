package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"samfw/internal/device"
	"samfw/internal/monitor/apiv1"
	"samfw/internal/monitor/db"
	"samfw/internal/monitor/httpserver"
	"samfw/internal/monitor/pipeline"
	"samfw/pkg/configuration"
	"samfw/pkg/fota"
	"samfw/pkg/logger"
	"samfw/pkg/model"
	"samfw/pkg/trace"
)

type service interface {
	Close(ctx context.Context) error
}

// logSink forwards pipeline callbacks to the application log
type logSink struct {
	log *logger.Log
}

func (s *logSink) Status(msg string) {
	s.log.Info(msg)
}

func (s *logSink) Progress(stage string, done, total int64, label string) {
	s.log.Debug("progress", "stage", stage, "done", done, "total", total, "label", label)
}

func (s *logSink) Message(text string, severity model.Severity) {
	s.log.Info(text, "severity", string(severity))
}

func main() {
	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())

	services := make(map[string]service)

	cfg, err := configuration.New(ctx)
	if err != nil {
		panic(err)
	}

	log, err := logger.New("samfw_monitor", cfg.Common.Log.FolderPath, cfg.Common.Log.Level, cfg.Common.Production)
	if err != nil {
		panic(err)
	}
	tracer, err := trace.New(ctx, cfg, log, "samfw", "monitor")
	if err != nil {
		panic(err)
	}

	dbService, err := db.New(ctx, cfg, tracer, log.New("db"))
	services["dbService"] = dbService
	if err != nil {
		log.Error(err, "dbService")
		panic(err)
	}
	if err := dbService.Repair(ctx); err != nil {
		log.Error(err, "db repair")
		panic(err)
	}

	deviceService, err := device.New(ctx, cfg, log.New("device"))
	services["deviceService"] = deviceService
	if err != nil {
		log.Error(err, "deviceService")
		panic(err)
	}

	fotaClient, err := fota.New(ctx, cfg, log.New("fota"))
	services["fotaClient"] = fotaClient
	if err != nil {
		log.Error(err, "fotaClient")
		panic(err)
	}

	pipelineService, err := pipeline.New(ctx, cfg, dbService, tracer, log.New("pipeline"))
	services["pipelineService"] = pipelineService
	if err != nil {
		log.Error(err, "pipelineService")
		panic(err)
	}

	sink := &model.ThrottledSink{
		Next:    &logSink{log: log.New("progress")},
		HoldOff: 100 * time.Millisecond,
	}

	apiv1Client, err := apiv1.New(ctx, dbService, pipelineService, deviceService, fotaClient, sink, tracer, cfg, log.New("apiv1"))
	services["apiv1Client"] = apiv1Client
	if err != nil {
		log.Error(err, "apiv1Client")
		panic(err)
	}

	if cfg.Monitor.APIServer.Addr != "" {
		httpService, err := httpserver.New(ctx, cfg, apiv1Client, log.New("httpserver"))
		services["httpService"] = httpService
		if err != nil {
			panic(err)
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := apiv1Client.Run(ctx); err != nil {
			log.Error(err, "monitor run")
		}
	}()

	// Handle sigterm and await termChan signal
	termChan := make(chan os.Signal, 1)
	signal.Notify(termChan, syscall.SIGINT, syscall.SIGTERM)

	<-termChan // Blocks here until interrupted

	mainLog := log.New("main")
	mainLog.Info("HALTING SIGNAL!")

	cancel()

	for serviceName, srv := range services {
		if err := srv.Close(context.Background()); err != nil {
			mainLog.Trace("serviceName", serviceName, "error", err)
		}
	}

	if err := tracer.Shutdown(context.Background()); err != nil {
		mainLog.Error(err, "Tracer shutdown")
	}

	wg.Wait() // Block here until are workers are done

	mainLog.Info("Stopped")
}
