package main

import (
	"net/http"
	"os"
	osSignal "os/signal"
	"slices"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eugenenazirov/library-db/internal/application"
	"github.com/eugenenazirov/library-db/internal/config"
)

func TestShutdownDrainsHealthServerOnSignal(t *testing.T) {
	tests := []struct {
		name string
		sig  os.Signal
	}{
		{name: "beanstalk stop", sig: syscall.SIGTERM},
		{name: "local interrupt", sig: os.Interrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(func() {
				signalNotify = osSignal.Notify
			})

			var requested []os.Signal
			signalNotify = func(ch chan<- os.Signal, sig ...os.Signal) {
				requested = sig
				go func() {
					ch <- tt.sig
				}()
			}

			cfg := config.Config{HTTP: config.HTTP{Port: "0"}}
			server := application.NewServer(cfg, http.NotFoundHandler())
			drained := make(chan struct{}, 1)
			server.RegisterOnShutdown(func() {
				drained <- struct{}{}
			})

			core, logs := observer.New(zap.InfoLevel)
			shutdown(server, 50*time.Millisecond, zap.New(core))

			select {
			case <-drained:
			case <-time.After(time.Second):
				t.Fatalf("expected health server to be shut down after %s", tt.sig)
			}

			if !slices.Contains(requested, os.Signal(syscall.SIGTERM)) || !slices.Contains(requested, os.Interrupt) {
				t.Fatalf("expected SIGTERM and SIGINT to be watched, got %v", requested)
			}

			entries := logs.FilterMessage("shutting down health server").All()
			if len(entries) != 1 {
				t.Fatalf("expected one shutdown log entry, got %d", len(entries))
			}
			if got := entries[0].ContextMap()["signal"]; got != tt.sig.String() {
				t.Fatalf("expected signal %q in log, got %v", tt.sig.String(), got)
			}
		})
	}
}
