package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func startHealthServer(t *testing.T) (*HealthServer, func()) {
	t.Helper()

	server, err := NewHealthServer("127.0.0.1:0", zap.NewNop())
	if err != nil {
		t.Fatalf("new health server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx)
	}()
	stop := func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("serve: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("health server did not stop")
		}
	}
	return server, stop
}

func TestProbeServing(t *testing.T) {
	server, stop := startHealthServer(t)
	defer stop()
	server.SetServing("", true)

	if err := Probe(context.Background(), server.Addr(), "", 2*time.Second, nil); err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestProbeTransitionsToServing(t *testing.T) {
	server, stop := startHealthServer(t)
	defer stop()

	go func() {
		time.Sleep(200 * time.Millisecond)
		server.SetServing("storefront", true)
	}()

	if err := Probe(context.Background(), server.Addr(), "storefront", 2*time.Second, nil); err != nil {
		t.Fatalf("probe after transition: %v", err)
	}
}

func TestProbeNotServingReportsHealthStage(t *testing.T) {
	server, stop := startHealthServer(t)
	defer stop()

	err := Probe(context.Background(), server.Addr(), "", 300*time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected probe error")
	}
	var probeErr *ProbeError
	if !errors.As(err, &probeErr) {
		t.Fatalf("expected ProbeError, got %T", err)
	}
	if probeErr.Stage != ProbeStageHealth {
		t.Fatalf("stage = %q, want %q", probeErr.Stage, ProbeStageHealth)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestWaitForHealthRequiresConn(t *testing.T) {
	if err := WaitForHealth(context.Background(), nil, "", nil); err == nil {
		t.Fatal("expected error for nil conn")
	}
}

func TestNewHealthServerRequiresAddr(t *testing.T) {
	if _, err := NewHealthServer(" ", nil); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestProbeErrorFormatting(t *testing.T) {
	wrapped := &ProbeError{Stage: ProbeStageConnect, Err: errors.New("boom")}
	if got := wrapped.Error(); got != "gRPC connect error: boom" {
		t.Fatalf("Error() = %q", got)
	}
	var nilErr *ProbeError
	if nilErr.Error() != "gRPC probe error" || nilErr.Unwrap() != nil {
		t.Fatal("unexpected nil receiver behavior")
	}
}
