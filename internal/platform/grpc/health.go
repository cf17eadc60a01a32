// Package grpc holds gRPC client helpers shared by the sheet binaries.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	healthProbeTimeout = time.Second
	healthPollMin      = 200 * time.Millisecond
	healthPollMax      = time.Second
)

// WaitForHealth polls the health service on conn until service reports
// SERVING or ctx ends. logf, when set, sees each change of probe outcome.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logf func(string, ...any)) error {
	if conn == nil {
		return errors.New("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	client := grpc_health_v1.NewHealthClient(conn)
	delay := healthPollMin
	last := ""
	for {
		status, err := probeHealth(ctx, client, service)
		if status == grpc_health_v1.HealthCheckResponse_SERVING {
			logf("health %q SERVING", service)
			return nil
		}
		outcome := status.String()
		if err != nil {
			outcome = err.Error()
		}
		if outcome != last {
			logf("waiting for health %q: %s", service, outcome)
			last = outcome
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-timer.C:
		}
		delay = min(delay*2, healthPollMax)
	}
}

func probeHealth(ctx context.Context, client grpc_health_v1.HealthClient, service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()
	resp, err := client.Check(probeCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
