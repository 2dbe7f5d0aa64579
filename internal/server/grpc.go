// Package server builds the gRPC server with the platform's interceptor chain.
package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	auditrepo "care-link-platform/backend/internal/audit/repository"
	authservice "care-link-platform/backend/internal/auth/service"
	"care-link-platform/backend/internal/security"
	"care-link-platform/backend/internal/server/interceptors"
	"care-link-platform/backend/internal/session/authority"
	"care-link-platform/backend/internal/telemetry/producer"
)

// Deps holds the cross-cutting dependencies wired into every RPC plus the
// services bound by RegisterServices.
type Deps struct {
	// Tokens verifies access credentials; required for the request gate.
	Tokens *security.TokenProvider
	// Sessions is the session authority the gate consults for liveness.
	Sessions *authority.Authority
	// Auth is the auth service behind login, refresh, and logout.
	Auth *authservice.AuthService
	// AuditRepo records per-RPC audit entries. If nil, no RPCs are audited.
	AuditRepo auditrepo.Repository
	// Telemetry emits security events per RPC. If nil, emission is disabled.
	Telemetry producer.Producer
	// SkipMethods are full method names exempt from auditing and telemetry
	// (e.g. health checks).
	SkipMethods map[string]bool
}

// New returns a gRPC server with the otel stats handler and the platform
// interceptor chain: request gate first, then audit, then telemetry.
func New(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	skip := deps.SkipMethods
	if skip == nil {
		skip = map[string]bool{}
	}
	chain := []grpc.UnaryServerInterceptor{
		interceptors.AuthUnary(deps.Tokens, deps.Sessions),
	}
	if deps.AuditRepo != nil {
		chain = append(chain, interceptors.AuditUnary(deps.AuditRepo, skip))
	}
	chain = append(chain, interceptors.TelemetryUnary(deps.Telemetry, skip))

	opts = append(opts,
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(chain...),
	)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices binds the platform services to the server. The standard
// health service reports SERVING only once the core dependencies are wired,
// so orchestrators don't route traffic to a half-configured process.
func RegisterServices(s *grpc.Server, deps Deps) {
	h := health.NewServer()
	status := healthpb.HealthCheckResponse_SERVING
	if deps.Tokens == nil || deps.Sessions == nil || deps.Auth == nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.SetServingStatus("", status)
	healthpb.RegisterHealthServer(s, h)
}
