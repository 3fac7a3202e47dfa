package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/bankledger/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is reported by the health service alongside the overall ("") status.
const ServiceName = "bankledger.Ledger"

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// GRPCServer serves grpc.health.v1.Health. Its status follows a periodic
// database ping.
type GRPCServer struct {
	address  string
	logger   logging.Logger
	db       Pinger
	interval time.Duration
	health   *health.Server
}

func NewGRPCServer(a string, l logging.Logger, db Pinger, interval time.Duration) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		db:       db,
		interval: interval,
		health:   health.NewServer(),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	s.checkDatabase(ctx)
	go s.watchDatabase(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) watchDatabase(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkDatabase(ctx)
		}
	}
}

func (s *GRPCServer) checkDatabase(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(pingCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn(ctx, "database ping failed", "error", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
