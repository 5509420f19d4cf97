package api

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"shareit/internal/config"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// Lookup requests are tiny; anything bigger is a client bug.
const grpcMaxRecvMsgSize = 1 << 20

type GRPCServer struct {
	server   *grpc.Server
	listener net.Listener
	log      zerolog.Logger
}

// NewGRPCServer listens on the configured port and registers the booking
// lookup service.
func NewGRPCServer(cfg *config.APIConfig, lookup BookingLookupServer, logger *zerolog.Logger) (*GRPCServer, error) {
	grpcServer, err := newGRPCServer(cfg, lookup, logger)
	if err != nil {
		return nil, err
	}

	addr := fmt.Sprintf(":%d", cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}

	serverLogger := zerolog.Nop()
	if logger != nil {
		serverLogger = logger.With().Str("component", "grpc").Logger()
	}

	return &GRPCServer{server: grpcServer, listener: lis, log: serverLogger}, nil
}

func newGRPCServer(cfg *config.APIConfig, lookup BookingLookupServer, logger *zerolog.Logger) (*grpc.Server, error) {
	opts, err := serverOptions(cfg, logger)
	if err != nil {
		return nil, err
	}

	grpcServer := grpc.NewServer(opts...)
	registerBookingLookupServer(grpcServer, lookup)

	if cfg.GRPC.Reflection {
		reflection.Register(grpcServer)
	}
	return grpcServer, nil
}

func serverOptions(cfg *config.APIConfig, logger *zerolog.Logger) ([]grpc.ServerOption, error) {
	auth := NewAuthInterceptor(cfg)
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(ChainUnaryInterceptors(
			LoggingUnaryInterceptor(logger),
			auth.Unary(),
		)),
		grpc.MaxRecvMsgSize(grpcMaxRecvMsgSize),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 5 * time.Minute,
			Time:              2 * time.Minute,
			Timeout:           20 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             30 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	if cfg.GRPC.TLS.Enabled {
		tlsCfg, err := buildTLSConfig(cfg.GRPC.TLS)
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.Creds(credentials.NewTLS(tlsCfg)))
	}
	return opts, nil
}

// buildTLSConfig loads the server keypair. A client CA enables client
// certificate verification; require_client_cert makes it mandatory.
func buildTLSConfig(cfg config.APITLSConfig) (*tls.Config, error) {
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return nil, errors.New("grpc tls enabled but cert_file/key_file not set")
	}
	if cfg.RequireClientCert && cfg.ClientCAFile == "" {
		return nil, errors.New("grpc tls require_client_cert=true but client_ca_file not set")
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load grpc tls keypair: %w", err)
	}
	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if cfg.ClientCAFile == "" {
		return tlsCfg, nil
	}

	caPEM, err := os.ReadFile(cfg.ClientCAFile)
	if err != nil {
		return nil, fmt.Errorf("read client_ca_file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, errors.New("failed to parse client_ca_file PEM")
	}
	tlsCfg.ClientCAs = pool
	tlsCfg.ClientAuth = tls.VerifyClientCertIfGiven
	if cfg.RequireClientCert {
		tlsCfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return tlsCfg, nil
}

func (s *GRPCServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *GRPCServer) Serve() error {
	s.log.Info().Str("addr", s.Addr()).Msg("gRPC API listening")
	return s.server.Serve(s.listener)
}

// Shutdown drains in-flight calls until ctx expires, then stops hard.
func (s *GRPCServer) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
	}
}
