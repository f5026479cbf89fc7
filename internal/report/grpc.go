package report

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"rplog/pkg/logger"
)

// DefaultCallTimeout bounds a single RPC when no timeout is configured
const DefaultCallTimeout = 10 * time.Second

// GRPCTransport sends report events to the report service over gRPC
type GRPCTransport struct {
	serverAddr  string
	apiKey      string
	project     string
	timeout     time.Duration
	compression string
	logger      *logger.Logger

	mu              sync.Mutex
	conn            *grpc.ClientConn
	isConnected     bool      // track connection state to avoid repeated logs
	lastConnectTime time.Time // track last successful connection
	useTLS          bool      // whether to use TLS encryption
	// Error state tracking fields
	lastErrorState string // track last error state to avoid duplicate logs
	hasLoggedError bool   // track if error has been logged for current failure
	wasSuccessful  bool   // track if last operation was successful
}

// NewGRPCTransport creates a new gRPC transport
func NewGRPCTransport(serverAddr, apiKey string, log *logger.Logger) *GRPCTransport {
	// Validate gRPC server address format
	if strings.HasPrefix(serverAddr, "http://") || strings.HasPrefix(serverAddr, "https://") {
		log.Warnf("⚠️  gRPC server address contains HTTP protocol: %s", serverAddr)
		log.Warnf("   gRPC only supports 'host:port' format, not HTTP URLs")
		log.Warnf("   Example: 'localhost:9090' instead of 'http://localhost:8080/path'")
	}

	if strings.Contains(serverAddr, "/") && !strings.HasPrefix(serverAddr, "http") {
		log.Warnf("⚠️  gRPC server address contains path: %s", serverAddr)
		log.Warnf("   gRPC doesn't support URL paths, only 'host:port' format")
	}

	return &GRPCTransport{
		serverAddr:    serverAddr,
		apiKey:        apiKey,
		timeout:       DefaultCallTimeout,
		logger:        log,
		useTLS:        shouldUseTLS(serverAddr),
		wasSuccessful: true, // assume success initially
	}
}

// shouldUseTLS determines if TLS should be used based on server address patterns
func shouldUseTLS(serverAddr string) bool {
	// Only allow insecure connections for local development
	return !isLocalServer(serverAddr)
}

// isLocalServer checks if the server is a local development server
func isLocalServer(serverAddr string) bool {
	return strings.Contains(serverAddr, "localhost") || strings.Contains(serverAddr, "127.0.0.1") ||
		strings.HasPrefix(serverAddr, "[::1]")
}

// SetProject sets the project name sent with every request
func (g *GRPCTransport) SetProject(project string) {
	g.project = project
}

// SetTimeout sets the per-call deadline; non-positive values restore the default
func (g *GRPCTransport) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultCallTimeout
	}
	g.timeout = d
}

// SetCompression selects a registered gRPC compressor ("gzip", "zstd").
// An empty name or "none" disables compression.
func (g *GRPCTransport) SetCompression(name string) error {
	if name == "" || name == "none" {
		g.compression = ""
		return nil
	}
	if encoding.GetCompressor(name) == nil {
		return fmt.Errorf("unknown compressor: %s", name)
	}
	g.compression = name
	return nil
}

// SetTLS explicitly enables or disables TLS for the connection.
// TLS cannot be disabled for non-local servers.
func (g *GRPCTransport) SetTLS(useTLS bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !useTLS && !isLocalServer(g.serverAddr) {
		g.logger.Warnf("🚨 Security Warning: Cannot disable TLS for production server: %s", g.serverAddr)
		g.logger.Warnf("   TLS is MANDATORY for all non-localhost connections")
		return
	}

	g.useTLS = useTLS
	// If connection already exists, it will be recreated on next use
	if g.conn != nil {
		g.logger.Debugf("TLS setting changed, will reconnect with %s",
			map[bool]string{true: "TLS enabled", false: "TLS disabled"}[useTLS])
		g.closeLocked()
	}
}

// IsTLSEnabled returns whether TLS is currently enabled
func (g *GRPCTransport) IsTLSEnabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.useTLS
}

// GetSecurityInfo returns security information about the connection
func (g *GRPCTransport) GetSecurityInfo() map[string]interface{} {
	g.mu.Lock()
	useTLS := g.useTLS
	g.mu.Unlock()

	isLocal := isLocalServer(g.serverAddr)
	return map[string]interface{}{
		"server_address": g.serverAddr,
		"tls_enabled":    useTLS,
		"is_local":       isLocal,
		"security_level": map[bool]string{true: "SECURE (TLS)", false: "INSECURE (no TLS)"}[useTLS],
		"recommendation": func() string {
			if isLocal && !useTLS {
				return "OK - Local development"
			} else if !isLocal && useTLS {
				return "SECURE - Production with TLS"
			} else if !isLocal && !useTLS {
				return "⚠️ INSECURE - Production without TLS"
			}
			return "SECURE - Local with TLS"
		}(),
	}
}

// extractHostname extracts hostname from server address for TLS ServerName
func (g *GRPCTransport) extractHostname() string {
	if host, _, err := net.SplitHostPort(g.serverAddr); err == nil {
		return host
	}
	return g.serverAddr
}

// Connect establishes the gRPC client connection. It is lazy: the network
// dial happens on the first RPC.
func (g *GRPCTransport) Connect() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.connectLocked()
	return err
}

func (g *GRPCTransport) connectLocked() (*grpc.ClientConn, error) {
	if g.conn != nil {
		return g.conn, nil
	}

	// Only log connection attempt if not recently connected
	if !g.isConnected || time.Since(g.lastConnectTime) > 5*time.Minute {
		g.logger.Infof("🔗 Attempting to establish gRPC connection...")
		g.logger.Debugf("📡 gRPC Server Address: %s", g.serverAddr)
		g.logger.Debugf("⏱️  Call Timeout: %s", g.timeout)
		if g.useTLS {
			g.logger.Debugf("🔒 Transport: Secure (TLS enabled)")
		} else {
			g.logger.Debugf("⚠️  Transport: Insecure (no TLS)")
		}
	}

	var creds credentials.TransportCredentials
	if g.useTLS {
		creds = credentials.NewTLS(&tls.Config{
			ServerName: g.extractHostname(),
			MinVersion: tls.VersionTLS12,
		})
	} else {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.NewClient(g.serverAddr, grpc.WithTransportCredentials(creds))
	if err != nil {
		g.isConnected = false

		errorKey := fmt.Sprintf("connect_%s", g.serverAddr)
		if g.shouldLogError(errorKey) {
			g.logger.Errorf("❌ gRPC client creation failed!")
			g.logger.Errorf("   Server: %s", g.serverAddr)
			g.logger.Errorf("   Error: %v", err)
		}
		return nil, fmt.Errorf("failed to create gRPC client: %w", err)
	}

	state := conn.GetState()
	if state == connectivity.Idle {
		g.logger.Debugf("🔄 Connection is idle (will connect on first RPC call)")
	}

	if !g.isConnected || time.Since(g.lastConnectTime) > 5*time.Minute {
		g.logger.Infof("✅ gRPC client ready for: %s", g.serverAddr)
	}

	g.conn = conn
	g.isConnected = true
	g.lastConnectTime = time.Now()
	return conn, nil
}

// Close closes the gRPC connection
func (g *GRPCTransport) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closeLocked()
}

func (g *GRPCTransport) closeLocked() error {
	if g.conn == nil {
		return nil
	}
	g.logger.Debug("Closing gRPC connection")
	err := g.conn.Close()
	g.conn = nil
	g.isConnected = false
	return err
}

// shouldLogError determines if an error should be logged.
// Returns true only for the first occurrence of an error state.
func (g *GRPCTransport) shouldLogError(errorKey string) bool {
	if g.lastErrorState != errorKey {
		g.lastErrorState = errorKey
		g.hasLoggedError = true
		g.wasSuccessful = false
		return true
	}

	if !g.hasLoggedError {
		g.hasLoggedError = true
		g.wasSuccessful = false
		return true
	}

	return false
}

// markSuccess marks an operation as successful and logs recovery if needed
func (g *GRPCTransport) markSuccess(operation string) {
	if !g.wasSuccessful {
		g.logger.Infof("✅ %s recovered", operation)
	}

	g.lastErrorState = ""
	g.hasLoggedError = false
	g.wasSuccessful = true
}

// StartLaunch implements Transport
func (g *GRPCTransport) StartLaunch(ctx context.Context, launch Launch) error {
	req, err := encodeLaunch(g.project, launch)
	if err != nil {
		return fmt.Errorf("failed to encode launch: %w", err)
	}
	return g.invoke(ctx, methodStartLaunch, req)
}

// FinishLaunch implements Transport
func (g *GRPCTransport) FinishLaunch(ctx context.Context, launch Launch) error {
	req, err := encodeLaunch(g.project, launch)
	if err != nil {
		return fmt.Errorf("failed to encode launch: %w", err)
	}
	return g.invoke(ctx, methodFinishLaunch, req)
}

// StartItem implements Transport
func (g *GRPCTransport) StartItem(ctx context.Context, item Item) error {
	req, err := encodeItem(g.project, item)
	if err != nil {
		return fmt.Errorf("failed to encode item: %w", err)
	}
	return g.invoke(ctx, methodStartItem, req)
}

// FinishItem implements Transport
func (g *GRPCTransport) FinishItem(ctx context.Context, item Item) error {
	req, err := encodeItem(g.project, item)
	if err != nil {
		return fmt.Errorf("failed to encode item: %w", err)
	}
	return g.invoke(ctx, methodFinishItem, req)
}

// SaveLog implements Transport
func (g *GRPCTransport) SaveLog(ctx context.Context, entry Entry) error {
	req, err := encodeEntry(g.project, entry)
	if err != nil {
		return fmt.Errorf("failed to encode log entry: %w", err)
	}
	return g.invoke(ctx, methodSaveLog, req)
}

// invoke performs one unary call with auth metadata and the call timeout
func (g *GRPCTransport) invoke(ctx context.Context, method string, req *structpb.Struct) error {
	g.mu.Lock()
	conn, err := g.connectLocked()
	g.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to establish gRPC connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ctx = metadata.NewOutgoingContext(ctx, metadata.New(map[string]string{
		"authorization": "Bearer " + g.apiKey,
	}))

	var opts []grpc.CallOption
	if g.compression != "" {
		opts = append(opts, grpc.UseCompressor(g.compression))
	}

	g.logger.Debugf("🚀 Sending gRPC %s request to %s", method, g.serverAddr)

	err = conn.Invoke(ctx, fullMethodName(method), req, new(emptypb.Empty), opts...)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		return g.mapError(method, err)
	}
	g.markSuccess(method)
	return nil
}

// mapError turns a gRPC error into a readable error, logging it once per error state
func (g *GRPCTransport) mapError(method string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		if g.shouldLogError(fmt.Sprintf("generic_%s_%s", method, g.serverAddr)) {
			g.logger.Errorf("❌ gRPC %s request failed!", method)
			g.logger.Errorf("   Server: %s", g.serverAddr)
			g.logger.Errorf("   Raw error: %v", err)
		}
		return fmt.Errorf("gRPC %s request failed: %w", method, err)
	}

	var errorMsg string
	switch st.Code() {
	case codes.Unauthenticated:
		errorMsg = "authentication failed: API key invalid or expired"
	case codes.InvalidArgument:
		errorMsg = fmt.Sprintf("request error: invalid data format - %s", st.Message())
	case codes.NotFound:
		errorMsg = fmt.Sprintf("not found: check launch and item UUIDs - %s", st.Message())
	case codes.Internal:
		errorMsg = fmt.Sprintf("server error: %s", st.Message())
	case codes.DeadlineExceeded:
		errorMsg = fmt.Sprintf("request timeout: %s", st.Message())
	case codes.Unavailable:
		errorMsg = fmt.Sprintf("server unavailable: %s", st.Message())
	default:
		errorMsg = fmt.Sprintf("gRPC error [%s]: %s", st.Code(), st.Message())
	}

	if g.shouldLogError(fmt.Sprintf("grpc_%s_%s_%s", method, st.Code(), g.serverAddr)) {
		g.logger.Errorf("❌ gRPC %s request failed!", method)
		g.logger.Errorf("   Server: %s", g.serverAddr)
		g.logger.Errorf("   gRPC Status: %s", st.Code())
		g.logger.Errorf("   Error Message: %s", st.Message())
	}

	return errors.New(errorMsg)
}
