package service

import (
	"context"
	"net"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"rplog/internal/harness"
	"rplog/internal/report"
)

// mockGRPCReportServer implements report.ReportServiceServer for testing
type mockGRPCReportServer struct {
	report.UnimplementedReportServiceServer

	mu            sync.Mutex
	launches      []report.Launch
	items         []report.Item
	entries       []report.Entry
	authorization []string
}

func (m *mockGRPCReportServer) auth(ctx context.Context) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		m.mu.Lock()
		m.authorization = append(m.authorization, md.Get("authorization")...)
		m.mu.Unlock()
	}
}

func (m *mockGRPCReportServer) launch(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	m.auth(ctx)
	launch, err := report.DecodeLaunch(req)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.launches = append(m.launches, launch)
	m.mu.Unlock()
	return &emptypb.Empty{}, nil
}

func (m *mockGRPCReportServer) item(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	m.auth(ctx)
	item, err := report.DecodeItem(req)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.items = append(m.items, item)
	m.mu.Unlock()
	return &emptypb.Empty{}, nil
}

func (m *mockGRPCReportServer) StartLaunch(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	return m.launch(ctx, req)
}

func (m *mockGRPCReportServer) FinishLaunch(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	return m.launch(ctx, req)
}

func (m *mockGRPCReportServer) StartItem(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	return m.item(ctx, req)
}

func (m *mockGRPCReportServer) FinishItem(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	return m.item(ctx, req)
}

func (m *mockGRPCReportServer) SaveLog(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	m.auth(ctx)
	entry, err := report.DecodeEntry(req)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	return &emptypb.Empty{}, nil
}

func TestService_gRPC_Integration(t *testing.T) {
	// Setup gRPC server
	mockServer := &mockGRPCReportServer{}
	lis, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)

	s := grpc.NewServer()
	report.RegisterReportServiceServer(s, mockServer)

	go func() {
		s.Serve(lis)
	}()
	defer s.Stop()

	configPath, logFile := writeConfig(t, `endpoint: `+lis.Addr().String()+`
api_key: abcd1234apikey
project: examples
compression: gzip
launch: gRPC integration
files_dir: `+filesDir(t)+`
log_level: debug
`)

	svc, err := New(configPath, logFile)
	require.NoError(t, err)
	defer svc.Close()

	results, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, harness.Failed(results))

	logContent, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logContent), "Security: INSECURE (no TLS) (OK - Local development)")

	mockServer.mu.Lock()
	defer mockServer.mu.Unlock()

	// start and finish of one launch
	require.Len(t, mockServer.launches, 2)
	assert.Equal(t, "gRPC integration", mockServer.launches[0].Name)
	assert.Equal(t, mockServer.launches[0].UUID, mockServer.launches[1].UUID)
	assert.Equal(t, report.StatusPassed, mockServer.launches[1].Status)

	// start and finish of nine items
	assert.Len(t, mockServer.items, 18)
	assert.GreaterOrEqual(t, len(mockServer.entries), 12)

	for _, h := range mockServer.authorization {
		assert.Equal(t, "Bearer abcd1234apikey", h)
	}
	assert.NotEmpty(t, mockServer.authorization)
}
