package report

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ReportServiceName is the fully qualified gRPC service name
const ReportServiceName = "rplog.report.v1.ReportService"

const (
	methodStartLaunch  = "StartLaunch"
	methodFinishLaunch = "FinishLaunch"
	methodStartItem    = "StartItem"
	methodFinishItem   = "FinishItem"
	methodSaveLog      = "SaveLog"
)

// ReportServiceServer is the server API of the report service
type ReportServiceServer interface {
	StartLaunch(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	FinishLaunch(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	StartItem(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	FinishItem(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	SaveLog(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// UnimplementedReportServiceServer can be embedded to satisfy ReportServiceServer
type UnimplementedReportServiceServer struct{}

func (UnimplementedReportServiceServer) StartLaunch(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StartLaunch not implemented")
}

func (UnimplementedReportServiceServer) FinishLaunch(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method FinishLaunch not implemented")
}

func (UnimplementedReportServiceServer) StartItem(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StartItem not implemented")
}

func (UnimplementedReportServiceServer) FinishItem(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method FinishItem not implemented")
}

func (UnimplementedReportServiceServer) SaveLog(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SaveLog not implemented")
}

// RegisterReportServiceServer registers srv on s
func RegisterReportServiceServer(s grpc.ServiceRegistrar, srv ReportServiceServer) {
	s.RegisterService(&ReportServiceDesc, srv)
}

// ReportServiceDesc describes the report service for grpc.Server
var ReportServiceDesc = grpc.ServiceDesc{
	ServiceName: ReportServiceName,
	HandlerType: (*ReportServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodStartLaunch, Handler: unaryHandler(methodStartLaunch, ReportServiceServer.StartLaunch)},
		{MethodName: methodFinishLaunch, Handler: unaryHandler(methodFinishLaunch, ReportServiceServer.FinishLaunch)},
		{MethodName: methodStartItem, Handler: unaryHandler(methodStartItem, ReportServiceServer.StartItem)},
		{MethodName: methodFinishItem, Handler: unaryHandler(methodFinishItem, ReportServiceServer.FinishItem)},
		{MethodName: methodSaveLog, Handler: unaryHandler(methodSaveLog, ReportServiceServer.SaveLog)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rplog/report/v1/report.proto",
}

type unaryMethod func(ReportServiceServer, context.Context, *structpb.Struct) (*emptypb.Empty, error)

func unaryHandler(method string, call unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	fullMethod := fullMethodName(method)
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ReportServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ReportServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func fullMethodName(method string) string {
	return "/" + ReportServiceName + "/" + method
}
