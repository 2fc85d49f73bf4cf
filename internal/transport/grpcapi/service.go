// Package grpcapi serves the simulator over gRPC. Requests and responses
// are google.protobuf.Struct values carrying the same JSON shapes as the
// HTTP API, so no generated stubs are needed.
package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/sancheck/internal/scenario"
	"github.com/xtding233/sancheck/internal/service"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "sancheck.v1.Simulator"

// SweepMethod is the full method path of Sweep.
const SweepMethod = "/" + ServiceName + "/Sweep"

// SweepRequest selects what to sweep: either an inline Document or a
// named Scenario, with optional overrides.
type SweepRequest struct {
	Scenario   string             `mapstructure:"scenario"`
	Document   *scenario.Document `mapstructure:"document"`
	Trials     *int               `mapstructure:"trials"`
	Seed       *uint64            `mapstructure:"seed"`
	Workers    *int               `mapstructure:"workers"`
	InitialSAN []int              `mapstructure:"initial_san"`
}

func (r SweepRequest) overrides() scenario.Overrides {
	return scenario.Overrides{
		Trials:     r.Trials,
		Seed:       r.Seed,
		Workers:    r.Workers,
		InitialSAN: r.InitialSAN,
	}
}

// SimulatorServer is the server API of sancheck.v1.Simulator.
type SimulatorServer interface {
	Sweep(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes sancheck.v1.Simulator for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Sweep", Handler: sweepHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sancheck/v1/simulator.proto",
}

// RegisterSimulatorServer registers srv on s.
func RegisterSimulatorServer(s grpc.ServiceRegistrar, srv SimulatorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func sweepHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulatorServer).Sweep(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SweepMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimulatorServer).Sweep(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Simulator implements SimulatorServer on a service.Service.
type Simulator struct {
	svc *service.Service
}

// NewSimulator wraps svc.
func NewSimulator(svc *service.Service) *Simulator {
	return &Simulator{svc: svc}
}

// Sweep runs the requested sweep and returns the report as a Struct.
func (s *Simulator) Sweep(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := DecodeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	var rep service.Report
	switch {
	case req.Document != nil && req.Scenario != "":
		return nil, status.Error(codes.InvalidArgument, "set either scenario or document, not both")
	case req.Document != nil:
		rep, err = s.svc.SweepDocument(ctx, req.overrides().Apply(*req.Document))
	case req.Scenario != "":
		rep, err = s.svc.SweepScenario(ctx, req.Scenario, req.overrides())
	default:
		return nil, status.Error(codes.InvalidArgument, "scenario or document is required")
	}
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := EncodeReport(rep)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode report: %v", err)
	}
	return out, nil
}

// DecodeRequest maps a Struct onto a SweepRequest. Unknown keys are
// rejected; numbers and strings convert loosely.
func DecodeRequest(in *structpb.Struct) (SweepRequest, error) {
	var req SweepRequest
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &req,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return SweepRequest{}, err
	}
	if err := dec.Decode(in.AsMap()); err != nil {
		return SweepRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// EncodeReport converts a report to a Struct through its JSON form.
func EncodeReport(rep service.Report) (*structpb.Struct, error) {
	b, err := json.Marshal(rep)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func toStatus(err error) error {
	switch {
	case service.IsInvalidInput(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, scenario.ErrUnknownScenario):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
