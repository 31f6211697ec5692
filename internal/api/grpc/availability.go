package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"rentstock-backend/internal/service"
	"rentstock-backend/internal/utils"
)

const defaultShortfallLimit = 30

// AvailabilityServiceServer is the booking-facing availability API. Messages are
// google.protobuf.Struct documents using the same field names as the JSON API.
type AvailabilityServiceServer interface {
	GetConstraints(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ProjectAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListShortfalls(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type AvailabilityHandler struct {
	orgSvc    service.OrganizationService
	calendar  service.PeriodCalendar
	projector service.AvailabilityProjector
	reporter  service.ShortfallReporter
}

func NewAvailabilityHandler(
	orgSvc service.OrganizationService,
	calendar service.PeriodCalendar,
	projector service.AvailabilityProjector,
	reporter service.ShortfallReporter,
) *AvailabilityHandler {
	return &AvailabilityHandler{
		orgSvc:    orgSvc,
		calendar:  calendar,
		projector: projector,
		reporter:  reporter,
	}
}

func (h *AvailabilityHandler) GetConstraints(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	orgID, err := requiredInt32(req, "org_id")
	if err != nil {
		return nil, err
	}
	var ref *time.Time
	if s := stringField(req, "reference_date"); s != "" {
		loc, err := h.orgSvc.Location(ctx, orgID)
		if err != nil {
			return nil, MapError(err)
		}
		t, err := utils.ParseInstant(s, loc)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		ref = &t
	}

	c, err := h.calendar.Constraints(ctx, orgID, ref)
	if err != nil {
		return nil, MapError(err)
	}
	return encode(MapConstraintsToStruct(c))
}

func (h *AvailabilityHandler) ProjectAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	orgID, err := requiredInt32(req, "org_id")
	if err != nil {
		return nil, err
	}
	itemID, err := requiredInt32(req, "item_id")
	if err != nil {
		return nil, err
	}
	var location *int32
	if id, ok, err := int32Field(req, "location_id"); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	} else if ok {
		location = &id
	}

	loc, err := h.orgSvc.Location(ctx, orgID)
	if err != nil {
		return nil, MapError(err)
	}
	from, err := utils.ParseInstant(stringField(req, "from"), loc)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "from: %v", err)
	}
	to, err := utils.ParseInstant(stringField(req, "to"), loc)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "to: %v", err)
	}

	intervals, err := h.projector.Project(ctx, orgID, itemID, from, to, location)
	if err != nil {
		return nil, MapError(err)
	}
	return encode(MapIntervalsToStruct(intervals))
}

func (h *AvailabilityHandler) ListShortfalls(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := ActorFromContext(ctx); err != nil {
		return nil, err
	}
	orgID, err := requiredInt32(req, "org_id")
	if err != nil {
		return nil, err
	}
	limit, ok, err := int32Field(req, "limit")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if !ok || limit <= 0 {
		limit = defaultShortfallLimit
	}

	tasks, err := h.reporter.ListTasks(ctx, orgID, limit)
	if err != nil {
		return nil, MapError(err)
	}
	return encode(MapTasksToStruct(tasks))
}

func requiredInt32(req *structpb.Struct, name string) (int32, error) {
	v, ok, err := int32Field(req, name)
	if err != nil {
		return 0, status.Error(codes.InvalidArgument, err.Error())
	}
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	return v, nil
}

func encode(s *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return s, nil
}

// RegisterAvailabilityServiceServer registers srv on s
func RegisterAvailabilityServiceServer(s grpc.ServiceRegistrar, srv AvailabilityServiceServer) {
	s.RegisterService(&AvailabilityService_ServiceDesc, srv)
}

var AvailabilityService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "rentstock.v1.AvailabilityService",
	HandlerType: (*AvailabilityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetConstraints",
			Handler: unaryHandler("GetConstraints", func(srv AvailabilityServiceServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
				return srv.GetConstraints
			}),
		},
		{
			MethodName: "ProjectAvailability",
			Handler: unaryHandler("ProjectAvailability", func(srv AvailabilityServiceServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
				return srv.ProjectAvailability
			}),
		},
		{
			MethodName: "ListShortfalls",
			Handler: unaryHandler("ListShortfalls", func(srv AvailabilityServiceServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error) {
				return srv.ListShortfalls
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rentstock/v1/availability.proto",
}

func unaryHandler(method string, pick func(AvailabilityServiceServer) func(context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	fullMethod := "/rentstock.v1.AvailabilityService/" + method
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		call := pick(srv.(AvailabilityServiceServer))
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
