package api

import (
	"context"
	"math"
	"strconv"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	bookingLookupService  = "shareit.bookings.v1.BookingLookup"
	methodGetBooking      = "/" + bookingLookupService + "/GetBooking"
	methodGetItemBookings = "/" + bookingLookupService + "/GetItemBookings"
)

// BookingLookupServer is the read-only booking API served over gRPC.
// Messages are google.protobuf.Struct documents.
type BookingLookupServer interface {
	GetBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetItemBookings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type itemBookingsReader interface {
	ForItems(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]service.ItemBookings, error)
}

type BookingLookupService struct {
	bookings   domain.BookingService
	aggregator itemBookingsReader
	now        func() time.Time
}

func NewBookingLookupService(bookings domain.BookingService, aggregator itemBookingsReader) *BookingLookupService {
	return &BookingLookupService{bookings: bookings, aggregator: aggregator, now: time.Now}
}

// GetBooking expects {booking_id, user_id} and applies the usual visibility rules.
func (s *BookingLookupService) GetBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	bookingID, err := intField(req, "booking_id")
	if err != nil {
		return nil, err
	}
	userID, err := intField(req, "user_id")
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, grpcError(err)
	}

	resp, err := structpb.NewStruct(bookingFields(booking))
	if err != nil {
		return nil, status.Error(codes.Internal, "encode booking")
	}
	return resp, nil
}

// GetItemBookings expects {item_ids: [...]} and returns the last and next
// approved booking of each item.
func (s *BookingLookupService) GetItemBookings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	list := req.GetFields()["item_ids"].GetListValue()
	if list == nil || len(list.GetValues()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "item_ids is required")
	}

	ids := make([]int64, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		id, ok := toID(v)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "item_ids must be positive integers")
		}
		ids = append(ids, id)
	}

	windows, err := s.aggregator.ForItems(ctx, ids, s.now().UTC())
	if err != nil {
		return nil, grpcError(err)
	}

	items := make(map[string]interface{}, len(ids))
	for _, id := range ids {
		w := windows[id]
		items[strconv.FormatInt(id, 10)] = map[string]interface{}{
			"last_booking": shortFields(w.Last),
			"next_booking": shortFields(w.Next),
		}
	}

	resp, err := structpb.NewStruct(map[string]interface{}{"items": items})
	if err != nil {
		return nil, status.Error(codes.Internal, "encode item bookings")
	}
	return resp, nil
}

func bookingFields(b *models.Booking) map[string]interface{} {
	fields := map[string]interface{}{
		"id":        b.ID,
		"item_id":   b.ItemID,
		"booker_id": b.BookerID,
		"status":    string(b.Status),
		"start":     b.Start.UTC().Format(time.RFC3339),
		"end":       b.End.UTC().Format(time.RFC3339),
	}
	if b.Item != nil {
		fields["item_name"] = b.Item.Name
	}
	if b.Booker != nil {
		fields["booker_name"] = b.Booker.Name
	}
	return fields
}

func shortFields(b *models.BookingShort) interface{} {
	if b == nil {
		return nil
	}
	return map[string]interface{}{
		"id":        b.ID,
		"booker_id": b.BookerID,
		"start":     b.Start.UTC().Format(time.RFC3339),
		"end":       b.End.UTC().Format(time.RFC3339),
	}
}

func intField(s *structpb.Struct, name string) (int64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	id, ok := toID(v)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a positive integer", name)
	}
	return id, nil
}

// maxExactID is 2^53, the largest integer a JSON number holds exactly.
const maxExactID = 1 << 53

func toID(v *structpb.Value) (int64, bool) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue <= 0 || n.NumberValue > maxExactID || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, false
	}
	return int64(n.NumberValue), true
}

func registerBookingLookupServer(s grpc.ServiceRegistrar, srv BookingLookupServer) {
	s.RegisterService(&bookingLookupServiceDesc, srv)
}

func getBookingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingLookupServer).GetBooking(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetBooking}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingLookupServer).GetBooking(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getItemBookingsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingLookupServer).GetItemBookings(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetItemBookings}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingLookupServer).GetItemBookings(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var bookingLookupServiceDesc = grpc.ServiceDesc{
	ServiceName: bookingLookupService,
	HandlerType: (*BookingLookupServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetBooking", Handler: getBookingHandler},
		{MethodName: "GetItemBookings", Handler: getItemBookingsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shareit/bookings/v1/lookup.proto",
}

// BookingLookupClient calls BookingLookup over an existing connection.
type BookingLookupClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingLookupClient(cc grpc.ClientConnInterface) *BookingLookupClient {
	return &BookingLookupClient{cc: cc}
}

func (c *BookingLookupClient) GetBooking(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetBooking, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingLookupClient) GetItemBookings(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetItemBookings, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
