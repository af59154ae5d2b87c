package grpc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"club-finance/internal/logger"
	"club-finance/internal/models"
	"club-finance/internal/services"
)

const serviceName = "club.ClubService"

// ClubServiceServer is the internal RPC surface used by sibling services and ops tooling.
// Requests and responses are generic protobuf Structs.
type ClubServiceServer interface {
	ListTickets(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPaymentStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CleanupNotifications(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(method string, call func(ClubServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ClubServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ClubServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ClubServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ClubServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListTickets", Handler: unaryHandler("ListTickets", ClubServiceServer.ListTickets)},
		{MethodName: "GetPaymentStatus", Handler: unaryHandler("GetPaymentStatus", ClubServiceServer.GetPaymentStatus)},
		{MethodName: "CleanupNotifications", Handler: unaryHandler("CleanupNotifications", ClubServiceServer.CleanupNotifications)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "club.proto",
}

func RegisterClubServiceServer(s grpc.ServiceRegistrar, srv ClubServiceServer) {
	s.RegisterService(&ClubServiceDesc, srv)
}

// Client calls ClubService over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTickets(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return c.call(ctx, "ListTickets", in)
}

func (c *Client) GetPaymentStatus(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return c.call(ctx, "GetPaymentStatus", in)
}

func (c *Client) CleanupNotifications(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return c.call(ctx, "CleanupNotifications", in)
}

type Server struct {
	Tickets  *services.TicketService
	Payments *services.PaymentService
	Cleanup  *services.CleanupService
	Logger   *logger.Logger
}

// NewServer builds a grpc.Server with ClubService registered.
func NewServer(srv *Server) *grpc.Server {
	s := grpc.NewServer()
	RegisterClubServiceServer(s, srv)
	return s
}

// StartGRPCServer listens on port and serves until the listener fails.
func StartGRPCServer(port string, srv *Server) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s := NewServer(srv)
	srv.Logger.Infof("gRPC server listening at %v", lis.Addr())
	return s.Serve(lis)
}

func (s *Server) ListTickets(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	res, err := s.Tickets.List(ctx, services.ListTicketsDTO{
		UserID:      fields["user_id"].GetStringValue(),
		OnlyCurrent: fields["current"].GetBoolValue(),
		Page:        int(fields["page"].GetNumberValue()),
		Limit:       int(fields["limit"].GetNumberValue()),
	})
	if err != nil {
		return nil, s.toStatus(err)
	}

	tickets, _ := res.Data.([]models.PaymentTicket)
	items := make([]interface{}, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, map[string]interface{}{
			"id":             t.ID,
			"code":           t.Code,
			"payment_id":     t.PaymentID,
			"user_id":        t.UserID,
			"amount":         t.Amount.StringFixed(2),
			"category":       t.Category,
			"payment_method": t.PaymentMethod,
			"proof_count":    t.ProofCount,
			"approved_at":    t.ApprovedAt.Format(time.RFC3339),
			"expires_at":     t.ExpiresAt.Format(time.RFC3339),
		})
	}
	return s.reply(map[string]interface{}{
		"count":       res.Count,
		"currentPage": res.CurrentPage,
		"lastPage":    res.LastPage,
		"tickets":     items,
	})
}

func (s *Server) GetPaymentStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["payment_id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "payment_id is required")
	}
	view, err := s.Payments.Get(ctx, id)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return s.reply(map[string]interface{}{
		"id":          view.ID,
		"status":      view.Status,
		"amount":      view.Amount.StringFixed(2),
		"paid_amount": view.PaidAmount.StringFixed(2),
		"outstanding": view.Outstanding.StringFixed(2),
		"credit":      view.Credit.StringFixed(2),
		"has_ticket":  view.HasTicket,
	})
}

// CleanupNotifications deletes read notifications. older_than_days overrides the configured retention.
func (s *Server) CleanupNotifications(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var (
		deleted int64
		err     error
	)
	if days := int(req.GetFields()["older_than_days"].GetNumberValue()); days > 0 {
		deleted, err = s.Cleanup.Notifications.CleanupRead(ctx, time.Duration(days)*24*time.Hour)
	} else {
		deleted, err = s.Cleanup.CleanupNotifications(ctx)
	}
	if err != nil {
		return nil, s.toStatus(err)
	}
	return s.reply(map[string]interface{}{"deleted": deleted})
}

func (s *Server) reply(m map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func (s *Server) toStatus(err error) error {
	switch services.StatusOf(err) {
	case http.StatusBadRequest:
		return status.Error(codes.InvalidArgument, err.Error())
	case http.StatusForbidden:
		return status.Error(codes.PermissionDenied, err.Error())
	case http.StatusNotFound:
		return status.Error(codes.NotFound, err.Error())
	case http.StatusConflict:
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	s.Logger.Errorf("rpc failed: %v", err)
	return status.Error(codes.Internal, "internal error")
}
