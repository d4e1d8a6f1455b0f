package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Identity is set by the gateway in front of this service. Nothing here
// verifies it.
const (
	CompanyHeader = "x-company-id"
	UserHeader    = "x-user-id"
)

type UserContext struct {
	CompanyID string
	UserID    string
}

type userKey struct{}

func WithUser(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func FromContext(ctx context.Context) UserContext {
	if u, ok := ctx.Value(userKey{}).(UserContext); ok {
		return u
	}
	return UserContext{
		CompanyID: fromMetadata(ctx, CompanyHeader),
		UserID:    fromMetadata(ctx, UserHeader),
	}
}

func GetCompanyID(ctx context.Context) string {
	return FromContext(ctx).CompanyID
}

func GetUserID(ctx context.Context) string {
	return FromContext(ctx).UserID
}

func fromMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if val := md.Get(key); len(val) > 0 {
		return strings.TrimSpace(val[0])
	}
	return ""
}

// UnaryInterceptor copies identity headers into the context and rejects calls
// without a company. Methods under one of the given prefixes (for example a
// whole service, "/warehouse.v1.ReconciliationService/") may omit it.
func UnaryInterceptor(companyOptional ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		u := UserContext{
			CompanyID: fromMetadata(ctx, CompanyHeader),
			UserID:    fromMetadata(ctx, UserHeader),
		}
		if u.CompanyID == "" && !hasPrefix(info.FullMethod, companyOptional) {
			return nil, status.Error(codes.Unauthenticated, "missing "+CompanyHeader)
		}
		return handler(WithUser(ctx, u), req)
	}
}

func hasPrefix(method string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(method, p) {
			return true
		}
	}
	return false
}
