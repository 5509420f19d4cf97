package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"

	"shareit/internal/config"
	"shareit/internal/metrics"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	permReadBookings      = "read:bookings"
	permWriteBookings     = "write:bookings"
	clientKeyUnknown      = "unknown"
)

var (
	errMissingKey       = errors.New("missing api key headers")
	errInvalidKey       = errors.New("invalid api key")
	errInvalidExtra     = errors.New("invalid extra header")
	errPermissionDenied = errors.New("permission denied")
)

// keyring resolves static API clients shared by the HTTP and gRPC guards.
type keyring struct {
	auth    config.APIAuthConfig
	clients map[string]config.APIClientKey
}

func newKeyring(auth config.APIAuthConfig) *keyring {
	m := make(map[string]config.APIClientKey, len(auth.APIKeys))
	for _, k := range auth.APIKeys {
		m[k.Key] = k
	}
	return &keyring{auth: auth, clients: m}
}

func (k *keyring) headerNames() (apiKey, extra string) {
	apiKey = strings.ToLower(strings.TrimSpace(k.auth.HeaderAPIKey))
	if apiKey == "" {
		apiKey = apiKeyHeaderDefault
	}
	extra = strings.ToLower(strings.TrimSpace(k.auth.HeaderExtra))
	if extra == "" {
		extra = apiExtraHeaderDefault
	}
	return apiKey, extra
}

// authenticate checks the key pair and that the client holds required.
func (k *keyring) authenticate(apiKey, extra, required string) error {
	if apiKey == "" || extra == "" {
		return errMissingKey
	}

	client, ok := k.clients[apiKey]
	if !ok {
		return errInvalidKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return errInvalidExtra
	}

	if required == "" || len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

// HTTPAuth provides API-key auth and per-key rate limiting for HTTP endpoints.
type HTTPAuth struct {
	keys    *keyring
	limiter *rateLimiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	return &HTTPAuth{
		keys:    newKeyring(cfg.Auth),
		limiter: newRateLimiter(cfg.RateLimit),
	}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		if a.keys.auth.Enabled {
			keyHeader, extraHeader := a.keys.headerNames()
			err := a.keys.authenticate(
				strings.TrimSpace(r.Header.Get(keyHeader)),
				strings.TrimSpace(r.Header.Get(extraHeader)),
				requiredPermissionHTTP(r),
			)
			if err != nil {
				statusCode := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					statusCode = http.StatusForbidden
				}
				writeError(w, statusCode, err.Error())
				return
			}
		}

		if !a.limiter.allow(a.clientKey(r)) {
			metrics.IncRateLimited("api_key")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requiredPermissionHTTP(r *http.Request) string {
	if !strings.HasPrefix(r.URL.Path, "/bookings") {
		return ""
	}
	if r.Method == http.MethodGet {
		return permReadBookings
	}
	return permWriteBookings
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	keyHeader, _ := a.keys.headerNames()
	if apiKey := strings.TrimSpace(r.Header.Get(keyHeader)); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

// AuthInterceptor applies the same API-key and rate-limit rules to gRPC calls.
type AuthInterceptor struct {
	keys    *keyring
	limiter *rateLimiter
}

func NewAuthInterceptor(cfg *config.APIConfig) *AuthInterceptor {
	return &AuthInterceptor{
		keys:    newKeyring(cfg.Auth),
		limiter: newRateLimiter(cfg.RateLimit),
	}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if a.keys.auth.Enabled {
			if err := a.checkAuth(ctx, info.FullMethod); err != nil {
				return nil, err
			}
		}
		if !a.limiter.allow(a.clientKey(ctx)) {
			metrics.IncRateLimited("api_key")
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}

		return handler(ctx, req)
	}
}

func (a *AuthInterceptor) checkAuth(ctx context.Context, fullMethod string) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}

	keyHeader, extraHeader := a.keys.headerNames()
	err := a.keys.authenticate(first(md.Get(keyHeader)), first(md.Get(extraHeader)), requiredPermission(fullMethod))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Unauthenticated, err.Error())
	}
}

func requiredPermission(fullMethod string) string {
	switch fullMethod {
	case methodGetBooking, methodGetItemBookings:
		return permReadBookings
	default:
		return ""
	}
}

func (a *AuthInterceptor) clientKey(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	keyHeader, _ := a.keys.headerNames()
	if apiKey := first(md.Get(keyHeader)); apiKey != "" {
		return apiKey
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return clientKeyUnknown
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
