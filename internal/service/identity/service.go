package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"BiasLens/internal/domain/models"
	dservice "BiasLens/internal/domain/service"
	xhttp "BiasLens/pkg/http"
	applogger "BiasLens/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Option configures Service.
type Option func(*Service)

// WithJWTSecret enables local HS256 verification.
func WithJWTSecret(secret string) Option {
	return func(s *Service) { s.secret = []byte(secret) }
}

// WithRemote enables verification against the identity provider's user endpoint.
func WithRemote(baseURL, anonKey string) Option {
	return func(s *Service) {
		s.baseURL = strings.TrimRight(baseURL, "/")
		s.anonKey = anonKey
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithHTTPClient(hc *xhttp.Client) Option {
	return func(s *Service) { s.http = hc }
}

func WithLogger(l *applogger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// Service resolves bearer tokens to users. Local verification is tried first; the remote
// endpoint is consulted when no secret is set or the local check fails.
type Service struct {
	secret  []byte
	baseURL string
	anonKey string
	timeout time.Duration
	http    *xhttp.Client
	log     *applogger.Logger
}

var _ dservice.Authenticator = (*Service)(nil)

func New(opts ...Option) *Service {
	s := &Service{timeout: 5 * time.Second, log: applogger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.http == nil {
		s.http = xhttp.NewClient(xhttp.WithTimeout(s.timeout))
	}
	return s
}

type claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, dservice.ErrUnauthorized
	}

	var localErr error
	if len(s.secret) > 0 {
		u, err := s.verifyLocal(token)
		if err == nil {
			return u, nil
		}
		localErr = err
	}
	if s.baseURL == "" {
		if localErr == nil {
			localErr = errors.New("no verifier configured")
		}
		return nil, fmt.Errorf("%w: %v", dservice.ErrUnauthorized, localErr)
	}

	u, err := s.verifyRemote(ctx, token)
	if err != nil {
		s.log.Debug("remote token verification failed", applogger.Error(err))
		return nil, fmt.Errorf("%w: %v", dservice.ErrUnauthorized, err)
	}
	return u, nil
}

func (s *Service) verifyLocal(token string) (*models.User, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid || c.Subject == "" {
		return nil, errors.New("jwt missing subject")
	}
	return &models.User{ID: c.Subject, Email: c.Email, Role: c.Role}, nil
}

type remoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Service) verifyRemote(ctx context.Context, token string) (*models.User, error) {
	headers := map[string]string{"Authorization": "Bearer " + token}
	if s.anonKey != "" {
		headers["apikey"] = s.anonKey
	}
	var ru remoteUser
	err := s.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     s.baseURL + "/auth/v1/user",
		Headers: headers,
	}, &ru)
	if err != nil {
		return nil, err
	}
	if ru.ID == "" {
		return nil, errors.New("identity provider returned no user id")
	}
	return &models.User{ID: ru.ID, Email: ru.Email, Role: ru.Role}, nil
}
