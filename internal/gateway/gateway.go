// Package gateway exposes samd verbs over HTTP. One gateway owns one
// session; requests through it are served one at a time by the session.
package gateway

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/samwise/internal/config"
	"github.com/danmuck/samwise/internal/observability"
	"github.com/danmuck/samwise/internal/protocol"
	"github.com/danmuck/samwise/internal/protocol/control"
	"github.com/danmuck/samwise/internal/protocol/rabbitmq"
	"github.com/danmuck/samwise/internal/protocol/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Server struct {
	Name     string
	Addr     string
	Endpoint string
	Appeared time.Time

	cfg     config.GatewayConfig
	session *session.Session
	client  *rabbitmq.Client
	router  *gin.Engine

	// connMu serializes reconnects; rng is only used under it.
	connMu sync.Mutex
	rng    *rand.Rand
}

func New(cfg config.GatewayConfig) *Server {
	cfg = cfg.WithDefaults()
	observability.RegisterMetrics()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	if len(cfg.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	sess := session.New(cfg.Session())
	s := &Server{
		Name:     cfg.Name,
		Addr:     cfg.Addr,
		Endpoint: cfg.Endpoint,
		Appeared: time.Now(),
		cfg:      cfg,
		session:  sess,
		client:   rabbitmq.NewClient(sess),
		router:   r,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) Session() *session.Session {
	return s.session
}

// Serve connects eagerly, logging instead of failing when samd is not up
// yet, then blocks serving HTTP.
func (s *Server) Serve() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.session.Config().ConnectTimeout)
	if err := s.ensureConnected(ctx); err != nil {
		log.Warn().Err(err).Str("endpoint", s.Endpoint).Msg("gateway: samd not reachable yet, connecting lazily")
	}
	cancel()
	return s.router.Run(s.Addr)
}

func (s *Server) Close() error {
	return s.session.Close()
}

// do runs op once a connection is available. Only connecting is retried;
// a request that may have reached samd is never replayed.
func (s *Server) do(ctx context.Context, op func(context.Context) error) error {
	if err := s.ensureConnected(ctx); err != nil {
		return err
	}
	return op(ctx)
}

func (s *Server) ensureConnected(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.session.State() == session.StateConnected {
		return nil
	}
	backoff := s.session.Config().Backoff
	var err error
	for attempt := 1; attempt <= s.cfg.MaxConnectAttempts; attempt++ {
		if err = s.session.Connect(ctx, s.Endpoint); err == nil {
			if attempt > 1 {
				log.Info().Int("attempt", attempt).Str("endpoint", s.Endpoint).Msg("gateway: reconnected")
			}
			return nil
		}
		log.Warn().Int("attempt", attempt).Str("endpoint", s.Endpoint).Err(err).Msg("gateway: connect failed")
		if attempt == s.cfg.MaxConnectAttempts {
			break
		}
		if werr := session.WaitBackoff(ctx, backoff, attempt, s.rng); werr != nil {
			return protocol.ConnectionFailure("connect "+s.Endpoint, errors.Join(err, werr))
		}
	}
	return err
}

func (s *Server) ping(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) error {
		return control.Ping(ctx, s.session)
	})
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		out = append(out, strings.TrimRight(origin, "/"))
	}
	return out
}
