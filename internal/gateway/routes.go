package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/samwise/internal/protocol"
	"github.com/danmuck/samwise/internal/protocol/rabbitmq"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PublishRequest is the JSON body of POST /publish.
type PublishRequest struct {
	Distribution string            `json:"distribution"`
	Count        int               `json:"count"`
	Exchange     string            `json:"exchange"`
	RoutingKey   string            `json:"routing_key"`
	Mandatory    bool              `json:"mandatory"`
	Immediate    bool              `json:"immediate"`
	Options      map[string]string `json:"options"`
	Headers      map[string]string `json:"headers"`
	Payload      string            `json:"payload"`
}

// ExchangeRequest is the JSON body of PUT /exchanges/:name.
type ExchangeRequest struct {
	Kind string `json:"kind"`
}

func (s *Server) RegisterRoutes() {
	r := s.router
	r.GET("/health", func(c *gin.Context) {
		if err := s.ping(c.Request.Context()); err != nil {
			abortWithProtocolError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"service":  s.Name,
			"endpoint": s.Endpoint,
			"uptime":   time.Since(s.Appeared).String(),
			"protocol": protocol.VersionString(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/publish", func(c *gin.Context) {
		var req PublishRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithProtocolError(c, protocol.RequestMalformed("publish body", err))
			return
		}
		dist, args, opts, err := req.decode()
		if err != nil {
			abortWithProtocolError(c, err)
			return
		}
		err = s.do(c.Request.Context(), func(ctx context.Context) error {
			return s.client.Publish(ctx, dist, args, opts, []byte(req.Payload))
		})
		if err != nil {
			abortWithProtocolError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "distribution": dist.Strategy})
	})

	r.PUT("/exchanges/:name", func(c *gin.Context) {
		var req ExchangeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithProtocolError(c, protocol.RequestMalformed("exchange body", err))
			return
		}
		name := c.Param("name")
		err := s.do(c.Request.Context(), func(ctx context.Context) error {
			return s.client.ExchangeDeclare(ctx, name, req.Kind)
		})
		if err != nil {
			abortWithProtocolError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "exchange": name, "kind": req.Kind})
	})

	r.DELETE("/exchanges/:name", func(c *gin.Context) {
		name := c.Param("name")
		err := s.do(c.Request.Context(), func(ctx context.Context) error {
			return s.client.ExchangeDelete(ctx, name)
		})
		if err != nil {
			abortWithProtocolError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "exchange": name})
	})
}

func (req PublishRequest) decode() (rabbitmq.Distribution, rabbitmq.PublishArgs, rabbitmq.PublishOptions, error) {
	var dist rabbitmq.Distribution
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(req.Distribution), " ", "")) {
	case "", "roundrobin":
		dist = rabbitmq.RoundRobin()
	case "redundant":
		dist = rabbitmq.Redundant(req.Count)
	default:
		return dist, rabbitmq.PublishArgs{}, rabbitmq.PublishOptions{},
			protocol.RequestMalformed(fmt.Sprintf("distribution %q", req.Distribution), rabbitmq.ErrInvalidDistribution)
	}

	args := rabbitmq.PublishArgs{
		Exchange:   req.Exchange,
		RoutingKey: req.RoutingKey,
		Mandatory:  req.Mandatory,
		Immediate:  req.Immediate,
	}
	opts := rabbitmq.PublishOptions{Headers: rabbitmq.Headers(req.Headers)}
	for k, v := range req.Options {
		if err := opts.Set(k, v); err != nil {
			return dist, args, opts, protocol.RequestMalformed("options", err)
		}
	}
	return dist, args, opts, nil
}

// StatusFor maps a protocol failure onto an HTTP status.
func StatusFor(err error) int {
	switch protocol.KindOf(err) {
	case protocol.KindRequestMalformed:
		return http.StatusBadRequest
	case protocol.KindResponseError:
		return http.StatusUnprocessableEntity
	case protocol.KindResponseMalformed:
		return http.StatusBadGateway
	case protocol.KindConnectionFailure:
		return http.StatusServiceUnavailable
	case protocol.KindTimeout:
		return http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func abortWithProtocolError(c *gin.Context, err error) {
	kind := protocol.KindOf(err).String()
	c.Set("protocol_error", kind)
	c.AbortWithStatusJSON(StatusFor(err), gin.H{
		"error": err.Error(),
		"kind":  kind,
	})
}
