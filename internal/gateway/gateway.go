// Package gateway is the inbound edge: it authenticates ServiceNow
// webhooks, deduplicates deliveries and publishes accepted events onto
// the ticket event bus.
package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ticketwise-io/ticketwise/internal/config"
	"github.com/ticketwise-io/ticketwise/internal/models"
)

var (
	webhookCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "servicenow_webhooks_total",
		Help: "Inbound ServiceNow webhook deliveries by result",
	}, []string{"result"})
	publishCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_events_published_total",
		Help: "Ticket events published to the bus by outcome",
	}, []string{"outcome"})
)

// Server is the webhook gateway.
type Server struct {
	cfg       *config.Config
	rdb       *redis.Client
	publisher Publisher
	logger    *log.Logger
	router    *gin.Engine
}

func NewServer(cfg *config.Config, rdb *redis.Client, publisher Publisher, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:       cfg,
		rdb:       rdb,
		publisher: publisher,
		logger:    logger,
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/webhook/servicenow", s.handleWebhook)
	r.GET("/health", s.handleHealth)
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	s.router = r
	return s
}

// Router exposes the gin engine for http.Server wiring and tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
}

// handleWebhook authenticates, validates, deduplicates and publishes one
// ServiceNow delivery. The signature is verified over the raw body before
// any parsing happens.
func (s *Server) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		webhookCounter.WithLabelValues("read_error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if !VerifySignature(body, s.cfg.Webhook.Secret, c.GetHeader("X-ServiceNow-Signature")) {
		webhookCounter.WithLabelValues("bad_signature").Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}

	var payload models.ServiceNowPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		webhookCounter.WithLabelValues("bad_payload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed JSON payload"})
		return
	}
	if err := binding(&payload); err != nil {
		webhookCounter.WithLabelValues("bad_payload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := payload.Validate(); err != nil {
		webhookCounter.WithLabelValues("bad_event_type").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	webhookID := uuid.NewString()

	dedupKey, duplicate := s.claimDelivery(c, &payload)
	if duplicate {
		webhookCounter.WithLabelValues("duplicate").Inc()
		c.JSON(http.StatusAccepted, gin.H{
			"status":     "duplicate",
			"webhook_id": webhookID,
		})
		return
	}

	msgID, err := s.publisher.Publish(c.Request.Context(), body, map[string]string{
		"webhook_id": webhookID,
		"event_type": payload.EventType,
	})
	if err != nil {
		publishCounter.WithLabelValues("failure").Inc()
		s.logger.Printf("webhook %s: publish failed: %v", webhookID, err)
		s.releaseDelivery(c, dedupKey)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to publish event"})
		return
	}

	publishCounter.WithLabelValues("success").Inc()
	webhookCounter.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusAccepted, gin.H{
		"status":     "accepted",
		"webhook_id": webhookID,
		"message_id": msgID,
	})
}

// claimDelivery claims the delivery key in redis. The first claim wins; a
// redis outage fails open so deliveries are never dropped.
func (s *Server) claimDelivery(c *gin.Context, p *models.ServiceNowPayload) (string, bool) {
	if s.rdb == nil {
		return "", false
	}

	key := fmt.Sprintf("%s%s:%s:%s", s.cfg.Redis.Dedup.Prefix, p.EventType, p.TicketID, p.CreatedAt)
	ok, err := s.rdb.SetNX(c.Request.Context(), key, time.Now().UTC().Format(time.RFC3339), s.cfg.Redis.Dedup.TTL).Result()
	if err != nil {
		s.logger.Printf("dedup check failed for %s: %v", key, err)
		return "", false
	}
	return key, !ok
}

// releaseDelivery drops the claim on a delivery that was never published,
// so the sender's retry is not swallowed as a duplicate.
func (s *Server) releaseDelivery(c *gin.Context, key string) {
	if s.rdb == nil || key == "" {
		return
	}
	if err := s.rdb.Del(c.Request.Context(), key).Err(); err != nil {
		s.logger.Printf("dedup release failed for %s: %v", key, err)
	}
}

// binding re-checks required fields after manual unmarshalling; the raw
// body is consumed by signature verification, so gin's ShouldBindJSON
// cannot be used.
func binding(p *models.ServiceNowPayload) error {
	missing := func(field string) error {
		return fmt.Errorf("missing required field %q", field)
	}
	switch {
	case p.EventType == "":
		return missing("event_type")
	case p.TicketID == "":
		return missing("ticket_id")
	case p.Title == "":
		return missing("title")
	case p.Description == "":
		return missing("description")
	case p.Priority == "":
		return missing("priority")
	case p.Status == "":
		return missing("status")
	case p.CallerID == "":
		return missing("caller_id")
	case p.DueDate == "":
		return missing("due_date")
	}
	return nil
}
