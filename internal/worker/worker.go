package worker

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ticketwise-io/ticketwise/internal/config"
	"github.com/ticketwise-io/ticketwise/internal/models"
)

var pipelineCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ticket_pipeline_runs_total",
	Help: "Ticket pipeline runs by outcome",
}, []string{"outcome"})

// Server receives bus push deliveries and runs the pipeline.
type Server struct {
	cfg      *config.Config
	pipeline *Pipeline
	logger   *log.Logger
	router   *gin.Engine
}

func NewServer(cfg *config.Config, pipeline *Pipeline, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		logger:   logger,
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/process_ticket", s.handleProcess)
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
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "worker"})
}

// handleProcess unwraps one push delivery. Malformed envelopes are
// acknowledged with 400 so the bus does not redeliver garbage forever;
// pipeline failures return 500 so the bus retries the event.
func (s *Server) handleProcess(c *gin.Context) {
	var env models.PubSubEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		pipelineCounter.WithLabelValues("bad_envelope").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed push envelope"})
		return
	}

	data, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		pipelineCounter.WithLabelValues("bad_envelope").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "message data is not valid base64"})
		return
	}

	var payload models.ServiceNowPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		pipelineCounter.WithLabelValues("bad_payload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed ticket payload"})
		return
	}
	if err := payload.Validate(); err != nil {
		pipelineCounter.WithLabelValues("bad_payload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision, err := s.pipeline.Process(c.Request.Context(), &payload)
	if err != nil {
		pipelineCounter.WithLabelValues("error").Inc()
		s.logger.Printf("pipeline failed for ticket %s (message %s): %v",
			payload.TicketID, env.Message.MessageID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ticket processing failed"})
		return
	}

	if decision == nil {
		pipelineCounter.WithLabelValues("archived").Inc()
		c.JSON(http.StatusOK, gin.H{
			"status":    "archived",
			"ticket_id": payload.TicketID,
		})
		return
	}

	pipelineCounter.WithLabelValues(string(decision.Type)).Inc()
	c.JSON(http.StatusOK, gin.H{
		"status":           "processed",
		"ticket_id":        payload.TicketID,
		"decision_type":    decision.Type,
		"primary_assignee": decision.PrimaryAssignee,
		"confidence":       decision.Confidence,
	})
}
