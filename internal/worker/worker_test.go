package worker

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ticketwise-io/ticketwise/internal/clock"
	"github.com/ticketwise-io/ticketwise/internal/config"
	"github.com/ticketwise-io/ticketwise/internal/models"
	"github.com/ticketwise-io/ticketwise/internal/notifications"
)

type stubTickets struct {
	upserted   []models.Ticket
	assigned   map[string]string
	archived   []string
	upsertErr  error
	assignErr  error
	archiveErr error
}

func (s *stubTickets) Upsert(_ context.Context, t models.Ticket, _ models.Status, _ time.Time) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, t)
	return nil
}

func (s *stubTickets) SetAssignee(_ context.Context, ticketID, email string) error {
	if s.assignErr != nil {
		return s.assignErr
	}
	if s.assigned == nil {
		s.assigned = map[string]string{}
	}
	s.assigned[ticketID] = email
	return nil
}

func (s *stubTickets) Archive(_ context.Context, ticketID string, _ time.Time) error {
	if s.archiveErr != nil {
		return s.archiveErr
	}
	s.archived = append(s.archived, ticketID)
	return nil
}

type stubDecisions struct {
	saved []*models.AssignmentDecision
	err   error
}

func (s *stubDecisions) Save(_ context.Context, d *models.AssignmentDecision) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, d)
	return "decision-1", nil
}

type stubEmbeddings struct {
	saved map[string][]float32
	err   error
}

func (s *stubEmbeddings) Save(_ context.Context, ticketID string, vec []float32) error {
	if s.err != nil {
		return s.err
	}
	if s.saved == nil {
		s.saved = map[string][]float32{}
	}
	s.saved[ticketID] = vec
	return nil
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return s.vec, s.err
}

type stubIndex struct {
	similar []models.SimilarTicket
	err     error
}

func (s *stubIndex) FindSimilarByVector(context.Context, []float32) ([]models.SimilarTicket, error) {
	return s.similar, s.err
}

type stubAssigner struct {
	decision *models.AssignmentDecision
	err      error
}

func (s *stubAssigner) Assign(_ context.Context, ticket models.Ticket, _ []models.SimilarTicket) (*models.AssignmentDecision, error) {
	if s.err != nil {
		return nil, s.err
	}
	d := *s.decision
	d.TicketID = ticket.TicketID
	return &d, nil
}

type recordSink struct {
	got []*models.AssignmentDecision
}

func (s *recordSink) Deliver(_ context.Context, d *models.AssignmentDecision) error {
	s.got = append(s.got, d)
	return nil
}

type testDeps struct {
	tickets    *stubTickets
	decisions  *stubDecisions
	embeddings *stubEmbeddings
	embedder   *stubEmbedder
	index      *stubIndex
	assigner   *stubAssigner
	sink       *recordSink
}

func newTestDeps() *testDeps {
	return &testDeps{
		tickets:    &stubTickets{},
		decisions:  &stubDecisions{},
		embeddings: &stubEmbeddings{},
		embedder:   &stubEmbedder{vec: []float32{0.1, 0.2}},
		index:      &stubIndex{},
		assigner: &stubAssigner{decision: &models.AssignmentDecision{
			Type:            models.DecisionNormal,
			PrimaryAssignee: "asha@example.com",
			Confidence:      1.0,
		}},
		sink: &recordSink{},
	}
}

func newTestServer(d *testDeps) *Server {
	gin.SetMode(gin.TestMode)
	p := NewPipeline(
		d.tickets, d.decisions, d.embeddings,
		d.embedder, d.index, d.assigner,
		[]notifications.Sink{d.sink},
		clock.FixedClock{T: time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)},
		nil,
	)
	return NewServer(&config.Config{}, p, nil)
}

func validPayload(eventType string) map[string]any {
	return map[string]any{
		"event_type":  eventType,
		"ticket_id":   "INC0012345",
		"title":       "Cannot reach payment API",
		"description": "Requests to the payment API time out since 08:00 UTC",
		"priority":    "2 - High",
		"status":      "new",
		"caller_id":   "user123",
		"due_date":    "2025-06-12",
		"created_at":  "2025-06-10T07:55:00Z",
	}
}

func pushEnvelope(t *testing.T, payload any) []byte {
	t.Helper()
	inner, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	env := map[string]any{
		"message": map[string]any{
			"data":      base64.StdEncoding.EncodeToString(inner),
			"messageId": "msg-1",
		},
		"subscription": "projects/p/subscriptions/tickets-push",
	}
	body, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return body
}

func postProcess(srv *Server, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/process_ticket", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestProcessTicketAssigned(t *testing.T) {
	d := newTestDeps()
	srv := newTestServer(d)

	w := postProcess(srv, pushEnvelope(t, validPayload("incident.created")))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["decision_type"] != "normal" {
		t.Errorf("decision_type = %v, want normal", resp["decision_type"])
	}
	if resp["primary_assignee"] != "asha@example.com" {
		t.Errorf("primary_assignee = %v, want asha@example.com", resp["primary_assignee"])
	}

	if len(d.tickets.upserted) != 1 || d.tickets.upserted[0].TicketID != "INC0012345" {
		t.Errorf("upserted tickets = %+v, want one INC0012345", d.tickets.upserted)
	}
	if _, ok := d.embeddings.saved["INC0012345"]; !ok {
		t.Error("embedding was not stored for INC0012345")
	}
	if len(d.decisions.saved) != 1 {
		t.Fatalf("saved decisions = %d, want 1", len(d.decisions.saved))
	}
	if got := d.tickets.assigned["INC0012345"]; got != "asha@example.com" {
		t.Errorf("assignee = %q, want asha@example.com", got)
	}
	if len(d.sink.got) != 1 {
		t.Errorf("sink deliveries = %d, want 1", len(d.sink.got))
	}
}

func TestProcessTicketClosingArchives(t *testing.T) {
	d := newTestDeps()
	srv := newTestServer(d)

	w := postProcess(srv, pushEnvelope(t, validPayload("incident.resolved")))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"archived"`) {
		t.Errorf("body = %s, want archived status", w.Body.String())
	}
	if len(d.tickets.archived) != 1 || d.tickets.archived[0] != "INC0012345" {
		t.Errorf("archived = %v, want [INC0012345]", d.tickets.archived)
	}
	if len(d.tickets.upserted) != 0 {
		t.Errorf("closing event upserted %d tickets, want 0", len(d.tickets.upserted))
	}
	if len(d.decisions.saved) != 0 {
		t.Errorf("closing event saved %d decisions, want 0", len(d.decisions.saved))
	}
}

func TestProcessTicketHumanReviewSkipsAssignee(t *testing.T) {
	d := newTestDeps()
	d.assigner.decision = &models.AssignmentDecision{
		Type:       models.DecisionHumanReview,
		Confidence: 0.2,
	}
	srv := newTestServer(d)

	w := postProcess(srv, pushEnvelope(t, validPayload("task.created")))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if len(d.tickets.assigned) != 0 {
		t.Errorf("human_review decision assigned %v, want none", d.tickets.assigned)
	}
	if len(d.decisions.saved) != 1 {
		t.Errorf("saved decisions = %d, want 1", len(d.decisions.saved))
	}
	if len(d.sink.got) != 1 {
		t.Errorf("sink deliveries = %d, want 1", len(d.sink.got))
	}
}

func TestProcessTicketRejectsMalformedDeliveries(t *testing.T) {
	tests := []struct {
		name string
		body func(t *testing.T) []byte
	}{
		{
			name: "invalid envelope json",
			body: func(*testing.T) []byte { return []byte("{not json") },
		},
		{
			name: "data not base64",
			body: func(t *testing.T) []byte {
				return []byte(`{"message":{"data":"%%%not-base64%%%","messageId":"m1"}}`)
			},
		},
		{
			name: "inner payload not json",
			body: func(t *testing.T) []byte {
				data := base64.StdEncoding.EncodeToString([]byte("plain text"))
				return []byte(`{"message":{"data":"` + data + `","messageId":"m1"}}`)
			},
		},
		{
			name: "unsupported event type",
			body: func(t *testing.T) []byte {
				return pushEnvelope(t, validPayload("incident.updated"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()
			srv := newTestServer(d)

			w := postProcess(srv, tt.body(t))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d (body %s)", w.Code, http.StatusBadRequest, w.Body.String())
			}
			if len(d.tickets.upserted)+len(d.tickets.archived) != 0 {
				t.Error("malformed delivery reached the pipeline")
			}
		})
	}
}

func TestProcessTicketPipelineFailureTriggersRedelivery(t *testing.T) {
	tests := []struct {
		name     string
		breakDep func(d *testDeps)
	}{
		{"embed fails", func(d *testDeps) { d.embedder.err = errors.New("quota exhausted") }},
		{"embedding store fails", func(d *testDeps) { d.embeddings.err = errors.New("db down") }},
		{"similarity search fails", func(d *testDeps) { d.index.err = errors.New("db down") }},
		{"decision store fails", func(d *testDeps) { d.decisions.err = errors.New("db down") }},
		{"assignee update fails", func(d *testDeps) { d.tickets.assignErr = errors.New("db down") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()
			tt.breakDep(d)
			srv := newTestServer(d)

			w := postProcess(srv, pushEnvelope(t, validPayload("incident.created")))

			if w.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
			}
		})
	}
}

func TestParseEventTime(t *testing.T) {
	fallback := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", "2025-06-10T07:55:00Z", time.Date(2025, 6, 10, 7, 55, 0, 0, time.UTC)},
		{"sql style", "2025-06-10 07:55:00", time.Date(2025, 6, 10, 7, 55, 0, 0, time.UTC)},
		{"empty", "", fallback},
		{"garbage", "yesterday-ish", fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseEventTime(tt.raw, fallback); !got.Equal(tt.want) {
				t.Errorf("parseEventTime(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
