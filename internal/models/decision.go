package models

import "time"

// DecisionType classifies the outcome of an assignment run.
type DecisionType string

const (
	DecisionNormal        DecisionType = "normal"
	DecisionCollaborative DecisionType = "collaborative"
	DecisionHumanReview   DecisionType = "human_review"
	DecisionEscalation    DecisionType = "escalation"
)

// Review trigger reasons.
const (
	ReasonNoSimilarPattern  = "no_similar_pattern"
	ReasonNoAvailableMember = "no_available_members"
	ReasonTeamAtCapacity    = "team_at_capacity"
	ReasonLowConfidence     = "low_confidence_assignment"
	ReasonOracleUnavailable = "oracle_unavailable"
)

// Review trigger severities and their recommended actions.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"

	ActionManagerEscalation = "immediate_manager_escalation"
	ActionTeamConsultation  = "team_consultation_email"
	ActionTeamLeadReview    = "team_lead_review"
)

// ReviewTrigger describes why a decision needs a human and what to do
// about it.
type ReviewTrigger struct {
	Reason      string        `json:"reason"`
	Severity    string        `json:"severity"`
	Action      string        `json:"action"`
	Timeout     time.Duration `json:"timeout,omitempty"`
	Message     string        `json:"message,omitempty"`
	TicketID    string        `json:"ticket_id"`
	TicketTitle string        `json:"ticket_title,omitempty"`
}

// AssignmentCandidate carries every sub-score computed for one member
// during a single Assign call.
type AssignmentCandidate struct {
	MemberID    string `json:"member_id"`
	MemberEmail string `json:"member_email"`
	MemberName  string `json:"member_name"`
	Timezone    string `json:"timezone"`

	// Component scores, each in [0,1].
	SimilarityScore   float64 `json:"similarity_score"`
	SkillMatchScore   float64 `json:"skill_match_score"`
	AvailabilityScore float64 `json:"availability_score"`
	WorkloadScore     float64 `json:"workload_score"`
	TimezoneScore     float64 `json:"timezone_score"`

	FinalScore float64 `json:"final_score"`

	// Supporting data.
	SolvedSimilarCount int     `json:"solved_similar_count"`
	ActiveTicketsCount int     `json:"active_tickets_count"`
	RecentAssignments  int     `json:"recent_assignments_7d"`
	WeightedWorkload   float64 `json:"weighted_workload"`

	Notes             []string `json:"notes,omitempty"`
	IsOverloaded      bool     `json:"is_overloaded"`
	HasCriticalSkills bool     `json:"has_critical_skills"`
}

// CandidateBreakdown is the rounded per-component view persisted with a
// decision's top candidates.
type CandidateBreakdown struct {
	Similarity   float64 `json:"similarity"`
	Skill        float64 `json:"skill"`
	Availability float64 `json:"availability"`
	Workload     float64 `json:"workload"`
	Timezone     float64 `json:"timezone"`
}

// TopCandidate is one entry of a decision's top-3 list.
type TopCandidate struct {
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Score     float64            `json:"score"`
	Breakdown CandidateBreakdown `json:"breakdown"`
}

// AssignmentDecision is the engine's output. Human-review and escalation
// decisions never carry a primary assignee.
type AssignmentDecision struct {
	Type              DecisionType    `json:"assignment_type"`
	PrimaryAssignee   string          `json:"primary_assignee,omitempty"`
	SecondaryAssignee string          `json:"secondary_assignee,omitempty"`
	Confidence        float64         `json:"confidence_score"`
	Reasoning         []string        `json:"reasoning"`
	RulesApplied      []string        `json:"rules_applied"`
	ReviewTriggers    []ReviewTrigger `json:"human_review_triggers,omitempty"`
	TopCandidates     []TopCandidate  `json:"top_candidates,omitempty"`

	// Reserved extension points; optional, never required.
	PredictedResolutionHours *float64 `json:"predicted_resolution_hours,omitempty"`
	CollaborationNeeded      bool     `json:"collaboration_needed,omitempty"`

	TicketID   string    `json:"ticket_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// NeedsHuman reports whether the decision routes to a person instead of
// an automatic assignment.
func (d *AssignmentDecision) NeedsHuman() bool {
	return d.Type == DecisionHumanReview || d.Type == DecisionEscalation
}
