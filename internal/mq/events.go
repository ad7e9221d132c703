package mq

// Routing keys published to the events exchange.
const (
	RoutingKeySearchRequested = "idea.search.requested"
)

// SearchRequestedPayload asks the worker to run the idea validation
// pipeline for a persisted task.
type SearchRequestedPayload struct {
	TaskID           string `json:"task_id"`
	Email            string `json:"email"`
	Query            string `json:"query"`
	ProblemStatement string `json:"problem_statement,omitempty"`
	TargetAudience   string `json:"target_audience,omitempty"`
}
