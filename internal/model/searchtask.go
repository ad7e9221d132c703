package model

import "time"

// Search task lifecycle states.
const (
	SearchTaskPending = "PENDING"
	SearchTaskSuccess = "SUCCESS"
	SearchTaskFailure = "FAILURE"
)

// SearchTask is one idea-validation request: search, summarize, email.
type SearchTask struct {
	ID               int64      `json:"-"`
	TaskID           string     `json:"taskId"`
	Email            string     `json:"email"`
	Query            string     `json:"query"`
	ProblemStatement string     `json:"problemStatement,omitempty"`
	TargetAudience   string     `json:"targetAudience,omitempty"`
	Analysis         string     `json:"analysis,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

// RelevantPost is a search hit attached to a completed task.
type RelevantPost struct {
	ID        int64     `json:"-"`
	TaskID    string    `json:"-"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"-"`
}

type SearchRequest struct {
	Email            string `json:"email" binding:"required,email"`
	Query            string `json:"query" binding:"required"`
	ProblemStatement string `json:"problem_statement"`
	TargetAudience   string `json:"target_audience"`
}
