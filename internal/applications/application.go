// Package applications implements the credit application domain.
// It provides types, validation, data access, and HTTP handlers for
// application records and the decision document stored with them.
package applications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an application.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusApproved   Status = "APPROVED"
	StatusDenied     Status = "DENIED"
	StatusRefer      Status = "REFER"
	StatusError      Status = "ERROR"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusApproved, StatusDenied, StatusRefer, StatusError:
		return true
	}
	return false
}

// Terminal reports whether s ends a decision run.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusDenied, StatusRefer, StatusError:
		return true
	}
	return false
}

// Source identifies the channel an application was submitted through.
type Source string

const (
	SourceWeb Source = "web"
	SourceAPI Source = "api"
	SourceCLI Source = "cli"
)

// Applicant holds the attributes a decision is made on.
// These fields do not change once processing starts.
type Applicant struct {
	Name             string          `json:"applicant_name" validate:"required,max=200"`
	DOB              *string         `json:"applicant_dob,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Age              int             `json:"age" validate:"gte=18,lte=120"`
	Income           decimal.Decimal `json:"income" validate:"gte=0"`
	EmploymentStatus string          `json:"employment_status" validate:"required,max=50"`
	CreditScore      int             `json:"credit_score" validate:"gte=300,lte=850"`
	DTIRatio         decimal.Decimal `json:"dti_ratio" validate:"gte=0,lte=1"`
	ExistingDebts    decimal.Decimal `json:"existing_debts" validate:"gte=0"`
	RequestedCredit  decimal.Decimal `json:"requested_credit" validate:"gt=0"`
}

// Application is a persisted credit application with its decision state.
type Application struct {
	ID uuid.UUID `json:"id"`
	Applicant
	Source      Source          `json:"source"`
	Status      Status          `json:"status"`
	Reason      *string         `json:"decision_reason"`
	Confidence  *float64        `json:"decision_confidence"`
	AgentOutput json.RawMessage `json:"agent_output,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateCommand carries a new application. An empty Source defaults to api.
type CreateCommand struct {
	Applicant
	Source Source `json:"source,omitempty" validate:"omitempty,oneof=web api cli"`
}

// StatusUpdate sets an application's status.
// Reason and Confidence are written only when non-nil.
type StatusUpdate struct {
	Status     Status
	Reason     *string
	Confidence *float64
}

// Stats summarizes application counts by status.
type Stats struct {
	Total        int     `json:"total"`
	Pending      int     `json:"pending"`
	Processing   int     `json:"processing"`
	Approved     int     `json:"approved"`
	Denied       int     `json:"denied"`
	Refer        int     `json:"refer"`
	Error        int     `json:"error"`
	ApprovalRate float64 `json:"approval_rate"`
}
