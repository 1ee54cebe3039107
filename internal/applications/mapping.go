package applications

import (
	"database/sql"
	"net/url"
	"strings"

	"github.com/JaimeStill/underwriter/pkg/query"
	"github.com/JaimeStill/underwriter/pkg/repository"
)

const dateLayout = "2006-01-02"

var projection = query.
	NewProjectionMap("public", "applications", "a").
	Project("id", "ID").
	Project("applicant_name", "Name").
	Project("applicant_dob", "DOB").
	Project("age", "Age").
	Project("income", "Income").
	Project("employment_status", "EmploymentStatus").
	Project("credit_score", "CreditScore").
	Project("dti_ratio", "DTIRatio").
	Project("existing_debts", "ExistingDebts").
	Project("requested_credit", "RequestedCredit").
	Project("source", "Source").
	Project("status", "Status").
	Project("decision_reason", "Reason").
	Project("decision_confidence", "Confidence").
	Project("agent_output", "AgentOutput").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters narrows application listings. Zero fields are ignored. An
// application matches Status when its status is any of the listed values.
// Name matches case-insensitive substrings.
type Filters struct {
	Status []Status `json:"status,omitempty"`
	Source *string  `json:"source,omitempty"`
	Name   *string  `json:"applicant_name,omitempty"`
}

func (f Filters) Apply(b *query.Builder) *query.Builder {
	statuses := make([]any, len(f.Status))
	for i, s := range f.Status {
		statuses[i] = string(s)
	}

	return b.
		WhereIn("Status", statuses).
		WhereEquals("Source", f.Source).
		WhereContains("Name", f.Name)
}

// FiltersFromQuery reads status (comma separated), source and name.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	for _, s := range strings.Split(values.Get("status"), ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			f.Status = append(f.Status, Status(s))
		}
	}
	if s := values.Get("source"); s != "" {
		f.Source = &s
	}
	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	return f
}

func scanApplication(s repository.Scanner) (Application, error) {
	var (
		a          Application
		dob        sql.NullTime
		reason     sql.NullString
		confidence sql.NullFloat64
		output     []byte
	)

	err := s.Scan(
		&a.ID,
		&a.Name,
		&dob,
		&a.Age,
		&a.Income,
		&a.EmploymentStatus,
		&a.CreditScore,
		&a.DTIRatio,
		&a.ExistingDebts,
		&a.RequestedCredit,
		&a.Source,
		&a.Status,
		&reason,
		&confidence,
		&output,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return a, err
	}

	if dob.Valid {
		d := dob.Time.Format(dateLayout)
		a.DOB = &d
	}
	if reason.Valid {
		a.Reason = &reason.String
	}
	if confidence.Valid {
		a.Confidence = &confidence.Float64
	}
	if len(output) > 0 {
		a.AgentOutput = output
	}

	return a, nil
}
