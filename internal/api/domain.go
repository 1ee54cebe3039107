package api

import (
	"github.com/JaimeStill/underwriter/internal/applications"
	"github.com/JaimeStill/underwriter/internal/decisions"
)

// Domain holds the systems served by the API.
type Domain struct {
	Applications applications.System
	Decisions    decisions.System
}

// NewDomain wires the decision runner on top of the application store it
// reads from and writes to.
func NewDomain(rt *Runtime) *Domain {
	apps := applications.New(rt.Infra.Database.Connection(), rt.Logger, rt.Pagination)

	return &Domain{
		Applications: apps,
		Decisions: decisions.New(
			apps,
			rt.Infra.LLM,
			rt.Infra.Broker.Client(),
			rt.Infra.Storage,
			rt.Infra.Lifecycle,
			rt.Pipeline,
			rt.MaxBatch,
			rt.Logger,
		),
	}
}
