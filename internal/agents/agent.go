// Package agents implements the six risk-program agents. Each agent wraps
// one model call with deterministic pre- and post-processing and persists
// what it produces.
package agents

import (
	"context"
	"time"

	"github.com/Wikid82/warden/backend/internal/llm"
	"github.com/Wikid82/warden/backend/internal/models"
	"gorm.io/gorm"
)

// Name identifies an agent in results, activity logs and workflow stages.
type Name string

const (
	NameVERA   Name = "VERA"
	NameCARA   Name = "CARA"
	NameDORA   Name = "DORA"
	NameSARA   Name = "SARA"
	NameRITA   Name = "RITA"
	NameMARS   Name = "MARS"
	NameSystem Name = "SYSTEM"
)

// Result is the outcome of one agent operation. Failures carry the error
// text instead of data; agents never return errors directly.
type Result[T any] struct {
	Success          bool      `json:"success"`
	Data             *T        `json:"data,omitempty"`
	Error            string    `json:"error,omitempty"`
	Agent            Name      `json:"agent_name"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Timestamp        time.Time `json:"timestamp"`

	err error
}

// Err returns the underlying error of a failed result, for errors.Is checks.
func (r Result[T]) Err() error {
	return r.err
}

// Agent is the capability every agent exposes.
type Agent[In, Out any] interface {
	Name() Name
	Execute(ctx context.Context, in In) Result[Out]
}

// Notifier stores a notification and relays it to external providers.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}

// Mailer emails a vendor contact.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Deps are the collaborators shared by all agents. Mailer may be nil when
// outbound mail is not configured. Now defaults to time.Now.
type Deps struct {
	LLM      llm.Client
	DB       *gorm.DB
	Notifier Notifier
	Mailer   Mailer
	Now      func() time.Time
}

// Set holds one instance of every agent built from the same Deps.
type Set struct {
	VERA *VERA
	CARA *CARA
	DORA *DORA
	SARA *SARA
	RITA *RITA
	MARS *MARS
}

// NewSet builds all six agents.
func NewSet(deps Deps) *Set {
	return &Set{
		VERA: NewVERA(deps),
		CARA: NewCARA(deps),
		DORA: NewDORA(deps),
		SARA: NewSARA(deps),
		RITA: NewRITA(deps),
		MARS: NewMARS(deps),
	}
}
