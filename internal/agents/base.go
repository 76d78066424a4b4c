package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/Wikid82/warden/backend/internal/llm"
	"github.com/Wikid82/warden/backend/internal/logger"
	"github.com/Wikid82/warden/backend/internal/metrics"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/util"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type base struct {
	name        Name
	temperature float64
	maxTokens   int
	system      string

	llm      llm.Client
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

func newBase(name Name, temperature float64, maxTokens int, system string, deps Deps) base {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	client := deps.LLM
	if client == nil {
		client = llm.Disabled{}
	}
	return base{
		name:        name,
		temperature: temperature,
		maxTokens:   maxTokens,
		system:      system,
		llm:         client,
		db:          deps.DB,
		notifier:    deps.Notifier,
		now:         now,
	}
}

func (b *base) Name() Name {
	return b.name
}

func (b *base) log() *logrus.Entry {
	return logger.Component("agents").WithField("agent", b.name)
}

// invokeJSON sends prompt to the model and decodes the validated JSON reply
// into out.
func (b *base) invokeJSON(ctx context.Context, prompt string, out any) error {
	text, err := b.llm.Complete(ctx, llm.Request{
		System:      b.system,
		Prompt:      prompt + llm.JSONInstruction,
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
	})
	if err != nil {
		return fmt.Errorf("model call: %w", err)
	}
	return llm.Decode(text, out)
}

// notify is best-effort: a notification that cannot be stored never fails
// the operation that raised it.
func (b *base) notify(ctx context.Context, n *models.Notification) {
	if b.notifier == nil {
		return
	}
	n.SentBy = string(b.name)
	if err := b.notifier.Notify(context.WithoutCancel(ctx), n); err != nil {
		b.log().WithError(err).WithField("type", n.Type).Warn("failed to record notification")
	}
}

// record writes an activity log row for an operation that started at start.
// Write failures are logged only.
func (b *base) record(ctx context.Context, start time.Time, entry models.AgentActivityLog, err error) {
	entry.AgentName = string(b.name)
	entry.ProcessingTimeMs = time.Since(start).Milliseconds()
	if err != nil {
		entry.Status = models.ActivityFailed
		entry.ErrorMessage = util.Truncate(err.Error(), 1000)
	} else if entry.Status == "" {
		entry.Status = models.ActivitySuccess
	}
	if b.db == nil {
		return
	}
	if werr := b.db.WithContext(context.WithoutCancel(ctx)).Create(&entry).Error; werr != nil {
		b.log().WithError(werr).WithField("activity", entry.ActivityType).Warn("failed to log agent activity")
	}
}

// finish converts the outcome of an operation into a Result and records
// its metrics.
func finish[T any](b *base, start time.Time, data *T, err error) Result[T] {
	elapsed := time.Since(start)
	metrics.ObserveAgent(string(b.name), err == nil, elapsed)

	r := Result[T]{
		Success:          err == nil,
		Agent:            b.name,
		ProcessingTimeMs: elapsed.Milliseconds(),
		Timestamp:        b.now(),
		err:              err,
	}
	if err != nil {
		r.Error = err.Error()
		b.log().WithError(err).Warn("agent operation failed")
		return r
	}
	r.Data = data
	return r
}
