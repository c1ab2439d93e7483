package alerting

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

// RecordSource is the read side of the log store used for evaluation.
type RecordSource interface {
	Scan(fn func(*models.LogRecord) bool)
}

// Sink receives alerts emitted by the evaluator. Emit is called with the
// evaluator lock held and must not call back into the Evaluator.
type Sink interface {
	Emit(alert *models.Alert)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(*models.Alert)

// Emit calls f(alert).
func (f SinkFunc) Emit(alert *models.Alert) { f(alert) }

// Evaluator checks every enabled rule against the log window on each call
// to Evaluate. Each rule keeps its own hysteresis state.
type Evaluator struct {
	mu sync.Mutex

	source RecordSource
	sink   Sink
	logger logrus.FieldLogger

	rules  []*Rule
	states map[string]State

	stats *EvaluatorStats
}

// EvaluatorStats tracks evaluator statistics using atomic operations for lock-free access.
type EvaluatorStats struct {
	Evaluations  atomic.Int64
	AlertsFired  atomic.Int64
	RulesHolding atomic.Int64
}

// EvaluatorStatsSnapshot is a snapshot of evaluator statistics for reporting.
type EvaluatorStatsSnapshot struct {
	Evaluations  int64
	AlertsFired  int64
	RulesHolding int64
}

// NewEvaluator creates an evaluator. Rules must already be validated.
func NewEvaluator(source RecordSource, rules []*Rule, sink Sink, logger logrus.FieldLogger) *Evaluator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if sink == nil {
		sink = SinkFunc(func(*models.Alert) {})
	}
	return &Evaluator{
		source: source,
		sink:   sink,
		logger: logger.WithField("component", "alerting"),
		rules:  rules,
		states: make(map[string]State),
		stats:  &EvaluatorStats{},
	}
}

// observation is the window measurement for one rule.
type observation struct {
	matched int
	total   int
}

// Evaluate measures every enabled rule at now, advances its state and
// emits alerts for the rules that fire. The emitted alerts are returned.
func (e *Evaluator) Evaluate(now time.Time) []*models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.Evaluations.Add(1)

	active := make([]*Rule, 0, len(e.rules))
	for _, r := range e.rules {
		if r.IsEnabled() {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return nil
	}

	obs := e.observe(active, now)

	var fired []*models.Alert
	var holding int64
	for i, rule := range active {
		o := obs[i]
		holds := rule.Holds(o.matched, o.total)
		if holds {
			holding++
		}

		next, emit := Transition(e.states[rule.Name], holds, now, rule.Policy())
		e.states[rule.Name] = next
		if !emit {
			continue
		}

		alert := models.NewAlert(rule.Title, rule.message(o.matched, o.total), rule.Severity, now)
		alert.Rule = rule.Name
		alert.Value = rule.value(o.matched, o.total)

		e.logger.WithFields(logrus.Fields{
			"rule":       rule.Name,
			"value":      alert.Value,
			"fire_count": next.FireCount,
		}).Warn("alert fired")

		e.sink.Emit(alert)
		e.stats.AlertsFired.Add(1)
		fired = append(fired, alert)
	}
	e.stats.RulesHolding.Store(holding)

	return fired
}

// observe counts, for every rule, the in-scope records newer than its
// window start and the subset at the rule's level. One pass over the store serves all rules.
func (e *Evaluator) observe(rules []*Rule, now time.Time) []observation {
	obs := make([]observation, len(rules))
	since := make([]time.Time, len(rules))
	for i, r := range rules {
		since[i] = now.Add(-r.WindowDuration())
	}

	e.source.Scan(func(rec *models.LogRecord) bool {
		for i, r := range rules {
			if !rec.Timestamp.After(since[i]) || !r.inScope(rec) {
				continue
			}
			obs[i].total++
			if rec.Level == r.Level {
				obs[i].matched++
			}
		}
		return true
	})
	return obs
}

// ReloadRules validates and replaces all rules. All rule state is reset.
func (e *Evaluator) ReloadRules(rules []*Rule) error {
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.rules = rules
	e.states = make(map[string]State)
	return nil
}

// Rules returns all rules.
func (e *Evaluator) Rules() []*Rule {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]*Rule, len(e.rules))
	copy(result, e.rules)
	return result
}

// State returns the current state of the named rule.
func (e *Evaluator) State(name string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states[name]
}

// Stats returns a snapshot of evaluator statistics.
func (e *Evaluator) Stats() EvaluatorStatsSnapshot {
	return EvaluatorStatsSnapshot{
		Evaluations:  e.stats.Evaluations.Load(),
		AlertsFired:  e.stats.AlertsFired.Load(),
		RulesHolding: e.stats.RulesHolding.Load(),
	}
}
