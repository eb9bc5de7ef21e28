package core

import (
	"context"
	"sync"
	"time"

	"odontocore/internal/anatomy"
	"odontocore/internal/catalog"
	"odontocore/pkg/domain"
)

// Service exposes the odontogram operations. Every mutation runs its full
// resolution cascade under one lock, is checked by the rules engine, and is
// rolled back when a blocking violation is reported.
type Service struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	table   ResolverTable
	state   *chartState
	journal *journal
	teeth   *ToothStore
	spaces  *SpaceStore
	engine  *RulesEngine

	// engineSet records an explicit WithRulesEngine, including nil.
	engineSet bool

	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
}

// NewService builds a chart over seed using cat for option lookups. Without
// WithRulesEngine the built-in invariants are evaluated after each mutation.
func NewService(cat *catalog.Catalog, seed anatomy.Seed, opts ...ServiceOption) *Service {
	s := &Service{
		catalog: cat,
		table:   DefaultResolverTable(),
		logger:  noopLogger{},
		clock:   ClockFunc(func() time.Time { return time.Now().UTC() }),
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		audit:   noopAudit{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.engineSet {
		s.engine = NewDefaultRulesEngine(s.table)
	}
	s.state = newChartState(seed)
	s.journal = &journal{}
	s.teeth, s.spaces = newStores(cat, s.table, s.state, s.journal)
	return s
}

// NewDefaultService builds a service over the embedded catalog and the
// permanent dentition.
func NewDefaultService(opts ...ServiceOption) (*Service, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	return NewService(cat, anatomy.Permanent(DefaultResolverTable().SpaceSpecs()...), opts...), nil
}

// Catalog returns the option catalog the service validates against.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// NewSelection returns a selection bound to the service catalog.
func (s *Service) NewSelection() *Selection {
	return NewSelection(s.catalog)
}

// RegisterFinding applies a finding to a tooth.
func (s *Service) RegisterFinding(ctx context.Context, req RegisterRequest) (Result, error) {
	return s.run(ctx, "register_finding", EntityTooth, req.ToothID, req.OptionID, func() bool {
		return s.teeth.Register(req)
	})
}

// RemoveFinding removes a finding from a tooth.
func (s *Service) RemoveFinding(ctx context.Context, req RemoveRequest) (Result, error) {
	return s.run(ctx, "remove_finding", EntityTooth, req.ToothID, req.OptionID, func() bool {
		return s.teeth.Remove(req)
	})
}

// ToggleSpaceColor toggles the colour of a single-colour space.
func (s *Service) ToggleSpaceColor(ctx context.Context, req SpaceToggle) (Result, error) {
	return s.run(ctx, "toggle_space_color", EntitySpace, req.SpaceID, req.OptionID, func() bool {
		return s.spaces.ToggleColor(req)
	})
}

// ToggleSpaceFinding toggles a finding inside a multi-finding space.
func (s *Service) ToggleSpaceFinding(ctx context.Context, req SpaceToggle) (Result, error) {
	return s.run(ctx, "toggle_space_finding", EntitySpace, req.SpaceID, req.OptionID, func() bool {
		return s.spaces.ToggleFinding(req)
	})
}

// ApplySelection registers the selected finding on a tooth when the selection
// is complete. It reports whether a register was dispatched.
func (s *Service) ApplySelection(ctx context.Context, toothID int, sel SelectionState) (Result, bool, error) {
	if !sel.Complete || sel.Option == nil {
		s.logger.Debug("selection incomplete", "tooth_id", toothID)
		return Result{}, false, nil
	}
	req := RegisterRequest{ToothID: toothID, OptionID: sel.Option.ID, Color: sel.Color}
	if sel.SubOption != nil {
		req.SubOptionID = domain.IntPtr(sel.SubOption.ID)
	}
	if sel.Design != nil {
		d := *sel.Design
		req.Design = &d
	}
	res, err := s.RegisterFinding(ctx, req)
	return res, err == nil, err
}

// Teeth returns every tooth in chart order.
func (s *Service) Teeth() []Tooth {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teeth.Teeth()
}

// Tooth returns one tooth.
func (s *Service) Tooth(id int) (Tooth, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teeth.Tooth(id)
}

// Spaces returns an option's space collection.
func (s *Service) Spaces(optionID int) []Space {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spaces.Spaces(optionID)
}

// Space returns one space record.
func (s *Service) Space(optionID, id int) (Space, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spaces.Space(optionID, id)
}

// RenderTooth returns the draw decisions for every finding on a tooth.
func (s *Service) RenderTooth(id int) []RenderDecision {
	t, ok := s.Tooth(id)
	if !ok {
		return nil
	}
	return renderTooth(s.catalog, t)
}

// RenderSpaces returns the draw decisions for an option's marked spaces.
func (s *Service) RenderSpaces(optionID int) []RenderDecision {
	return renderSpaces(s.catalog, s.Spaces(optionID))
}

func (s *Service) run(ctx context.Context, op string, entity EntityType, id, optionID int, fn func() bool) (Result, error) {
	ctx, span := s.tracer.Start(ctx, op)
	started := s.clock.Now()
	res, applied, err := s.mutate(ctx, fn)
	duration := s.clock.Now().Sub(started)

	s.metrics.Observe(ctx, op, err == nil, duration)
	span.End(err)
	entry := AuditEntry{
		Operation:  op,
		Entity:     entity,
		EntityID:   id,
		OptionID:   optionID,
		Status:     AuditStatusSuccess,
		Changes:    len(res.Changes),
		Violations: len(res.Violations),
		StartedAt:  started,
		Duration:   duration,
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)

	switch {
	case err != nil:
		s.logger.Error("operation failed", "operation", op, "entity", entity, "id", id, "option_id", optionID, "error", err)
	case !applied:
		s.logger.Debug("operation ignored", "operation", op, "entity", entity, "id", id, "option_id", optionID)
	default:
		s.logger.Info("operation applied", "operation", op, "entity", entity, "id", id, "option_id", optionID, "changes", len(res.Changes))
	}
	for _, v := range res.Violations {
		if v.Severity == SeverityLog {
			s.logger.Debug("rule notice", "rule", v.Rule, "message", v.Message)
			continue
		}
		s.logger.Warn("rule violation", "rule", v.Rule, "severity", v.Severity, "message", v.Message)
	}
	return res, err
}

func (s *Service) mutate(ctx context.Context, fn func() bool) (Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.state.clone()
	s.journal.drain()
	applied := fn()
	res := Result{Changes: s.journal.drain()}
	if s.engine == nil || len(res.Changes) == 0 {
		return res, applied, nil
	}
	ev, err := s.engine.Evaluate(ctx, chartView{state: s.state}, res.Changes)
	if err != nil {
		*s.state = backup
		return Result{}, false, err
	}
	res.Violations = ev.Violations
	if ev.HasBlocking() {
		*s.state = backup
		return res, false, RuleViolationError{Result: res}
	}
	return res, applied, nil
}
