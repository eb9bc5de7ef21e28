package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"sync"
	"testing"
	"time"
)

type captureAuditRecorder struct {
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, predicate func(AuditEntry) bool) bool {
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			if predicate == nil || predicate(entry) {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureTracer struct {
	ended []spanRecord
}

type spanRecord struct {
	op  string
	err error
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	for _, record := range c.ended {
		if record.op == op && (record.err == nil) == success {
			return true
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

type logLine struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *captureLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{level: level, msg: msg, args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *captureLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if line.level == level && line.msg == msg {
			return true
		}
	}
	return false
}

func TestServiceOptionsIgnoreNil(t *testing.T) {
	svc := newTestService(t, WithLogger(nil), WithClock(nil), WithMetricsRecorder(nil), WithTracer(nil), WithAuditRecorder(nil))
	if svc.logger == nil || svc.clock == nil || svc.metrics == nil || svc.tracer == nil || svc.audit == nil {
		t.Fatalf("nil options must keep the no-op defaults")
	}
	if _, err := svc.RegisterFinding(context.Background(), RegisterRequest{ToothID: 11, OptionID: 3}); err != nil {
		t.Fatalf("register with no-op collaborators: %v", err)
	}
}

func TestServiceClockDrivesDuration(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	calls := 0
	clock := ClockFunc(func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Millisecond)
	})
	audit := &captureAuditRecorder{}
	svc := newTestService(t, WithClock(clock), WithAuditRecorder(audit))
	if _, err := svc.RegisterFinding(context.Background(), RegisterRequest{ToothID: 11, OptionID: 3}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(audit.entries) != 1 {
		t.Fatalf("expected one audit entry")
	}
	entry := audit.entries[0]
	if !entry.StartedAt.Equal(base.Add(time.Millisecond)) || entry.Duration != time.Millisecond {
		t.Fatalf("unexpected timing %+v", entry)
	}
}

func TestServiceLogsRuleViolationsAsWarnings(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(blockToothRule{toothID: 11})
	logger := &captureLogger{}
	svc := newTestService(t, WithRulesEngine(engine), WithLogger(logger))
	_, err := svc.RegisterFinding(context.Background(), RegisterRequest{ToothID: 11, OptionID: 3})
	if err == nil {
		t.Fatalf("expected blocking violation")
	}
	if !logger.has("error", "operation failed") || !logger.has("warn", "rule violation") {
		t.Fatalf("unexpected log lines: %+v", logger.lines)
	}
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if !strings.HasPrefix(rec.Name(), "odontocore_service_metrics_") {
		t.Fatalf("unexpected generated name %q", rec.Name())
	}
	ctx := context.Background()
	rec.Observe(ctx, "register_finding", true, 2*time.Millisecond)
	rec.Observe(ctx, "register_finding", true, time.Millisecond)
	rec.Observe(ctx, "register_finding", false, time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	if got := rec.Count("register_finding", true); got != 2 {
		t.Fatalf("success count = %d", got)
	}
	if got := rec.Count("register_finding", false); got != 1 {
		t.Fatalf("error count = %d", got)
	}
	if got := rec.Count("remove_finding", true); got != 0 {
		t.Fatalf("unobserved operation count = %d", got)
	}
	published, ok := expvar.Get(rec.Name()).(*expvar.Map)
	if !ok {
		t.Fatalf("recorder not published under %q", rec.Name())
	}
	duration, ok := published.Get("register_finding.duration_ms").(*expvar.Float)
	if !ok || duration.Value() != 4 {
		t.Fatalf("unexpected duration total %v", published.Get("register_finding.duration_ms"))
	}

	other := NewExpvarMetricsRecorder("")
	if other.Name() == rec.Name() {
		t.Fatalf("generated names must be unique")
	}
}

func TestJSONTracer(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	svc := newTestService(t, WithTracer(tracer))
	ctx := context.Background()
	if _, err := svc.RegisterFinding(ctx, RegisterRequest{ToothID: 11, OptionID: 3}); err != nil {
		t.Fatalf("register: %v", err)
	}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _ = svc.ToggleSpaceColor(cancelled, SpaceToggle{SpaceID: 8, OptionID: 1, Color: red})

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected two spans, got %d", len(entries))
	}
	if entries[0].Operation != "register_finding" || entries[0].Status != "success" {
		t.Fatalf("unexpected first span %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error == "" {
		t.Fatalf("unexpected second span %+v", entries[1])
	}

	dec := json.NewDecoder(&buf)
	var decoded []JSONTraceEntry
	for dec.More() {
		var e JSONTraceEntry
		if err := dec.Decode(&e); err != nil {
			t.Fatalf("decode span: %v", err)
		}
		decoded = append(decoded, e)
	}
	if len(decoded) != 2 || decoded[1].Operation != "toggle_space_color" {
		t.Fatalf("unexpected encoded spans %+v", decoded)
	}
}

func TestJSONTracerSpanEndsOnce(t *testing.T) {
	tracer := NewJSONTracer(nil)
	_, span := tracer.Start(context.Background(), "op")
	span.End(nil)
	span.End(errors.New("late"))
	if entries := tracer.Entries(); len(entries) != 1 || entries[0].Status != "success" {
		t.Fatalf("span should end once: %+v", entries)
	}
}
