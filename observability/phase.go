package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Phase tracks one pipeline phase: a span plus a duration sample.
type Phase struct {
	name    string
	span    trace.Span
	metrics *Metrics
	ctx     context.Context
	start   time.Time
}

// StartPhase opens a span named "pipeline.<name>" unless spanName is given.
func StartPhase(ctx context.Context, metrics *Metrics, name string, spanName ...string) (context.Context, *Phase) {
	sn := "pipeline." + name
	if len(spanName) > 0 && spanName[0] != "" {
		sn = spanName[0]
	}
	ctx, span := StartSpan(ctx, sn, trace.WithAttributes(attribute.String(AttrPhase, name)))
	return ctx, &Phase{name: name, span: span, metrics: metrics, ctx: ctx, start: time.Now()}
}

// Name returns the phase name.
func (p *Phase) Name() string { return p.name }

// Span returns the phase span.
func (p *Phase) Span() trace.Span { return p.span }

// End closes the span and records the duration. It returns the elapsed time.
func (p *Phase) End(err error) time.Duration {
	d := time.Since(p.start)
	status := "ok"
	if err != nil {
		status = "error"
		SetSpanError(p.ctx, err)
	}
	p.span.End()
	p.metrics.RecordPhase(p.ctx, p.name, status, d)
	return d
}
