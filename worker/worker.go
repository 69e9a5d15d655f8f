package worker

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/transcribe-worker/caption"
	"github.com/kbukum/transcribe-worker/errors"
	"github.com/kbukum/transcribe-worker/job"
	"github.com/kbukum/transcribe-worker/logger"
	"github.com/kbukum/transcribe-worker/observability"
	"github.com/kbukum/transcribe-worker/output"
	"github.com/kbukum/transcribe-worker/staging"
	"github.com/kbukum/transcribe-worker/transcription"
	"github.com/kbukum/transcribe-worker/validation"
)

// TitleMissingURL is the problem title for an input locator without a
// usable address.
const TitleMissingURL = "Provided input file locator is missing 'url' property"

// Phase names used in logs, spans and the phase duration metric.
const (
	PhaseValidate    = "validate"
	PhaseClassify    = "classify"
	PhaseCredentials = "credentials"
	PhaseBucket      = "bucket"
	PhaseStage       = "stage"
	PhaseRecognize   = "recognize"
	PhaseWrite       = "write"
	PhaseCleanup     = "cleanup"
)

// Outcomes recorded on the job counter.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Writer persists an artifact and returns a link to it.
type Writer interface {
	Write(ctx context.Context, key string, payload any) (string, error)
	Prefix() string
}

// Option configures a Worker.
type Option func(*Worker)

// WithMetrics records job and phase metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

// WithClock overrides the clock used for artifact names.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// Worker runs the transcription pipeline. It keeps no per-job state, so one
// Worker serves any number of concurrent Process calls.
type Worker struct {
	connector Connector
	writer    Writer
	cfg       Config
	log       *logger.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

// New creates a Worker.
func New(connector Connector, writer Writer, cfg Config, log *logger.Logger, opts ...Option) *Worker {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	w := &Worker{
		connector: connector,
		writer:    writer,
		cfg:       cfg,
		log:       log.WithComponent("worker"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type identified interface {
	ID() string
}

// Process runs one job to completion. The outcome is reported through the
// assignment; a failure is also returned.
func (w *Worker) Process(ctx context.Context, a job.Assignment) error {
	var jobID string
	if ia, ok := a.(identified); ok {
		jobID = ia.ID()
		ctx = logger.ContextWithJobID(ctx, jobID)
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanProcess,
		trace.WithAttributes(attribute.String(observability.AttrJobID, jobID)))
	defer span.End()

	log := w.log.WithContext(ctx)
	start := time.Now()
	w.metrics.JobStarted(ctx)
	log.Info("job started")

	out, err := w.run(ctx, a, log)
	if err == nil {
		err = w.reportSuccess(ctx, a, out)
	}
	if err != nil {
		w.reportFailure(ctx, a, err, log)
		observability.SetSpanError(ctx, err)
		span.SetAttributes(attribute.String(observability.AttrOutcome, OutcomeFailed))
		w.metrics.JobFinished(ctx, OutcomeFailed)
		return err
	}

	span.SetAttributes(attribute.String(observability.AttrOutcome, OutcomeCompleted))
	w.metrics.JobFinished(ctx, OutcomeCompleted)
	log.Info("job completed", map[string]interface{}{
		logger.FieldDuration: time.Since(start).Milliseconds(),
		"transcript_file":    out.TranscriptFile.URL,
		"caption_file":       out.CaptionFile.URL,
	})
	return nil
}

func (w *Worker) run(ctx context.Context, a job.Assignment, log *logger.Logger) (job.Output, error) {
	in, err := a.Input(ctx)
	if err != nil {
		return job.Output{}, errors.Internal(fmt.Errorf("read job input: %w", err))
	}
	if s, ok := a.(job.Starter); ok {
		if err := s.Start(ctx); err != nil {
			return job.Output{}, err
		}
	}
	address := in.InputFile.URL

	if err := w.phase(ctx, log, PhaseValidate, func(context.Context) error {
		if verr := validation.New().AbsoluteURL("input_file.url", address).Validate(); verr != nil {
			return verr
		}
		return nil
	}); err != nil {
		return job.Output{}, err
	}

	var encoding transcription.AudioEncoding
	if err := w.phase(ctx, log, PhaseClassify, func(context.Context) error {
		encoding, err = transcription.Classify(address)
		return err
	}); err != nil {
		return job.Output{}, err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String(observability.AttrEncoding, string(encoding)))

	var session *Session
	if err := w.phase(ctx, log, PhaseCredentials, func(ctx context.Context) error {
		session, err = w.connector.Connect(ctx)
		if err != nil && !errors.IsAppError(err) {
			err = errors.CredentialsFailed(err)
		}
		return err
	}); err != nil {
		return job.Output{}, err
	}

	if err := w.phase(ctx, log, PhaseBucket, session.Stager.EnsureBucket); err != nil {
		return job.Output{}, err
	}

	var staged *staging.StagedObject
	if err := w.phase(ctx, log, PhaseStage, func(ctx context.Context) error {
		staged, err = session.Stager.Stage(ctx, address)
		return err
	}); err != nil {
		return job.Output{}, err
	}
	defer w.release(ctx, session.Stager, staged, log)
	w.metrics.RecordStaged(ctx, staged.Bytes)
	log.Info("media staged", logger.Fields("uri", staged.URI, "bytes", staged.Bytes))

	var result *transcription.Result
	if err := w.phase(ctx, log, PhaseRecognize, func(ctx context.Context) error {
		trace.SpanFromContext(ctx).SetAttributes(attribute.String(observability.AttrStagedURI, staged.URI))
		result, err = session.Recognizer.Recognize(ctx, staged.URI, transcription.RecognitionConfig{
			Encoding:                   encoding,
			LanguageCode:               w.cfg.LanguageCode,
			AudioChannelCount:          w.cfg.AudioChannelCount,
			EnableAutomaticPunctuation: true,
			EnableWordTimeOffsets:      true,
		})
		return err
	}); err != nil {
		return job.Output{}, err
	}

	var out job.Output
	err = w.phase(ctx, log, PhaseWrite, func(ctx context.Context) error {
		keys := output.ArtifactKeys(output.ArtifactPrefix(w.writer.Prefix(), address, w.now()))
		var werr error
		if out.TranscriptFile.URL, werr = w.writer.Write(ctx, keys.Transcript, result.RawJSON()); werr != nil {
			return werr
		}
		if out.CaptionFile.URL, werr = w.writer.Write(ctx, keys.Caption, caption.Format(result)); werr != nil {
			return werr
		}
		out.TextFile.URL, werr = w.writer.Write(ctx, keys.Text, result.Transcript())
		return werr
	})
	return out, err
}

// phase runs fn inside a span and logs how it ended.
func (w *Worker) phase(ctx context.Context, log *logger.Logger, name string, fn func(context.Context) error) error {
	ctx, p := observability.StartPhase(ctx, w.metrics, name)
	err := fn(ctx)
	d := p.End(err)

	fields := logger.PhaseFields(name, d)
	if err != nil {
		fields[logger.FieldError] = err.Error()
		if appErr, ok := errors.AsAppError(err); ok {
			fields[logger.FieldCode] = string(appErr.Code)
		}
		log.Warn("phase failed", fields)
		return err
	}
	log.Debug("phase finished", fields)
	return nil
}

// release deletes the staged object. The job outcome is already decided, so
// a failure here is only logged.
func (w *Worker) release(ctx context.Context, stager Stager, obj *staging.StagedObject, log *logger.Logger) {
	ctx = context.WithoutCancel(ctx)
	ctx, p := observability.StartPhase(ctx, w.metrics, PhaseCleanup)
	err := stager.Release(ctx, obj)
	d := p.End(err)
	if err != nil {
		w.metrics.RecordCleanupFailure(ctx)
		log.Error("failed to delete staged object", map[string]interface{}{
			logger.FieldPhase:    PhaseCleanup,
			logger.FieldCode:     string(errors.ErrCodeCleanupFailed),
			logger.FieldError:    err.Error(),
			logger.FieldDuration: d.Milliseconds(),
			"object":             obj.Name,
		})
		return
	}
	log.Debug("staged object deleted", logger.Fields("object", obj.Name, logger.FieldDuration, d.Milliseconds()))
}

func (w *Worker) reportSuccess(ctx context.Context, a job.Assignment, out job.Output) error {
	ctx = context.WithoutCancel(ctx)
	if err := a.SetOutput(ctx, out); err != nil {
		return errors.Internal(fmt.Errorf("set job output: %w", err))
	}
	if err := a.Complete(ctx); err != nil {
		return errors.Internal(fmt.Errorf("complete job: %w", err))
	}
	return nil
}

func (w *Worker) reportFailure(ctx context.Context, a job.Assignment, cause error, log *logger.Logger) {
	p := ProblemFor(cause)
	log.Error("job failed", map[string]interface{}{
		logger.FieldError: cause.Error(),
		"problem_type":    p.Type,
	})
	if err := a.Fail(context.WithoutCancel(ctx), p); err != nil {
		log.Error("failed to report job failure", logger.ErrorFields("fail", err))
	}
}

// ProblemFor converts a pipeline error into the problem reported on the job.
func ProblemFor(err error) job.Problem {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return job.Problem{Type: errors.ProblemGenericFailure, Title: "Generic failure", Detail: err.Error()}
	}
	if appErr.Code == errors.ErrCodeInvalidInput {
		return job.Problem{Type: errors.ProblemLocatorMissingURL, Title: TitleMissingURL, Detail: err.Error()}
	}
	return job.Problem{Type: errors.ProblemType(appErr.Code), Title: appErr.Message, Detail: err.Error()}
}
