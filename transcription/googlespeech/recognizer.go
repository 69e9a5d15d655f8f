// Package googlespeech implements transcription.Recognizer on Google Cloud
// Speech-to-Text v1 long-running recognition.
package googlespeech

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/option"
	"google.golang.org/api/speech/v1"

	"github.com/kbukum/transcribe-worker/errors"
	"github.com/kbukum/transcribe-worker/logger"
	"github.com/kbukum/transcribe-worker/transcription"
)

// Name is the recognizer's registered name.
const Name = "google-speech"

var errNotDone = stderrors.New("operation not done")

// Recognizer submits long-running recognitions and waits for them.
type Recognizer struct {
	svc *speech.Service
	cfg Config
	log *logger.Logger
}

// New creates a recognizer that authorizes through httpClient.
func New(ctx context.Context, httpClient *http.Client, cfg Config, log *logger.Logger) (*Recognizer, error) {
	cfg.ApplyDefaults()

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := speech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("googlespeech: create service: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Recognizer{svc: svc, cfg: cfg, log: log.WithComponent(Name)}, nil
}

// Name returns the recognizer name.
func (r *Recognizer) Name() string { return Name }

// Recognize submits one long-running recognition for the audio at uri and
// polls until the operation is done. The submission is never retried and
// the wait has no deadline of its own; ctx bounds it.
func (r *Recognizer) Recognize(ctx context.Context, uri string, cfg transcription.RecognitionConfig) (*transcription.Result, error) {
	op, err := r.svc.Speech.Longrunningrecognize(&speech.LongRunningRecognizeRequest{
		Audio: &speech.RecognitionAudio{Uri: uri},
		Config: &speech.RecognitionConfig{
			Encoding:                   string(cfg.Encoding),
			LanguageCode:               cfg.LanguageCode,
			AudioChannelCount:          int64(cfg.AudioChannelCount),
			EnableAutomaticPunctuation: cfg.EnableAutomaticPunctuation,
			EnableWordTimeOffsets:      cfg.EnableWordTimeOffsets,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, errors.RecognitionFailed(fmt.Errorf("submit: %w", err))
	}

	r.log.Info("recognition submitted", map[string]interface{}{
		"operation": op.Name,
		"uri":       uri,
		"encoding":  string(cfg.Encoding),
	})

	if !op.Done {
		op, err = r.await(ctx, op.Name)
		if err != nil {
			return nil, errors.RecognitionFailed(err)
		}
	}
	return decodeOperation(op)
}

func (r *Recognizer) await(ctx context.Context, name string) (*speech.Operation, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.PollInitial
	b.MaxInterval = r.cfg.PollMax
	b.MaxElapsedTime = 0

	var done *speech.Operation
	polls := 0
	poll := func() error {
		polls++
		op, err := r.svc.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("poll %s: %w", name, err))
		}
		if !op.Done {
			return errNotDone
		}
		done = op
		return nil
	}

	if err := backoff.Retry(poll, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	r.log.Debug("recognition finished", map[string]interface{}{"operation": name, "polls": polls})
	return done, nil
}

func decodeOperation(op *speech.Operation) (*transcription.Result, error) {
	if op.Error != nil {
		return nil, errors.RecognitionFailed(
			fmt.Errorf("operation %s: code %d: %s", op.Name, op.Error.Code, op.Error.Message),
		).WithDetail("operation", op.Name)
	}

	var resp speech.LongRunningRecognizeResponse
	if len(op.Response) > 0 {
		if err := json.Unmarshal(op.Response, &resp); err != nil {
			return nil, errors.RecognitionFailed(fmt.Errorf("decode response: %w", err))
		}
	}

	result, err := convert(&resp)
	if err != nil {
		return nil, errors.RecognitionFailed(err)
	}
	result.Raw = []byte(op.Response)
	return result, nil
}

func convert(resp *speech.LongRunningRecognizeResponse) (*transcription.Result, error) {
	result := &transcription.Result{Segments: make([]transcription.Segment, 0, len(resp.Results))}
	for _, res := range resp.Results {
		if res == nil {
			continue
		}
		seg := transcription.Segment{
			ChannelTag:   int(res.ChannelTag),
			LanguageCode: res.LanguageCode,
		}
		for _, alt := range res.Alternatives {
			if alt == nil {
				continue
			}
			a := transcription.Alternative{Transcript: alt.Transcript, Confidence: alt.Confidence}
			for _, w := range alt.Words {
				if w == nil {
					continue
				}
				start, err := parseOffset(w.StartTime)
				if err != nil {
					return nil, err
				}
				end, err := parseOffset(w.EndTime)
				if err != nil {
					return nil, err
				}
				a.Words = append(a.Words, transcription.Word{Text: w.Word, Start: start, End: end})
			}
			seg.Alternatives = append(seg.Alternatives, a)
		}
		result.Segments = append(result.Segments, seg)
	}
	return result, nil
}

// parseOffset reads a protobuf JSON duration such as "1.300s". A missing
// offset is zero.
func parseOffset(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid word offset %q: %w", s, err)
	}
	return d, nil
}

var _ transcription.Recognizer = (*Recognizer)(nil)
