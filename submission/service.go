// Package submission wires the publish → build → sign sequence for the two
// kinds of attestation: patient-record updates and feedback submissions.
package submission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/healthcare-ms/go-attest-sdk/claim"
	"github.com/healthcare-ms/go-attest-sdk/publisher"
	"github.com/healthcare-ms/go-attest-sdk/signer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/healthcare-ms/go-attest-sdk/submission"

// Stage is the step of a submission that failed.
type Stage string

const (
	StagePublish Stage = "publish"
	StageBuild   Stage = "build"
	StageSign    Stage = "sign"
)

// Error wraps the component error that ended a submission.
type Error struct {
	Stage  Stage
	Schema string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s submission failed at %s: %v", e.Schema, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Service runs submissions. It holds no per-submission state, so concurrent
// calls are safe.
type Service struct {
	publisher publisher.Publisher
	builder   *claim.Builder
	signer    *signer.Signer
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(tracerName) }
}

// NewService creates a Service.
func NewService(pub publisher.Publisher, builder *claim.Builder, sgn *signer.Signer, opts ...Option) *Service {
	s := &Service{
		publisher: pub,
		builder:   builder,
		signer:    sgn,
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitPatientData publishes the form and signs a PatientDataUpdate claim
// committing to the hash of its content identifier.
func (s *Service) SubmitPatientData(ctx context.Context, form PatientDataForm) (*signer.Attestation, error) {
	schema, _ := KindPatientData.Schema()
	return s.submit(ctx, schema, form, form.inputs)
}

// SubmitFeedback publishes the form and signs a FeedbackSubmission claim
// embedding its content identifier.
func (s *Service) SubmitFeedback(ctx context.Context, form FeedbackForm) (*signer.Attestation, error) {
	schema, _ := KindFeedback.Schema()
	return s.submit(ctx, schema, form, form.inputs)
}

// Submit dispatches a batch request to its entry point.
func (s *Service) Submit(ctx context.Context, req Request) (*signer.Attestation, error) {
	switch req.Kind {
	case KindPatientData:
		if req.Patient == nil {
			return nil, fmt.Errorf("patient request without patient form")
		}
		return s.SubmitPatientData(ctx, *req.Patient)
	case KindFeedback:
		if req.Feedback == nil {
			return nil, fmt.Errorf("feedback request without feedback form")
		}
		return s.SubmitFeedback(ctx, *req.Feedback)
	default:
		return nil, fmt.Errorf("unknown request kind %q", req.Kind)
	}
}

func (s *Service) submit(ctx context.Context, schema string, record any, inputs func(cid string) claim.Inputs) (*signer.Attestation, error) {
	ctx, span := s.tracer.Start(ctx, "submission."+schema)
	defer span.End()

	fail := func(stage Stage, err error) (*signer.Attestation, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stage))
		s.logger.ErrorContext(ctx, "submission failed", "schema", schema, "stage", stage, "error", err)
		return nil, &Error{Stage: stage, Schema: schema, Err: err}
	}

	s.logger.InfoContext(ctx, "submission started", "schema", schema)

	cid, err := s.publisher.Publish(ctx, record)
	if err != nil {
		return fail(StagePublish, err)
	}
	span.SetAttributes(attribute.String("ipfs.cid", cid))

	c, err := s.builder.Build(schema, inputs(cid))
	if err != nil {
		return fail(StageBuild, err)
	}

	att, err := s.signer.Sign(ctx, c)
	if err != nil {
		return fail(StageSign, err)
	}
	span.SetAttributes(
		attribute.String("eip712.struct_hash", att.StructHash.Hex()),
		attribute.String("eip712.signer", att.Signer.Hex()),
	)

	s.logger.InfoContext(ctx, "submission signed",
		"schema", schema,
		"cid", cid,
		"structHash", att.StructHash.Hex(),
		"signature", att.RawSignature.String(),
	)
	return att, nil
}
