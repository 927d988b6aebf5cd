// Package pipeline runs the conversation extraction and statistics pipeline:
// raw share-page HTML in, organized conversation units with per-turn and
// session-wide statistics out. The synchronous stages either produce a
// complete result or fail with one typed error; only tokenization is allowed
// degraded output (original messages substituted on timeout).
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chatscope/chatscope/internal/conversation"
	"github.com/chatscope/chatscope/internal/extract"
	"github.com/chatscope/chatscope/internal/tokenizer"
)

var tracer = otel.Tracer("chatscope/pipeline")

// Stage failures beyond the extraction sentinels.
var (
	// ErrExtractionFailed indicates message flattening rejected the payload.
	ErrExtractionFailed = errors.New("message extraction failed")

	// ErrOrganizeFailed indicates the flat message list could not be grouped.
	ErrOrganizeFailed = errors.New("message organization failed")

	// ErrStatsFailed indicates statistics aggregation rejected its input.
	ErrStatsFailed = errors.New("statistics computation failed")
)

// Options controls one pipeline run.
type Options struct {
	// Minimize reduces records to the privacy-preserving shape (role, content
	// parts, curated metadata) before organization.
	Minimize bool

	// TokenizerConsent reports whether the user allowed content access.
	// Withheld consent forces length-only tokenization so raw token
	// sequences never appear in the output.
	TokenizerConsent bool

	// LengthOnly requests token counts instead of token sequences even when
	// consent was given.
	LengthOnly bool

	// TokenizerModel selects the BPE vocabulary.
	TokenizerModel string

	// Progress, when set, receives tokenization progress percentages.
	Progress func(percent int)
}

// Result is the packaged output of one run.
type Result struct {
	Messages         []conversation.Unit           `json:"messages"`
	GlobalStatistics conversation.GlobalStatistics `json:"globalStatistics"`
	SessionInfo      extract.SessionInfo           `json:"sessionInfo"`
}

// Encoder is the tokenizer surface the pipeline needs. *tokenizer.Pool
// satisfies it.
type Encoder interface {
	EncodeBatch(ctx context.Context, records []conversation.Record, opts tokenizer.Options) ([]conversation.Record, error)
}

// Analyzer owns the pipeline's one concurrent collaborator, the tokenizer.
// Everything else is a pure transformation over immutable input.
type Analyzer struct {
	pool Encoder
}

// New creates an Analyzer backed by the given tokenizer pool.
func New(pool Encoder) *Analyzer {
	return &Analyzer{pool: pool}
}

// Run executes the full pipeline over raw share-page content.
func (a *Analyzer) Run(ctx context.Context, rawHTML string, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()

	fail := func(err error) (*Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	payload, err := extract.Payload(rawHTML)
	if err != nil {
		return fail(err)
	}

	// Session metadata is best-effort and can never fail the run.
	session := extract.Session(payload)

	flat, err := extract.Messages(payload)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrExtractionFailed, err))
	}
	span.SetAttributes(attribute.Int("pipeline.messages.flattened", len(flat)))

	records := make([]conversation.Record, 0, len(flat))
	for _, v := range flat {
		if rec := conversation.AsRecord(v); rec != nil {
			records = append(records, rec)
		}
	}

	records = conversation.Deduplicate(records)
	records = conversation.Normalize(records, opts.Minimize)
	span.SetAttributes(attribute.Int("pipeline.messages.deduplicated", len(records)))

	// Tokenize before organizing: the organizer folds each user message's
	// own token count into its unit's statistics.
	records, err = a.pool.EncodeBatch(ctx, records, tokenizer.Options{
		Model:      opts.TokenizerModel,
		LengthOnly: opts.LengthOnly || !opts.TokenizerConsent,
		OnProgress: opts.Progress,
	})
	if err != nil {
		return fail(err)
	}

	units := conversation.Organize(records)
	span.SetAttributes(attribute.Int("pipeline.units", len(units)))

	global := conversation.Aggregate(units)

	return &Result{
		Messages:         units,
		GlobalStatistics: global,
		SessionInfo:      session,
	}, nil
}

// ErrorCode maps a pipeline failure onto its stable wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, extract.ErrBlockNotFound):
		return "BlockNotFound"
	case errors.Is(err, extract.ErrParseFailed):
		return "ParseFailed"
	case errors.Is(err, ErrExtractionFailed):
		return "ExtractionFailed"
	case errors.Is(err, ErrOrganizeFailed):
		return "OrganizeFailed"
	case errors.Is(err, ErrStatsFailed):
		return "StatsFailed"
	default:
		return "InternalError"
	}
}
