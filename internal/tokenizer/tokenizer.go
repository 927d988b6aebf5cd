// Package tokenizer converts message text into BPE token counts or raw token
// sequences off the synchronous pipeline path. Encoding runs on a bounded set
// of workers so one slow or pathological message cannot stall a batch, and a
// per-message timeout substitutes the original message rather than failing
// the whole run.
package tokenizer

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/errgroup"

	"github.com/chatscope/chatscope/internal/conversation"
)

// fallbackEncoding is used when the model identifier doesn't map to a known
// vocabulary.
const fallbackEncoding = "cl100k_base"

// DefaultTimeout is the per-message encode budget.
const DefaultTimeout = 10 * time.Second

// Options controls one batch encode.
type Options struct {
	// Model selects the BPE vocabulary. Unknown models fall back to
	// cl100k_base.
	Model string

	// LengthOnly replaces message text with the token count instead of the
	// raw token sequence. The orchestrating caller sets this whenever the
	// user withheld consent to content access, so no token sequence ever
	// leaves the tokenizer in that mode.
	LengthOnly bool

	// Timeout is the per-message encode budget. Zero means DefaultTimeout.
	Timeout time.Duration

	// OnProgress, when set, receives a whole-percent completion fraction
	// after every message settles (success, skip, or timeout). It is
	// monotonically non-decreasing and reaches 100 exactly once.
	OnProgress func(percent int)
}

// encoder is the one tiktoken method the pool needs. Kept as an interface so
// batch behavior is testable without loading a real vocabulary.
type encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

// Pool runs encode tasks on a fixed number of concurrent workers.
// The vocabulary tables are read-only after first load and shared safely
// across workers. Construct with NewPool; there is no ambient global pool.
type Pool struct {
	size int

	mu       sync.Mutex
	encoders map[string]*tiktoken.Tiktoken
}

// NewPool creates a pool with the given worker count (minimum 1).
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		size:     size,
		encoders: make(map[string]*tiktoken.Tiktoken),
	}
}

// encoderFor resolves and caches the vocabulary for a model.
func (p *Pool) encoderFor(model string) (*tiktoken.Tiktoken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if enc, ok := p.encoders[model]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}
	p.encoders[model] = enc
	return enc, nil
}

// EncodeBatch tokenizes the first content part of every record, in place,
// preserving input order. A record whose first part is empty or missing is
// left unchanged and counts as length 0; a record whose encode times out or
// fails is left unchanged as well. The returned slice always has the same
// length and order as the input.
//
// Cancelling ctx abandons all remaining work and returns ctx.Err(); no
// partial batch is returned in that case.
func (p *Pool) EncodeBatch(ctx context.Context, records []conversation.Record, opts Options) ([]conversation.Record, error) {
	enc, err := p.encoderFor(opts.Model)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, enc, records, opts)
}

func (p *Pool) run(ctx context.Context, enc encoder, records []conversation.Record, opts Options) ([]conversation.Record, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	total := len(records)
	results := make([]conversation.Record, total)
	if total == 0 {
		if opts.OnProgress != nil {
			opts.OnProgress(100)
		}
		return results, nil
	}

	var progressMu sync.Mutex
	completed := 0
	settle := func() {
		progressMu.Lock()
		completed++
		pct := int(math.Round(float64(completed) / float64(total) * 100))
		if pct >= 100 && completed < total {
			pct = 99 // 100 is reported exactly once, at completion
		}
		if opts.OnProgress != nil {
			opts.OnProgress(pct)
		}
		progressMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)

	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.encodeOne(gctx, enc, rec, opts.LengthOnly, timeout)
			settle()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// encodeOne tokenizes a single record with a timeout. The encode itself runs
// in a helper goroutine because BPE encoding cannot be interrupted; on
// timeout the record is returned untouched and the stray result is dropped
// when it eventually arrives.
func (p *Pool) encodeOne(ctx context.Context, enc encoder, rec conversation.Record, lengthOnly bool, timeout time.Duration) conversation.Record {
	if rec == nil {
		return rec
	}
	text, ok := rec.FirstPartText()
	if !ok || text == "" {
		return rec
	}

	done := make(chan []int, 1)
	go func() {
		defer func() {
			// tiktoken panics on some malformed input; treat as encode failure
			recover()
			close(done)
		}()
		done <- enc.Encode(text, nil, nil)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case tokens, ok := <-done:
		if !ok || tokens == nil {
			return rec
		}
		if lengthOnly {
			rec.SetFirstPart(float64(len(tokens)))
			rec.SetTokens(float64(len(tokens)))
		} else {
			seq := make([]interface{}, len(tokens))
			for i, t := range tokens {
				seq[i] = float64(t)
			}
			rec.SetFirstPart(seq)
			rec.SetTokens(seq)
		}
		return rec
	case <-timer.C:
		return rec
	case <-ctx.Done():
		return rec
	}
}
