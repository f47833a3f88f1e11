package responder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/CzPhantom10/Chromion-Hackathon/internal/generator"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/intent"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/knowledge"
)

// Source names where a reply came from.
const (
	SourceTemplate  = "template"
	SourceGenerator = "generator"
	SourceFallback  = "fallback"
)

// Result is a composed reply. The responder never mutates session state;
// callers own recording the exchange.
type Result struct {
	Text   string
	Match  intent.Match
	Source string
}

// Query carries everything the responder needs about one inbound message.
type Query struct {
	SessionID   string
	Message     string
	CurrentPage string
	History     []generator.Turn
}

// Responder selects between canned knowledge-base replies and the external
// text-generation backend.
type Responder struct {
	kb      *knowledge.Base
	gen     generator.Generator
	timeout time.Duration
	log     zerolog.Logger
}

func New(kb *knowledge.Base, gen generator.Generator, timeout time.Duration, log zerolog.Logger) *Responder {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Responder{kb: kb, gen: gen, timeout: timeout, log: log}
}

// Respond analyzes the message and composes a reply. Generator failures and
// timeouts degrade to the templated fallback text; they are never surfaced
// to the caller as errors.
func (r *Responder) Respond(ctx context.Context, q Query) Result {
	match := intent.Analyze(q.Message)

	if knowledge.IsGreeting(q.Message) {
		return Result{Text: r.kb.Welcome(), Match: match, Source: SourceTemplate}
	}

	if match.Matched() {
		if text, ok := r.kb.QuickReply(match.Label); ok {
			return Result{Text: text, Match: match, Source: SourceTemplate}
		}
	}

	return r.generate(ctx, q, match)
}

func (r *Responder) generate(ctx context.Context, q Query, match intent.Match) Result {
	req := generator.Request{
		SessionID: q.SessionID,
		InputText: q.Message,
		History:   q.History,
	}
	if match.Matched() {
		req.Intent = string(match.Label)
		req.ContextParts = r.kb.ContextFor(match.Label)
	}
	if q.CurrentPage != "" {
		req.ContextParts = append(req.ContextParts,
			"User is currently on the "+q.CurrentPage+" page of TruePass.")
	}
	for k, v := range match.Entities {
		req.ContextParts = append(req.ContextParts, "Extracted entity "+k+": "+v)
	}

	genCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.gen.Generate(genCtx, req)
	if err != nil {
		r.log.Warn().
			Err(err).
			Str("session_id", q.SessionID).
			Str("intent", string(match.Label)).
			Msg("text generation failed, using fallback reply")
		return Result{Text: r.kb.Fallback, Match: match, Source: SourceFallback}
	}
	return Result{Text: resp.Text, Match: match, Source: SourceGenerator}
}
