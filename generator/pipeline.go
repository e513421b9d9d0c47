package generator

import (
	"context"
	"log"
	"math/rand"
	"strings"

	"auto_x_thread_publisher/textmetrics"
)

// fallbackTheme seeds the writer when the theme brainstorm itself fails.
const fallbackTheme = "ちゃんとしすぎる人の体の反応"

// angleRotationKey names the persisted rotation counter for content angles.
const angleRotationKey = "angle"

// RejectReason classifies why one candidate was thrown away, so retries can
// be told apart from transport failures in the logs.
type RejectReason int

const (
	ReasonNone RejectReason = iota
	ReasonEmptyDraft
	ReasonEmptyEdit
	ReasonForbidden
	ReasonLength
	ReasonTooSimilar
)

func (r RejectReason) String() string {
	switch r {
	case ReasonNone:
		return "accepted"
	case ReasonEmptyDraft:
		return "empty draft"
	case ReasonEmptyEdit:
		return "empty edit"
	case ReasonForbidden:
		return "forbidden word"
	case ReasonLength:
		return "length out of range"
	case ReasonTooSimilar:
		return "too similar to history"
	default:
		return "unknown"
	}
}

// HistoryStore is the slice of the durable store the pipeline needs.
type HistoryStore interface {
	Recent(k int) ([]string, error)
	Append(text string, limit int) error
	NextRotation(name string, size int) (int, error)
}

// Options bundles every tunable of one pipeline instance. Immutable after
// construction.
type Options struct {
	MaxTries            int
	MaxTotalChars       int
	MinChars            int
	SimilarityThreshold float64
	HistoryLookback     int
	HistoryCap          int
	Forbidden           []string
	Angles              []string
	FallbackText        string
	ThemeTemperature    float64
	WriterTemperature   float64
	EditorTemperature   float64
}

// Pipeline turns unconstrained model output into one compliant,
// non-duplicate post text. It never fails: on exhaustion it degrades to the
// best candidate seen, then to a fixed fallback, because a worse post beats
// a broken schedule.
type Pipeline struct {
	writer LLMClient
	editor LLMClient // optional; nil skips the polish pass
	store  HistoryStore
	opts   Options
	logger *log.Logger
	pick   func(n int) int
	// in-memory angle cursor used when the store cannot be reached
	memAngle int
}

// NewPipeline wires a pipeline. editor and store may be nil; a nil store
// disables duplicate avoidance and rotation persistence but nothing else.
func NewPipeline(writer LLMClient, editor LLMClient, store HistoryStore, opts Options, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	if opts.MaxTries <= 0 {
		opts.MaxTries = 10
	}
	if opts.FallbackText == "" {
		opts.FallbackText = "ちゃんとしすぎる人って。\n\nだいたい、止まれない。"
	}
	return &Pipeline{
		writer:   writer,
		editor:   editor,
		store:    store,
		opts:     opts,
		logger:   logger,
		pick:     rand.Intn,
		memAngle: -1,
	}
}

// Run produces the final post text. The returned text always satisfies the
// length and forbidden-word constraints when a candidate was accepted;
// after MaxTries rejections it returns the last non-empty candidate (which
// may only have failed the similarity check), and the fixed fallback when
// every iteration came up empty.
func (p *Pipeline) Run(ctx context.Context) string {
	recent := p.recentHistory()
	angle := p.nextAngle()

	lastCandidate := ""
	for attempt := 1; attempt <= p.opts.MaxTries; attempt++ {
		theme := p.theme(ctx)

		draft, err := p.writer.Complete(ctx, BuildWriterPrompt(theme, angle, p.opts.MaxTotalChars, p.opts.WriterTemperature))
		if err != nil {
			p.logger.Printf("[pipeline] attempt %d: writer failed: %v", attempt, err)
			continue
		}
		draft = strings.TrimSpace(draft)
		if draft == "" {
			p.logger.Printf("[pipeline] attempt %d: rejected (%s)", attempt, ReasonEmptyDraft)
			continue
		}

		final := p.edit(ctx, draft)
		final = StripMarkdown(final)
		final = textmetrics.TruncateRunes(final, p.opts.MaxTotalChars)
		if final == "" {
			p.logger.Printf("[pipeline] attempt %d: rejected (%s)", attempt, ReasonEmptyEdit)
			continue
		}

		if reason := p.validate(final, recent); reason != ReasonNone {
			// only a similarity reject may serve as the degraded result:
			// it already passed the forbidden and length checks
			if reason == ReasonTooSimilar {
				lastCandidate = final
			}
			p.logger.Printf("[pipeline] attempt %d: rejected (%s)", attempt, reason)
			continue
		}

		p.appendHistory(final)
		p.logger.Printf("[pipeline] accepted after %d attempt(s), %d chars", attempt, textmetrics.RuneLen(final))
		return final
	}

	if lastCandidate != "" {
		p.logger.Printf("[pipeline] retries exhausted, degrading to last candidate")
		return lastCandidate
	}
	p.logger.Printf("[pipeline] retries exhausted with no candidate, using fallback text")
	return p.opts.FallbackText
}

// validate runs the mechanical checks in a fixed order and reports the first
// failure.
func (p *Pipeline) validate(candidate string, recent []string) RejectReason {
	if textmetrics.ContainsForbidden(candidate, p.opts.Forbidden) {
		return ReasonForbidden
	}
	if !textmetrics.LengthWithin(candidate, p.opts.MinChars, p.opts.MaxTotalChars) {
		return ReasonLength
	}
	if textmetrics.IsTooSimilar(candidate, recent, p.opts.SimilarityThreshold, p.opts.HistoryLookback) {
		return ReasonTooSimilar
	}
	return ReasonNone
}

// theme obtains one theme from the brainstorm call, falling back to a fixed
// theme when the call fails or yields nothing usable.
func (p *Pipeline) theme(ctx context.Context) string {
	raw, err := p.writer.Complete(ctx, BuildThemePrompt(p.opts.ThemeTemperature))
	if err != nil {
		p.logger.Printf("[pipeline] theme generation failed: %v", err)
		return fallbackTheme
	}
	themes := ParseThemeLines(raw)
	if len(themes) == 0 {
		return fallbackTheme
	}
	return themes[p.pick(len(themes))]
}

// edit runs the editorial polish pass. A missing editor or a transport
// failure degrades to the unedited draft.
func (p *Pipeline) edit(ctx context.Context, draft string) string {
	if p.editor == nil {
		return draft
	}
	out, err := p.editor.Complete(ctx, BuildEditorPrompt(draft, p.opts.MaxTotalChars, p.opts.EditorTemperature))
	if err != nil {
		p.logger.Printf("[pipeline] editor failed, keeping draft: %v", err)
		return draft
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return draft
	}
	return out
}

// nextAngle advances the persisted angle rotation exactly once per
// invocation. Storage trouble degrades to an in-memory cursor so the cycle
// keeps moving within the process.
func (p *Pipeline) nextAngle() string {
	if len(p.opts.Angles) == 0 {
		return ""
	}
	if p.store != nil {
		idx, err := p.store.NextRotation(angleRotationKey, len(p.opts.Angles))
		if err != nil {
			p.logger.Printf("[pipeline] rotation state unavailable: %v", err)
		} else {
			p.memAngle = idx
			return p.opts.Angles[idx]
		}
	}
	p.memAngle = (p.memAngle + 1) % len(p.opts.Angles)
	return p.opts.Angles[p.memAngle]
}

func (p *Pipeline) recentHistory() []string {
	if p.store == nil || p.opts.HistoryLookback <= 0 {
		return nil
	}
	recent, err := p.store.Recent(p.opts.HistoryLookback)
	if err != nil {
		p.logger.Printf("[pipeline] history unavailable, duplicate check degraded: %v", err)
		return nil
	}
	return recent
}

func (p *Pipeline) appendHistory(text string) {
	if p.store == nil {
		return
	}
	if err := p.store.Append(text, p.opts.HistoryCap); err != nil {
		p.logger.Printf("[pipeline] history append failed (non-fatal): %v", err)
	}
}
