// Package dispatch decides between the structured and free-text upstream
// calls and degrades gracefully when the structured path fails.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/adithyag/studytoolsgpt/internal/domain"
	"github.com/adithyag/studytoolsgpt/internal/prompt"
)

// fallbackTemperature is used for free-text calls. The structured call pins
// temperature to zero to stabilize the document shape.
const fallbackTemperature = 0.7

// Completer is the upstream model consumed by the dispatcher.
type Completer interface {
	CompleteText(ctx context.Context, instruction string, history []prompt.Turn, temperature float64) (string, error)
	CompleteStructured(ctx context.Context, instruction string, history []prompt.Turn) (json.RawMessage, error)
}

// Result is the tagged outcome of a dispatch: exactly one of Document or
// Text is set, selected by Kind. Degraded marks a structured-mode request
// answered by the free-text fallback.
type Result struct {
	Kind     domain.Kind
	Document *domain.StructuredDocument
	Text     string
	Degraded bool
}

// Dispatcher routes one conversation turn to the upstream model.
type Dispatcher struct {
	completer      Completer
	structuredMode string
	historyLimit   int
}

// New creates a Dispatcher. structuredMode is the mode label that triggers
// schema-constrained calls; historyLimit caps the forwarded history.
func New(completer Completer, structuredMode string, historyLimit int) *Dispatcher {
	return &Dispatcher{
		completer:      completer,
		structuredMode: structuredMode,
		historyLimit:   historyLimit,
	}
}

// Dispatch handles a single request. In structured mode it attempts the
// schema-constrained call first; any failure there (upstream error or schema
// mismatch on the payload) falls back to one free-text call. The two calls
// are sequential, never concurrent. Errors returned here are upstream
// failures the caller surfaces as server errors.
func (d *Dispatcher) Dispatch(ctx context.Context, modeLabel string, turns []domain.ChatTurn) (*Result, error) {
	if modeLabel == "" {
		modeLabel = prompt.DefaultModeLabel
	}
	instruction := prompt.Instruction(modeLabel)
	history := prompt.Normalize(turns, d.historyLimit)

	if modeLabel != d.structuredMode {
		text, err := d.completer.CompleteText(ctx, instruction, history, fallbackTemperature)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: domain.KindText, Text: text}, nil
	}

	raw, err := d.completer.CompleteStructured(ctx, instruction, history)
	if err == nil {
		doc, parseErr := domain.ParseDocument(raw)
		if parseErr == nil {
			return &Result{Kind: domain.KindStructured, Document: doc}, nil
		}
		err = parseErr
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if errors.Is(err, domain.ErrSchemaMismatch) {
		slog.Warn("Structured payload failed validation, falling back to text", "error", err)
	} else {
		slog.Warn("Structured call failed, falling back to text", "error", err)
	}

	text, fallbackErr := d.completer.CompleteText(ctx, instruction, history, fallbackTemperature)
	if fallbackErr != nil {
		return nil, fallbackErr
	}
	return &Result{Kind: domain.KindText, Text: text, Degraded: true}, nil
}
