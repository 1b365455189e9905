package intent

import (
	"context"
	"errors"

	"github.com/tablechat/tablechat/internal/chart"
)

// ErrCapability marks transport-level failures of the model capability
// (network, timeout, upstream rejection). These surface to the caller;
// malformed-but-received output never does.
var ErrCapability = errors.New("intent: capability failure")

// FallbackAnswer replaces any model output that fails structural or
// referential validation.
const FallbackAnswer = "I couldn't analyze the data correctly. Please try a different question or rephrase your query."

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the capability boundary: grounding context plus the
// ordered conversation.
type Request struct {
	System string
	Turns  []Turn
}

// Capability is the opaque language-model collaborator. It returns the
// raw response text, possibly wrapped in a markdown code fence.
type Capability interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type Kind string

const (
	KindText  Kind = "text"
	KindTable Kind = "table"
	KindChart Kind = "chart"
)

// Binding pairs a dataset with a filter expression to evaluate on it.
type Binding struct {
	DatasetID string
	Expr      string
}

// Intent is the resolved outcome of one question. Exactly one case is
// active, selected by Kind; it lives for the duration of the turn that
// produced it.
type Intent struct {
	Kind     Kind
	Answer   string
	Bindings []Binding
	Chart    *chart.Request
}

func textIntent(answer string) Intent {
	return Intent{Kind: KindText, Answer: answer}
}

func fallbackIntent() Intent {
	return textIntent(FallbackAnswer)
}
