package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockGenerator provides deterministic local replies when no real backend
// is configured.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator { return &MockGenerator{} }

func (g *MockGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	default:
	}

	base := strings.TrimSpace(req.InputText)
	if base == "" {
		base = "your question"
	}
	if req.Intent != "" {
		return Response{Text: fmt.Sprintf("Here is what I know about %s regarding %q.", req.Intent, base)}, nil
	}
	return Response{Text: fmt.Sprintf("Thanks for asking about %q. A TruePass support agent will help shortly.", base)}, nil
}
