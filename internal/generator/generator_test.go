package generator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewModeSelection(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		want    any
		wantErr bool
	}{
		{"mock explicit", Config{Mode: "mock"}, &MockGenerator{}, false},
		{"auto without backends", Config{Mode: "auto"}, &MockGenerator{}, false},
		{"auto prefers openai", Config{Mode: "auto", OpenAIAPIKey: "sk-test", HTTPURL: "http://x"}, &OpenAIGenerator{}, false},
		{"auto falls back to http", Config{Mode: "auto", HTTPURL: "http://x"}, &HTTPGenerator{}, false},
		{"openai without key", Config{Mode: "openai"}, nil, true},
		{"http without url", Config{Mode: "http"}, nil, true},
		{"unknown mode", Config{Mode: "telepathy"}, nil, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := New(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("New(%+v) expected error", tc.cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			switch tc.want.(type) {
			case *MockGenerator:
				if _, ok := g.(*MockGenerator); !ok {
					t.Fatalf("got %T, want *MockGenerator", g)
				}
			case *OpenAIGenerator:
				if _, ok := g.(*OpenAIGenerator); !ok {
					t.Fatalf("got %T, want *OpenAIGenerator", g)
				}
			case *HTTPGenerator:
				if _, ok := g.(*HTTPGenerator); !ok {
					t.Fatalf("got %T, want *HTTPGenerator", g)
				}
			}
		})
	}
}

func TestBuildPromptIncludesContext(t *testing.T) {
	prompt := BuildPrompt(Request{
		Intent:       "ticket_purchase",
		ContextParts: []string{"TICKET PURCHASE STEPS:\n- step one"},
	})
	if !strings.Contains(prompt, "User intent detected: ticket_purchase") {
		t.Fatalf("prompt missing intent line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "step one") {
		t.Fatalf("prompt missing knowledge snippet:\n%s", prompt)
	}

	bare := BuildPrompt(Request{})
	if bare != SystemPrompt {
		t.Fatalf("empty request should yield the bare system prompt")
	}
}

func TestHTTPGeneratorParsesJSONAndText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"here is your answer"}`))
	}))
	defer ts.Close()

	g := NewHTTPGenerator(ts.URL, time.Second)
	resp, err := g.Generate(context.Background(), Request{InputText: "how?"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text != "here is your answer" {
		t.Fatalf("Text = %q", resp.Text)
	}
}

func TestHTTPGeneratorRetriesRetryableStatus(t *testing.T) {
	prev := httpRetryBackoff
	httpRetryBackoff = time.Millisecond
	defer func() { httpRetryBackoff = prev }()

	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"text":"second try"}`))
	}))
	defer ts.Close()

	g := NewHTTPGenerator(ts.URL, time.Second)
	resp, err := g.Generate(context.Background(), Request{InputText: "how?"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text != "second try" {
		t.Fatalf("Text = %q, want %q", resp.Text, "second try")
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestHTTPGeneratorDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	g := NewHTTPGenerator(ts.URL, time.Second)
	if _, err := g.Generate(context.Background(), Request{InputText: "how?"}); err == nil {
		t.Fatalf("expected error on 400")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

type stubGenerator struct {
	resp Response
	err  error
}

func (s stubGenerator) Generate(_ context.Context, _ Request) (Response, error) {
	return s.resp, s.err
}

func TestFallbackGeneratorUsesSecondaryOnError(t *testing.T) {
	g := NewFallbackGenerator(
		stubGenerator{err: errors.New("primary down")},
		stubGenerator{resp: Response{Text: "fallback reply"}},
	)
	resp, err := g.Generate(context.Background(), Request{InputText: "hi"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text != "fallback reply" {
		t.Fatalf("Text = %q", resp.Text)
	}
}

func TestFallbackGeneratorPropagatesCancellation(t *testing.T) {
	g := NewFallbackGenerator(
		stubGenerator{err: context.DeadlineExceeded},
		stubGenerator{resp: Response{Text: "should not run"}},
	)
	_, err := g.Generate(context.Background(), Request{InputText: "hi"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestMockGeneratorIsDeterministic(t *testing.T) {
	g := NewMockGenerator()
	a, err := g.Generate(context.Background(), Request{InputText: "refunds?"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, _ := g.Generate(context.Background(), Request{InputText: "refunds?"})
	if a.Text != b.Text {
		t.Fatalf("mock replies differ: %q vs %q", a.Text, b.Text)
	}
	if !strings.Contains(a.Text, "refunds?") {
		t.Fatalf("mock reply should echo the input: %q", a.Text)
	}
}
