package knowledge

import (
	"strings"
	"testing"

	"github.com/CzPhantom10/Chromion-Hackathon/internal/intent"
)

func TestLoadParsesEmbeddedBase(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b.Platform.Name != "TruePass" {
		t.Fatalf("Platform.Name = %q, want %q", b.Platform.Name, "TruePass")
	}
	if len(b.Suggestions.Base) == 0 {
		t.Fatalf("base suggestions should not be empty")
	}
	if strings.TrimSpace(b.Fallback) == "" {
		t.Fatalf("fallback text should not be empty")
	}
}

func TestQuickReplyByIntent(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	text, ok := b.QuickReply(intent.LabelTicketPurchase)
	if !ok {
		t.Fatalf("expected a quick reply for ticket purchase")
	}
	if !strings.Contains(text, "Buy Now") {
		t.Fatalf("ticket purchase reply missing purchase-flow guidance: %q", text)
	}

	if _, ok := b.QuickReply(intent.LabelGeneralInfo); ok {
		t.Fatalf("general_info should defer to the generator")
	}
	if _, ok := b.QuickReply(intent.LabelNone); ok {
		t.Fatalf("no-match should defer to the generator")
	}
}

func TestIsGreeting(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"hi", true},
		{"Hello there!", true},
		{"hey, anyone around?", true},
		{"this ticket is broken", false},
		{"how do i buy tickets with upi", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsGreeting(tc.input); got != tc.want {
			t.Fatalf("IsGreeting(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestContextForIncludesGuides(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	parts := b.ContextFor(intent.LabelTicketPurchase)
	if len(parts) == 0 {
		t.Fatalf("context for ticket purchase should not be empty")
	}
	joined := strings.Join(parts, "\n")
	if !strings.Contains(joined, "Indian Rupees") {
		t.Fatalf("ticket purchase context missing INR guidance: %q", joined)
	}
}

func TestSuggestedQuestionsContextual(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	base := b.SuggestedQuestions(intent.LabelNone)
	if len(base) == 0 || len(base) > 8 {
		t.Fatalf("base suggestions length = %d, want 1..8", len(base))
	}

	wallet := b.SuggestedQuestions(intent.LabelWalletConnection)
	if len(wallet) > 8 {
		t.Fatalf("wallet suggestions length = %d, want <= 8", len(wallet))
	}
	if wallet[0] == base[0] {
		t.Fatalf("wallet-context suggestions should lead with wallet questions, got %q", wallet[0])
	}
}
