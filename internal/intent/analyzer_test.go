package intent

import "testing"

func TestAnalyzeKnownIntents(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  Label
	}{
		{"purchase with upi", "How do I buy tickets with UPI?", LabelTicketPurchase},
		{"generation", "I want to generate ticket with a QR code", LabelTicketGeneration},
		{"validation", "How do I validate ticket with the totp code?", LabelTicketValidation},
		{"wallet", "MetaMask wallet connection failed", LabelWalletConnection},
		{"marketplace", "Show me the NFT collection on the marketplace", LabelNFTMarketplace},
		{"support plea", "I need help, the page is stuck", LabelTechnicalSupport},
		{"general", "What is TruePass and how does it work?", LabelGeneralInfo},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Analyze(tc.input)
			if got.Label != tc.want {
				t.Fatalf("Analyze(%q).Label = %q, want %q (scores %v)", tc.input, got.Label, tc.want, got.Scores)
			}
			if got.Confidence < MinConfidence {
				t.Fatalf("Analyze(%q).Confidence = %v, want >= %v", tc.input, got.Confidence, MinConfidence)
			}
		})
	}
}

func TestAnalyzeNoMatch(t *testing.T) {
	for _, input := range []string{"", "   ", "the weather is lovely today"} {
		got := Analyze(input)
		if got.Matched() {
			t.Fatalf("Analyze(%q) = %+v, want no-match sentinel", input, got)
		}
		if got.Confidence != 0 {
			t.Fatalf("Analyze(%q).Confidence = %v, want 0", input, got.Confidence)
		}
	}
}

func TestAnalyzeConfidenceBounded(t *testing.T) {
	// Short input stuffed with keywords and boosts would overflow without clamping.
	got := Analyze("pay upi")
	if got.Confidence > 1 {
		t.Fatalf("Confidence = %v, want <= 1", got.Confidence)
	}
	if !got.Matched() {
		t.Fatalf("expected a match, got %+v", got)
	}
}

func TestAnalyzeTieBreakPrefersFirstDeclared(t *testing.T) {
	// "payment failed" scores ticket_purchase ("pay" substring + "payment"
	// boost) and payment_issues equally once clamped; the earlier rule wins.
	got := Analyze("payment failed")
	if got.Label != LabelTicketPurchase {
		t.Fatalf("Label = %q, want %q (scores %v)", got.Label, LabelTicketPurchase, got.Scores)
	}
}

func TestExtractEntities(t *testing.T) {
	t.Run("payment method", func(t *testing.T) {
		m := Analyze("How do I buy tickets with UPI?")
		if m.Entities[EntityPaymentMethod] != "upi" {
			t.Fatalf("payment_method = %q, want %q (entities %v)", m.Entities[EntityPaymentMethod], "upi", m.Entities)
		}
	})

	t.Run("price", func(t *testing.T) {
		m := Analyze("Can I pay ₹1,500 for this ticket price?")
		if m.Entities[EntityPrice] != "1,500" {
			t.Fatalf("price = %q, want %q (entities %v)", m.Entities[EntityPrice], "1,500", m.Entities)
		}
	})

	t.Run("token id and totp", func(t *testing.T) {
		m := Analyze("Please validate ticket token id: 42abc using totp code 123456")
		if m.Label != LabelTicketValidation {
			t.Fatalf("Label = %q, want %q", m.Label, LabelTicketValidation)
		}
		if m.Entities[EntityTokenID] != "42abc" {
			t.Fatalf("token_id = %q, want %q", m.Entities[EntityTokenID], "42abc")
		}
		if m.Entities[EntityTOTPCode] != "123456" {
			t.Fatalf("totp_code = %q, want %q", m.Entities[EntityTOTPCode], "123456")
		}
	})
}
