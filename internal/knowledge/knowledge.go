package knowledge

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CzPhantom10/Chromion-Hackathon/internal/intent"
)

//go:embed base.yaml
var baseYAML []byte

// maxSuggestions caps the list returned to the chat widget.
const maxSuggestions = 8

// Platform describes the marketplace itself.
type Platform struct {
	Name        string   `yaml:"name"`
	Tagline     string   `yaml:"tagline"`
	Description string   `yaml:"description"`
	Features    []string `yaml:"features"`
	KeyBenefits []string `yaml:"key_benefits"`
}

// Base is the static support knowledge loaded once at startup. It is
// read-only after Load.
type Base struct {
	Platform        Platform            `yaml:"platform"`
	Guides          map[string][]string `yaml:"guides"`
	Troubleshooting map[string][]string `yaml:"troubleshooting"`
	QuickReplies    map[string]string   `yaml:"quick_replies"`
	Fallback        string              `yaml:"fallback"`
	Suggestions     struct {
		Base             []string `yaml:"base"`
		WalletConnection []string `yaml:"wallet_connection"`
		TicketPurchase   []string `yaml:"ticket_purchase"`
	} `yaml:"suggestions"`
}

// Load parses the embedded knowledge document.
func Load() (*Base, error) {
	var b Base
	if err := yaml.Unmarshal(baseYAML, &b); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	if b.Platform.Name == "" || len(b.QuickReplies) == 0 || b.Fallback == "" {
		return nil, fmt.Errorf("knowledge base incomplete")
	}
	return &b, nil
}

// quickTopics maps matched intents to canned reply topics. Intents absent
// here (nft_marketplace, general_info) defer to the text generator.
var quickTopics = map[intent.Label]string{
	intent.LabelTicketPurchase:   "ticket_buying",
	intent.LabelTicketGeneration: "totp_explanation",
	intent.LabelTicketValidation: "totp_explanation",
	intent.LabelWalletConnection: "wallet_setup",
	intent.LabelPaymentIssues:    "payment_methods",
	intent.LabelTechnicalSupport: "troubleshooting",
}

// QuickReply returns the canned response for an intent, if one exists.
func (b *Base) QuickReply(label intent.Label) (string, bool) {
	topic, ok := quickTopics[label]
	if !ok {
		return "", false
	}
	text, ok := b.QuickReplies[topic]
	return text, ok
}

// Welcome is the greeting reply.
func (b *Base) Welcome() string { return b.QuickReplies["welcome"] }

var greetings = map[string]bool{
	"hello": true, "hi": true, "hey": true, "welcome": true,
	"namaste": true, "hola": true,
}

// IsGreeting reports whether the message opens a conversation. Matching is
// on whole words so "hi" does not trigger inside "this".
func IsGreeting(message string) bool {
	fields := strings.Fields(strings.ToLower(message))
	if len(fields) == 0 || len(fields) > 4 {
		return false
	}
	for _, f := range fields {
		if greetings[strings.Trim(f, ".,!?")] {
			return true
		}
	}
	return false
}

// ContextFor builds the knowledge snippets injected into the generator
// prompt for a detected intent.
func (b *Base) ContextFor(label intent.Label) []string {
	var parts []string
	add := func(header string, lines []string) {
		if len(lines) == 0 {
			return
		}
		parts = append(parts, header+"\n- "+strings.Join(lines, "\n- "))
	}

	switch label {
	case intent.LabelTicketPurchase:
		add("TICKET PURCHASE STEPS:", b.Guides["buying_tickets_inr"])
		add("PAYMENT TROUBLESHOOTING:", b.Troubleshooting["payments"])
	case intent.LabelTicketGeneration:
		add("TICKET GENERATION STEPS:", b.Guides["ticket_generation"])
	case intent.LabelTicketValidation:
		add("TICKET VALIDATION STEPS:", b.Guides["ticket_validation"])
		add("TICKET TROUBLESHOOTING:", b.Troubleshooting["tickets"])
	case intent.LabelWalletConnection:
		add("FIRST TIME SETUP:", b.Guides["first_time_setup"])
		add("WALLET TROUBLESHOOTING:", b.Troubleshooting["wallet"])
	case intent.LabelNFTMarketplace, intent.LabelGeneralInfo:
		add("PLATFORM BENEFITS:", b.Platform.KeyBenefits)
	case intent.LabelPaymentIssues:
		add("PAYMENT TROUBLESHOOTING:", b.Troubleshooting["payments"])
	case intent.LabelTechnicalSupport:
		add("WALLET TROUBLESHOOTING:", b.Troubleshooting["wallet"])
		add("PAYMENT TROUBLESHOOTING:", b.Troubleshooting["payments"])
		add("TICKET TROUBLESHOOTING:", b.Troubleshooting["tickets"])
	}
	return parts
}

// SuggestedQuestions returns up to eight example questions, biased by the
// last discussed topic.
func (b *Base) SuggestedQuestions(lastTopic intent.Label) []string {
	out := make([]string, 0, maxSuggestions)
	switch lastTopic {
	case intent.LabelWalletConnection:
		out = append(out, b.Suggestions.WalletConnection...)
	case intent.LabelTicketPurchase:
		out = append(out, b.Suggestions.TicketPurchase...)
	}
	for _, s := range b.Suggestions.Base {
		if len(out) >= maxSuggestions {
			break
		}
		out = append(out, s)
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}
