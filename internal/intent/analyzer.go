package intent

import (
	"regexp"
	"strings"
)

// Label identifies a classified user goal.
type Label string

const (
	// LabelNone is the no-match sentinel returned when no rule reaches
	// the confidence threshold.
	LabelNone Label = ""

	LabelTicketPurchase   Label = "ticket_purchase"
	LabelTicketGeneration Label = "ticket_generation"
	LabelTicketValidation Label = "ticket_validation"
	LabelWalletConnection Label = "wallet_connection"
	LabelNFTMarketplace   Label = "nft_marketplace"
	LabelPaymentIssues    Label = "payment_issues"
	LabelTechnicalSupport Label = "technical_support"
	LabelGeneralInfo      Label = "general_info"
)

// MinConfidence is the score a rule must reach for a match. Inputs below it
// are routed to the text-generation fallback.
const MinConfidence = 0.1

// Entity kinds extractable from free text.
const (
	EntityPrice         = "price"
	EntityPaymentMethod = "payment_method"
	EntityTokenID       = "token_id"
	EntityTOTPCode      = "totp_code"
)

// Match is the result of analyzing one message.
type Match struct {
	Label      Label             `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
	Scores     map[Label]float64 `json:"-"`
}

// Matched reports whether a rule reached the confidence threshold.
func (m Match) Matched() bool { return m.Label != LabelNone }

type rule struct {
	label    Label
	keywords []string
	boosts   []string
	entities []string
}

// Rules are evaluated in declaration order; on an exact score tie the rule
// declared first wins.
var rules = []rule{
	{
		label:    LabelTicketPurchase,
		keywords: []string{"buy ticket", "purchase ticket", "ticket price", "book ticket", "inr", "rupee", "pay"},
		boosts:   []string{"upi", "paytm", "credit card", "payment"},
		entities: []string{EntityPrice, EntityPaymentMethod},
	},
	{
		label:    LabelTicketGeneration,
		keywords: []string{"generate ticket", "create ticket", "mint ticket", "new ticket", "totp", "qr code"},
		boosts:   []string{"authenticator", "google authenticator", "secret key"},
		entities: []string{EntityTokenID},
	},
	{
		label:    LabelTicketValidation,
		keywords: []string{"validate ticket", "verify ticket", "check ticket", "authentication", "totp code"},
		boosts:   []string{"6 digit", "authenticator code", "validation failed"},
		entities: []string{EntityTokenID, EntityTOTPCode},
	},
	{
		label:    LabelWalletConnection,
		keywords: []string{"wallet", "metamask", "connect wallet", "wallet connection", "ethereum"},
		boosts:   []string{"can't connect", "connection failed", "wallet error"},
	},
	{
		label:    LabelNFTMarketplace,
		keywords: []string{"nft", "marketplace", "collection", "buy nft", "sell nft", "trade"},
		boosts:   []string{"opensea", "digital art", "collectible"},
		entities: []string{EntityPrice},
	},
	{
		label:    LabelPaymentIssues,
		keywords: []string{"payment failed", "transaction error", "payment not working", "can't pay"},
		boosts:   []string{"upi failed", "card declined", "payment timeout"},
		entities: []string{EntityPaymentMethod, EntityPrice},
	},
	{
		label:    LabelTechnicalSupport,
		keywords: []string{"error", "not working", "problem", "issue", "help", "stuck"},
		boosts:   []string{"browser", "mobile", "slow", "crashed"},
	},
	{
		label:    LabelGeneralInfo,
		keywords: []string{"what is", "how does", "explain", "about", "overview", "features"},
		boosts:   []string{"truepass", "blockchain", "crypto"},
	},
}

var (
	priceRe   = regexp.MustCompile(`(?:₹|rs\.?\s*)?(\d+(?:,\d+)+|\d+)`)
	tokenIDRe = regexp.MustCompile(`token\s*(?:id)?\s*:?\s*([a-z0-9]+)`)
	totpRe    = regexp.MustCompile(`\b(\d{6})\b`)
)

var paymentMethods = []string{"upi", "paytm", "credit card", "debit card", "net banking"}

// Analyze classifies free text into the best-matching intent, scoring each
// rule by case-insensitive substring overlap: keyword hits weigh 2, boost
// hits weigh 3, normalized by word count and clamped to [0, 1].
func Analyze(text string) Match {
	lower := strings.ToLower(strings.TrimSpace(text))
	words := len(strings.Fields(lower))
	if words == 0 {
		return Match{Label: LabelNone}
	}

	scores := make(map[Label]float64, len(rules))
	best := LabelNone
	bestScore := 0.0
	for _, r := range rules {
		score := float64(2*countHits(lower, r.keywords)+3*countHits(lower, r.boosts)) / float64(words)
		if score > 1 {
			score = 1
		}
		scores[r.label] = score
		// Strict > keeps the first-declared rule on exact ties.
		if score > bestScore {
			best, bestScore = r.label, score
		}
	}

	if best == LabelNone || bestScore < MinConfidence {
		return Match{Label: LabelNone, Scores: scores}
	}

	return Match{
		Label:      best,
		Confidence: bestScore,
		Entities:   extractEntities(lower, entitiesFor(best)),
		Scores:     scores,
	}
}

func entitiesFor(label Label) []string {
	for _, r := range rules {
		if r.label == label {
			return r.entities
		}
	}
	return nil
}

func countHits(s string, needles []string) int {
	n := 0
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			n++
		}
	}
	return n
}

func extractEntities(lower string, kinds []string) map[string]string {
	if len(kinds) == 0 {
		return nil
	}
	entities := make(map[string]string)
	for _, kind := range kinds {
		switch kind {
		case EntityPrice:
			if m := priceRe.FindStringSubmatch(lower); m != nil {
				entities[EntityPrice] = m[1]
			}
		case EntityPaymentMethod:
			for _, method := range paymentMethods {
				if strings.Contains(lower, method) {
					entities[EntityPaymentMethod] = method
					break
				}
			}
		case EntityTokenID:
			if m := tokenIDRe.FindStringSubmatch(lower); m != nil {
				entities[EntityTokenID] = m[1]
			}
		case EntityTOTPCode:
			if m := totpRe.FindStringSubmatch(lower); m != nil {
				entities[EntityTOTPCode] = m[1]
			}
		}
	}
	if len(entities) == 0 {
		return nil
	}
	return entities
}
