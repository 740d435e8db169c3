// Package intent classifies visitor messages into a closed set of intents.
package intent

import (
	"regexp"
	"strings"
	"unicode"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/pkg/intelligence/scoring"
)

const (
	// FallbackConfidence is reported for "other" results.
	FallbackConfidence = 0.3

	baseConfidence = 0.5
	perHitGain     = 0.15
	maxConfidence  = 0.95

	// Messages are classified on their first maxMessageRunes characters.
	maxMessageRunes = 4000
)

// Slot keys
const (
	SlotCompany  = "company"
	SlotBudget   = "budget"
	SlotEmail    = "email"
	SlotTimeline = "timeline"
	SlotTeamSize = "team_size"
	SlotRole     = "role"
)

type keyword struct {
	term   string
	weight float64
}

type rule struct {
	intentType string
	keywords   []keyword
}

// Rule order is also the tie-break order.
var defaultRules = []rule{
	{
		intentType: entity.IntentPricing,
		keywords: []keyword{
			{"how much", 2}, {"what does it cost", 2}, {"pricing", 2},
			{"price", 1}, {"prices", 1}, {"cost", 1}, {"costs", 1}, {"budget", 1},
			{"quote", 1}, {"fee", 1}, {"fees", 1}, {"rate", 1}, {"rates", 1},
			{"afford", 1}, {"expensive", 1}, {"roi", 1},
		},
	},
	{
		intentType: entity.IntentDemo,
		keywords: []keyword{
			{"book a demo", 2}, {"see it in action", 2}, {"show me", 2}, {"book a call", 2},
			{"schedule a call", 2}, {"demo", 1}, {"demonstration", 1}, {"trial", 1},
			{"walkthrough", 1}, {"meeting", 1}, {"try", 1},
		},
	},
	{
		intentType: entity.IntentWorkshop,
		keywords: []keyword{
			{"workshop", 2}, {"workshops", 2}, {"training", 1}, {"bootcamp", 1},
			{"course", 1}, {"upskill", 1}, {"teach", 1}, {"hands-on", 1},
		},
	},
	{
		intentType: entity.IntentConsulting,
		keywords: []keyword{
			{"help us", 2}, {"ai strategy", 2}, {"consulting", 2},
			{"consultant", 1}, {"strategy", 1}, {"roadmap", 1}, {"implement", 1},
			{"implementation", 1}, {"automate", 1}, {"automation", 1},
			{"transformation", 1}, {"advisory", 1}, {"project", 1},
		},
	},
	{
		intentType: entity.IntentTechnical,
		keywords: []keyword{
			{"how does", 2}, {"fine-tune", 2}, {"fine tuning", 2},
			{"api", 1}, {"integration", 1}, {"integrate", 1}, {"architecture", 1},
			{"model", 1}, {"llm", 1}, {"rag", 1}, {"latency", 1}, {"deploy", 1},
			{"deployment", 1}, {"security", 1}, {"gdpr", 1}, {"technical", 1},
			{"stack", 1}, {"database", 1}, {"kubernetes", 1}, {"python", 1},
		},
	},
}

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	budgetPattern   = regexp.MustCompile(`(?i)(?:[$€£]\s?\d[\d,]*(?:\.\d+)?\s?[km]?\b|\b\d[\d,]*(?:\.\d+)?\s?(?:k|m|thousand|million)?\s?(?:usd|eur|gbp|dollars|euros)\b)`)
	companyPattern  = regexp.MustCompile(`\b(?:at|from|for|with|called)\s+([A-Z][A-Za-z0-9&'\-]*(?:\s+[A-Z][A-Za-z0-9&'\-]*){0,3})`)
	timelinePattern = regexp.MustCompile(`(?i)\b(?:asap|immediately|(?:next|this)\s+(?:week|month|quarter|year)|(?:within|in)\s+\d+\s+(?:days?|weeks?|months?)|by\s+q[1-4])\b`)
	teamSizePattern = regexp.MustCompile(`(?i)\b(\d{1,6})\s+(?:people|employees|engineers|developers|staff)\b`)
	rolePattern     = regexp.MustCompile(`(?i)\b(?:i am|i'm|im|as)\s+(?:the\s+|a\s+|an\s+|our\s+)?(ceo|cto|cfo|coo|cio|cmo|co-founder|founder|(?:vp|head|director) of \w+|engineer|developer|product manager|data scientist|owner)\b`)
)

var companyStopwords = map[string]struct{}{
	"I": {}, "We": {}, "My": {}, "Our": {}, "The": {}, "This": {}, "That": {}, "A": {}, "An": {}, "It": {},
}

// Detector is a deterministic keyword classifier.
type Detector struct {
	rules []rule
}

func NewDetector() *Detector {
	return &Detector{rules: defaultRules}
}

// Detect classifies message. It never fails: empty or unmatched input yields
// the low-confidence "other" result.
func (d *Detector) Detect(message string) entity.IntentResult {
	message = limitRunes(strings.TrimSpace(message), maxMessageRunes)
	if message == "" {
		return Fallback()
	}

	normalized := normalizeText(message)
	tokens := tokenize(normalized)

	bestType := ""
	bestScore := 0.0
	for _, r := range d.rules {
		score := 0.0
		for _, kw := range r.keywords {
			if matches(kw.term, normalized, tokens) {
				score += kw.weight
			}
		}
		if score > bestScore {
			bestScore = score
			bestType = r.intentType
		}
	}

	if bestType == "" {
		return Fallback()
	}

	confidence := scoring.Clamp01(baseConfidence + perHitGain*bestScore)
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return entity.IntentResult{
		Type:       bestType,
		Confidence: confidence,
		Slots:      ExtractSlots(message),
	}
}

// Fallback is the result for messages without a usable signal.
func Fallback() entity.IntentResult {
	return entity.IntentResult{
		Type:       entity.IntentOther,
		Confidence: FallbackConfidence,
		Slots:      map[string]string{},
	}
}

// ExtractSlots pulls structured values out of free text.
func ExtractSlots(message string) map[string]string {
	slots := map[string]string{}

	if m := emailPattern.FindString(message); m != "" {
		slots[SlotEmail] = strings.ToLower(m)
	}
	if m := budgetPattern.FindString(message); m != "" {
		slots[SlotBudget] = strings.TrimSpace(m)
	}
	withoutEmails := emailPattern.ReplaceAllString(message, " ")
	for _, m := range companyPattern.FindAllStringSubmatch(withoutEmails, -1) {
		name := strings.TrimSpace(m[1])
		first := strings.Fields(name)[0]
		if _, stop := companyStopwords[first]; stop {
			continue
		}
		slots[SlotCompany] = name
		break
	}
	if m := timelinePattern.FindString(message); m != "" {
		slots[SlotTimeline] = strings.ToLower(m)
	}
	if m := teamSizePattern.FindStringSubmatch(message); m != nil {
		slots[SlotTeamSize] = m[1]
	}
	if m := rolePattern.FindStringSubmatch(message); m != nil {
		slots[SlotRole] = canonicalRole(m[1])
	}

	return slots
}

func canonicalRole(role string) string {
	role = strings.Join(strings.Fields(role), " ")
	if len(role) <= 3 {
		return strings.ToUpper(role)
	}
	return strings.ToLower(role)
}

func matches(term, normalized string, tokens map[string]struct{}) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(" "+normalized+" ", " "+term+" ")
	}
	_, ok := tokens[term]
	return ok
}

// normalizeText lowercases and collapses everything except letters, digits and
// hyphens into single spaces.
func normalizeText(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\'' {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func tokenize(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

func limitRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
