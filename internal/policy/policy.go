package policy

import (
	"fmt"
	"regexp"
)

// Rule pairs a topic pattern with its canned answer. Rules are evaluated in
// slice order and the first match wins; ordering is the tie-break, not
// specificity.
type Rule struct {
	Pattern *regexp.Regexp
	Reply   string
}

func DefaultRules() []Rule {
	return []Rule{
		{
			Pattern: regexp.MustCompile(`(?i)\bcheck[\s-]?in|arrival|access\b`),
			Reply:   "Check-in is after 3pm. Smart-lock code arrives at 9am on arrival day.",
		},
		{
			Pattern: regexp.MustCompile(`(?i)\bcheck[\s-]?out|departure\b`),
			Reply:   "Check-out is 11am. Need extra time? I'll check availability.",
		},
		{
			Pattern: regexp.MustCompile(`(?i)\bwi[-\s]?fi|internet\b`),
			Reply:   `Wi-Fi: Network "Home-Guest", Password "StayHappy2025".`,
		},
		{
			Pattern: regexp.MustCompile(`(?i)\bparking|car park\b`),
			Reply:   "Free on-street after 6pm; nearest paid car park is 2 min away on King St.",
		},
	}
}

var sensitivePattern = regexp.MustCompile(
	`(?i)\b(refund|discount|compensat|damage|exception|special offer|price match)\b`)

const escalationReply = "Thanks for reaching out! I've flagged this for a quick review and will get back shortly."

// Engine decides whether an inbound message gets a templated reply, an
// escalation acknowledgment, or is deferred to the generative fallback.
type Engine struct {
	rules     []Rule
	sensitive *regexp.Regexp
}

func NewEngine(rules []Rule) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Engine{
		rules:     rules,
		sensitive: sensitivePattern,
	}
}

// Classify returns the proposed reply, whether it is safe to auto-send, and
// a confidence score. An empty reply with zero confidence means "defer to
// the generative collaborator". The escalation acknowledgment is never
// auto-sendable. Safe rules run before the sensitive check; the rule list
// must be curated not to overlap sensitive vocabulary.
func (e *Engine) Classify(text, guestName string) (string, bool, float64) {
	if guestName == "" {
		guestName = "there"
	}
	for _, rule := range e.rules {
		if rule.Pattern.MatchString(text) {
			return fmt.Sprintf("Hi %s! %s", guestName, rule.Reply), true, 0.95
		}
	}
	if e.sensitive.MatchString(text) {
		return escalationReply, false, 0.8
	}
	return "", false, 0
}
