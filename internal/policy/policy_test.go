package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySafeTopics(t *testing.T) {
	engine := NewEngine(nil)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"wifi", "What's the wifi password?", `Hi there! Wi-Fi: Network "Home-Guest", Password "StayHappy2025".`},
		{"check-in", "When is check-in?", "Hi there! Check-in is after 3pm. Smart-lock code arrives at 9am on arrival day."},
		{"check-out", "What time is check out tomorrow?", "Hi there! Check-out is 11am. Need extra time? I'll check availability."},
		{"parking", "Is there parking nearby?", "Hi there! Free on-street after 6pm; nearest paid car park is 2 min away on King St."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, autoOK, confidence := engine.Classify(tt.text, "")
			assert.Equal(t, tt.want, reply)
			assert.True(t, autoOK)
			assert.Equal(t, 0.95, confidence)
		})
	}
}

func TestClassifyUsesGuestName(t *testing.T) {
	engine := NewEngine(nil)

	reply, _, _ := engine.Classify("wifi?", "Alex")
	assert.Contains(t, reply, "Hi Alex!")
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	engine := NewEngine(nil)

	reply, autoOK, _ := engine.Classify("WIFI PASSWORD PLEASE", "")
	assert.NotEmpty(t, reply)
	assert.True(t, autoOK)
}

func TestClassifySensitiveTopics(t *testing.T) {
	engine := NewEngine(nil)

	for _, text := range []string{
		"Can I get a discount for a longer stay?",
		"I want a refund",
		"We noticed some damage to the sofa",
		"Will you price match the hotel next door?",
	} {
		reply, autoOK, confidence := engine.Classify(text, "")
		assert.Equal(t, "Thanks for reaching out! I've flagged this for a quick review and will get back shortly.", reply, text)
		assert.False(t, autoOK, text)
		assert.Equal(t, 0.8, confidence, text)
	}
}

func TestClassifyNoMatchDefersToGenerator(t *testing.T) {
	engine := NewEngine(nil)

	reply, autoOK, confidence := engine.Classify("Do you allow pets?", "")
	assert.Empty(t, reply)
	assert.False(t, autoOK)
	assert.Zero(t, confidence)
}

// A message matching both a safe rule and the sensitive pattern must take
// the safe rule: rules run strictly top to bottom, before the sensitive
// check.
func TestClassifyFirstMatchWins(t *testing.T) {
	engine := NewEngine(nil)

	reply, autoOK, confidence := engine.Classify(
		"Is early check-in possible? Also, any chance of a discount?", "")
	assert.Contains(t, reply, "Check-in is after 3pm")
	assert.True(t, autoOK)
	assert.Equal(t, 0.95, confidence)
}

// The configured rule order, not pattern specificity, is the tie-break.
func TestClassifyRuleOrderIsTheTieBreak(t *testing.T) {
	text := "internet access" // matches both the check-in and wi-fi patterns

	forward := NewEngine(DefaultRules())
	reply, _, _ := forward.Classify(text, "")
	assert.Contains(t, reply, "Check-in is after 3pm")

	rules := DefaultRules()
	rules[0], rules[2] = rules[2], rules[0]
	reversed := NewEngine(rules)
	reply, _, _ = reversed.Classify(text, "")
	assert.Contains(t, reply, "Wi-Fi")
}
