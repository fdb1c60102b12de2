package crisis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"benign", "I had a great day", false},
		{"diet is not die", "I'm on a diet", false},
		{"upper case", "I want to DIE", true},
		{"kill myself", "sometimes I think I should kill myself", true},
		{"suicide", "I keep thinking about suicide", true},
		{"suicidal", "I feel Suicidal tonight", true},
		{"end my life", "I want to end my life", true},
		{"cant go on", "I can't go on like this", true},
		{"curly apostrophe", "I can’t go on", true},
		{"cannot go on", "I cannot go on anymore", true},
		{"harm myself", "I might harm myself", true},
		{"overdose", "thinking of an OVERDOSE", true},
		{"self-harm hyphen", "I have a history of self-harm", true},
		{"self harm space", "self harm again", true},
		{"no reason to live", "there's no reason to live", true},
		{"extra whitespace", "I want  to\tdie", true},
		{"overdosed is a different word", "the plants overdosed on fertiliser", false},
		{"suicides plural is not matched", "a film about suicides", false},
		{"harmony", "self harmony retreat", false},
		{"going on", "I can go on a trip", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Detect(tc.text))
		})
	}
}

func TestDetectEveryLabel(t *testing.T) {
	// Every label is itself a matching phrase, in any case.
	for _, label := range labels() {
		assert.True(t, Detect(label), label)
		assert.True(t, Detect(strings.ToUpper(label)), label)
		assert.True(t, Detect("well... "+label+"."), label)
	}
}

func TestMatchReturnsLabel(t *testing.T) {
	label, ok := Match("I want to end my life")
	assert.True(t, ok)
	assert.Equal(t, "end my life", label)

	label, ok = Match("nothing to see")
	assert.False(t, ok)
	assert.Empty(t, label)
}

func TestLabelsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, label := range labels() {
		assert.False(t, seen[label], "duplicate %q", label)
		seen[label] = true
	}
	assert.Len(t, seen, 9)
}
