// Package crisis flags messages that contain self-harm or suicide language.
package crisis

import "regexp"

// phrase pairs a label with the pattern that recognises it. Patterns are
// anchored on word boundaries so "die" never matches inside "diet".
type phrase struct {
	Label   string
	Pattern *regexp.Regexp
}

var phrases = []phrase{
	{"kill myself", regexp.MustCompile(`(?i)\bkill\s+myself\b`)},
	{"suicide", regexp.MustCompile(`(?i)\bsuicid(e|al)\b`)},
	{"end my life", regexp.MustCompile(`(?i)\bend\s+my\s+life\b`)},
	{"can't go on", regexp.MustCompile(`(?i)\bcan(['’]?t|\s?not)\s+go\s+on\b`)},
	{"harm myself", regexp.MustCompile(`(?i)\bharm\s+myself\b`)},
	{"want to die", regexp.MustCompile(`(?i)\bwant\s+to\s+die\b`)},
	{"overdose", regexp.MustCompile(`(?i)\boverdose\b`)},
	{"self-harm", regexp.MustCompile(`(?i)\bself[- ]harm\b`)},
	{"no reason to live", regexp.MustCompile(`(?i)\bno\s+reason\s+to\s+live\b`)},
}

// Detect reports whether text contains any crisis phrase.
func Detect(text string) bool {
	_, ok := Match(text)
	return ok
}

// Match returns the label of the first crisis phrase found in text.
func Match(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, p := range phrases {
		if p.Pattern.MatchString(text) {
			return p.Label, true
		}
	}
	return "", false
}

// labels returns the labels of every phrase in the set, in match order.
func labels() []string {
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = p.Label
	}
	return out
}
