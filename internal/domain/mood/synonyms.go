package mood

import "strings"

// synonyms maps an emotion to the tags that also express it.
// Lookups go both ways: a tag may be the key and the emotion a synonym.
var synonyms = map[string][]string{
	"happy":     {"joyful", "cheerful", "upbeat", "positive"},
	"sad":       {"melancholic", "emotional", "heartbreak", "lonely", "grief"},
	"calm":      {"relaxed", "peaceful", "meditation", "sleep", "focus"},
	"energetic": {"motivated", "active", "workout", "exercise", "pump"},
	"stressed":  {"anxious", "tense", "worried"},
	"tired":     {"exhausted", "sleepy", "drowsy"},
	"angry":     {"frustrated", "irritated", "mad"},
	"bored":     {"uninterested", "dull"},
}

// Matches reports whether tag expresses emotion, directly or through the synonym table.
func Matches(emotion Emotion, tag string) bool {
	t := strings.ToLower(strings.TrimSpace(tag))
	e := strings.ToLower(string(emotion))
	if t == "" || e == "" {
		return false
	}
	if t == e {
		return true
	}
	for _, s := range synonyms[e] {
		if s == t {
			return true
		}
	}
	for _, s := range synonyms[t] {
		if s == e {
			return true
		}
	}
	return false
}

// MatchesAny reports whether any of tags expresses emotion.
func MatchesAny(emotion Emotion, tags []string) bool {
	for _, t := range tags {
		if Matches(emotion, t) {
			return true
		}
	}
	return false
}

// IsMoodTag reports whether tag belongs to the emotion vocabulary or the synonym table.
func IsMoodTag(tag string) bool {
	t := strings.ToLower(strings.TrimSpace(tag))
	for _, e := range Vocabulary {
		if string(e) == t {
			return true
		}
	}
	if _, ok := synonyms[t]; ok {
		return true
	}
	for _, values := range synonyms {
		for _, s := range values {
			if s == t {
				return true
			}
		}
	}
	return false
}
