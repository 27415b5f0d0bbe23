package services

import (
	"fmt"
	"strings"
	"unicode"

	"seo-assistant/cmd/seomock/repositories"
)

// FailMarker in a prompt makes the job fail, so clients can exercise the failure path.
const FailMarker = "#fail"

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "for": true, "of": true, "to": true,
	"my": true, "our": true, "with": true, "in": true, "on": true, "is": true, "please": true,
}

// Suggest builds a canned suggestion bundle from the prompt and the session title.
func Suggest(sessionTitle, prompt string) repositories.Suggestion {
	keywords := Keywords(prompt, 5)
	topic := sessionTitle
	if topic == "" || topic == defaultTitle {
		topic = GenerateTitle(prompt)
	}

	tag := topic
	if len(keywords) > 0 {
		tag = fmt.Sprintf("%s | %s", topic, strings.Join(keywords[:min(2, len(keywords))], ", "))
	}

	return repositories.Suggestion{
		PageTitle: topic,
		PageContent: fmt.Sprintf(
			"## %s\n\nOpen with a one-sentence answer to \"%s\". Follow with a short overview, "+
				"then one section per subtopic. Close with a clear call to action.",
			topic, strings.TrimSpace(prompt)),
		TitleTag:        truncateRunes(tag, 60),
		MetaDescription: truncateRunes(fmt.Sprintf("Learn about %s: practical guidance on %s.", topic, strings.Join(keywords, ", ")), 155),
		MetaKeywords:    keywords,
	}
}

// Keywords returns up to n distinct lowercase words of the prompt, stop words removed.
func Keywords(prompt string, n int) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '#'
	}) {
		if len(w) < 3 || stopWords[w] || strings.HasPrefix(w, "#") || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == n {
			break
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
