package tts

import (
	"regexp"
	"strings"
)

// Pronunciation fixes for terms the synthesizer mangles on phone audio.
var acronymFixes = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\bHighIQ\b`), "High I Q"},
	{regexp.MustCompile(`\bAI\b`), "A I"},
	{regexp.MustCompile(`\bAPI\b`), "A P I"},
	{regexp.MustCompile(`\bCRM\b`), "C R M"},
	{regexp.MustCompile(`\bROI\b`), "R O I"},
	{regexp.MustCompile(`\bSaaS\b`), "Software as a Service"},
}

var (
	twentyFourSeven = regexp.MustCompile(`\b24/7\b`)
	percentNumber   = regexp.MustCompile(`\b(\d+)%`)
	strayChars      = regexp.MustCompile(`[^\w\s.,!?()'-]`)
	spaceRun        = regexp.MustCompile(`\s+`)
)

// PreprocessText rewrites raw reply text for clearer synthesis: acronyms
// are spelled out, numeric shorthand is expanded and characters that
// confuse the synthesizer are dropped.
func PreprocessText(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}
	for _, fix := range acronymFixes {
		s = fix.re.ReplaceAllString(s, fix.replacement)
	}
	s = twentyFourSeven.ReplaceAllString(s, "twenty four seven")
	s = percentNumber.ReplaceAllString(s, "$1 percent")
	s = strayChars.ReplaceAllString(s, "")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
