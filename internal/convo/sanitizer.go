package convo

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

// maxSpokenLen is the character budget for a spoken reply, roughly 25-30
// words. Longer replies are cut back to whole sentences.
const maxSpokenLen = 150

var markdownChars = regexp.MustCompile(`[*#]`)

// taggedPattern pairs a diagnostic tag with its regexp so filter tables
// stay data, not control flow.
type taggedPattern struct {
	tag string
	re  *regexp.Regexp
}

// bannedPhrases are model outputs overused enough to sound canned on a
// call. A match swaps the reply for a context-appropriate question.
var bannedPhrases = []taggedPattern{
	{"stock-24x7-pitch", regexp.MustCompile(`(?i)sounds like you need 24/7 ai support`)},
	{"stock-volume-pitch", regexp.MustCompile(`(?i)most of our clients with high customer volume`)},
	{"stock-80pct-pitch", regexp.MustCompile(`(?i)handle 80% of common questions automatically`)},
	{"stock-results-pitch", regexp.MustCompile(`(?i)see great results with our voice agents`)},
	{"stock-help-question", regexp.MustCompile(`(?i)how specifically can we help you`)},
	{"stock-80pct-short", regexp.MustCompile(`(?i)our voice agents handle 80%`)},
	{"stock-24x7-inquiries", regexp.MustCompile(`(?i)24/7 ai support to handle customer inquiries`)},
	{"email-ask-whats", regexp.MustCompile(`(?i)what's your email`)},
	{"email-ask-get", regexp.MustCompile(`(?i)can i get your email`)},
	{"email-ask-send", regexp.MustCompile(`(?i)send you an email`)},
}

// emailSolicitations catch any remaining attempt to collect an email
// address. Demo delivery is SMS to the caller's own number, never email.
var emailSolicitations = []taggedPattern{
	{"email-what", regexp.MustCompile(`(?i)what.*email`)},
	{"email-your", regexp.MustCompile(`(?i)your email`)},
	{"email-address", regexp.MustCompile(`(?i)email address`)},
	{"email-send", regexp.MustCompile(`(?i)send.*email`)},
	{"email-you", regexp.MustCompile(`(?i)email you`)},
}

// greetingRepeats catch the model re-introducing itself after the call is
// already underway.
var greetingRepeats = []taggedPattern{
	{"greet-hi-alex", regexp.MustCompile(`(?i)^hi,?\s*(i'm|i am)\s*alex`)},
	{"greet-hello-alex", regexp.MustCompile(`(?i)^hello,?\s*(i'm|i am)\s*alex`)},
	{"greet-hi-there", regexp.MustCompile(`(?i)^hi\s*there`)},
	{"greet-help-today", regexp.MustCompile(`(?i)how\s*can\s*i\s*help\s*(you\s*)?today`)},
	{"greet-welcome", regexp.MustCompile(`(?i)welcome\s*to\s*highiq`)},
}

// Canned replacements spoken instead of filtered output.
const (
	replyDemoPromise    = "Perfect! I'm texting you the demo video and booking link right now!"
	replyDemoAsk        = "Want to see a quick demo?"
	replyVolumeQuestion = "How many customers contact you daily?"
	replyDiscoveryOpen  = "What's your biggest time-waster right now?"
	replySMSOnlyDemo    = "Perfect! I'm texting you the demo link right now!"
	replyRedirect       = "What's eating up most of your time?"
)

func matchTag(text string, patterns []taggedPattern) (string, bool) {
	for _, p := range patterns {
		if p.re.MatchString(text) {
			return p.tag, true
		}
	}
	return "", false
}

// Sanitize normalizes a raw model reply into something safe to speak on a
// call. messageCount is the history length including the caller turn that
// prompted the reply. The second return value is true when an email
// solicitation was replaced, which also means the caller should be treated
// as demo-ready from now on.
func Sanitize(raw string, ctx models.ConversationContext, messageCount int) (string, bool) {
	reply := markdownChars.ReplaceAllString(raw, "")
	reply = whitespaceRun.ReplaceAllString(reply, " ")
	reply = strings.TrimSpace(reply)
	forceDemoReady := false

	if tag, hit := matchTag(reply, bannedPhrases); hit {
		slog.Debug("convo.Sanitize: blocked overused phrase", "pattern", tag, "reply", reply)
		switch {
		case ctx.ReadyForDemo:
			reply = replyDemoPromise
		case messageCount > 6:
			reply = replyDemoAsk
		case ctx.ServiceInterest != "":
			reply = replyVolumeQuestion
		default:
			reply = replyDiscoveryOpen
		}
	}

	if tag, hit := matchTag(reply, emailSolicitations); hit {
		slog.Debug("convo.Sanitize: blocked email solicitation", "pattern", tag, "reply", reply)
		reply = replySMSOnlyDemo
		forceDemoReady = true
	}

	if tag, hit := matchTag(reply, greetingRepeats); hit && messageCount > 2 {
		slog.Debug("convo.Sanitize: blocked repeated greeting", "pattern", tag, "reply", reply)
		reply = replyRedirect
	}

	if len(reply) > maxSpokenLen {
		slog.Debug("convo.Sanitize: truncating long reply", "length", len(reply))
		reply = truncateToSentences(reply, maxSpokenLen)
	}

	return reply, forceDemoReady
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// truncateToSentences keeps whole sentences up to limit characters. The
// first sentence is always kept even if it alone exceeds the limit, so the
// reply never ends mid-thought.
func truncateToSentences(text string, limit int) string {
	parts := sentenceSplit.Split(text, -1)
	var sentences []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return text
	}
	result := sentences[0]
	for _, s := range sentences[1:] {
		candidate := result + ". " + s
		if len(candidate) > limit {
			break
		}
		result = candidate
	}
	if !strings.HasSuffix(result, ".") {
		result += "."
	}
	return result
}
