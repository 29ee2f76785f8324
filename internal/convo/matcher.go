// Package convo implements the conversation core of the voice agent: a
// per-call memory store, a phrase matcher that tags caller speech with
// service interest, pain points and intent, a stage machine, a system
// prompt composer, a response sanitizer, and the reply engine that ties
// them together around the chat model.
package convo

import (
	"regexp"
	"strings"

	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

// fillerWords strips hesitation noise that speech-to-text passes through.
var fillerWords = regexp.MustCompile(`\b(um|uh|ah|er)\b`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanUtterance lowercases the text, removes filler words and collapses
// whitespace so keyword matching sees a normalized transcript.
func CleanUtterance(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = fillerWords.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// servicePattern maps a service category to the phrases that signal it.
type servicePattern struct {
	service  models.ServiceInterest
	keywords []string
}

// servicePatterns are evaluated in order; the first category with a
// matching phrase wins.
var servicePatterns = []servicePattern{
	{models.ServiceCustomerSupport, []string{
		"customer support", "help desk", "support tickets", "customer service",
		"handling customers", "customer questions", "support team",
		"customer inquiries", "answering customers", "support calls",
	}},
	{models.ServiceSalesAutomation, []string{
		"sales", "lead generation", "qualify leads", "sales funnel",
		"booking appointments", "sales calls", "follow up leads",
		"convert leads", "sales process", "qualifying prospects",
	}},
	{models.ServiceWebsiteChatbot, []string{
		"chatbot", "chat agent", "website chat", "live chat",
		"chat on website", "automated chat", "web chat",
		"visitors chat", "website visitors",
	}},
	{models.ServiceVoiceAgent, []string{
		"voice agent", "phone calls", "call center", "phone support",
		"answering calls", "phone automation", "voice assistant",
		"automated calls", "phone bot",
	}},
	{models.ServiceAppointmentBooking, []string{
		"booking", "appointments", "scheduling", "calendar",
		"book meetings", "schedule calls", "appointment setting",
		"booking system", "calendar booking",
	}},
	{models.ServiceOrderProcessing, []string{
		"orders", "order processing", "e-commerce", "order status",
		"order management", "fulfillment", "order tracking",
		"process orders", "order handling",
	}},
}

type painPattern struct {
	pain     models.PainPoint
	triggers []string
}

// painPatterns is multi-valued: every matching category is collected.
var painPatterns = []painPattern{
	{models.PainHighVolume, []string{
		"lots of", "many", "hundreds", "thousands", "busy", "overwhelmed",
		"too many", "can't keep up", "swamped", "backed up",
	}},
	{models.PainCostConcerns, []string{
		"expensive", "cost", "budget", "save money", "cheaper",
		"affordable", "pricing", "costs too much", "expensive staff",
	}},
	{models.PainAvailability, []string{
		"24/7", "after hours", "nights", "weekends", "always available",
		"round the clock", "all day", "available always",
	}},
	{models.PainScaling, []string{
		"growing", "expanding", "scaling", "more customers",
		"business growing", "getting bigger", "need to scale",
	}},
	{models.PainManualWork, []string{
		"manual", "doing it myself", "time consuming", "repetitive",
		"manually handling", "doing by hand", "takes forever",
	}},
	{models.PainStaffing, []string{
		"hiring", "staff", "employees", "team members",
		"hard to find people", "training staff", "staff turnover",
	}},
}

type intentPattern struct {
	intent  models.Intent
	signals []string
}

// intentPatterns are ordered; the first matching intent wins for the turn.
var intentPatterns = []intentPattern{
	{models.IntentWantsDemo, []string{
		"demo", "show me", "see it work", "example", "how it works",
		"book", "schedule", "yes", "sure", "let's do it",
	}},
	{models.IntentWantsPricing, []string{
		"cost", "price", "how much", "pricing", "budget",
	}},
	{models.IntentReadyToMove, []string{
		"next steps", "get started", "sign up", "when can we",
		"sounds good", "interested",
	}},
	{models.IntentNeedsInfo, []string{
		"tell me more", "explain", "how does", "what exactly", "details",
	}},
	{models.IntentHasConcerns, []string{
		"but", "however", "worried", "concern", "problem with", "what if",
	}},
}

var farewellTokens = []string{"thank", "bye", "goodbye"}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// MatchServiceInterest returns the first service category whose phrases
// appear in the cleaned utterance, or "" when none match.
func MatchServiceInterest(cleaned string) models.ServiceInterest {
	for _, sp := range servicePatterns {
		if containsAny(cleaned, sp.keywords) {
			return sp.service
		}
	}
	return ""
}

// MatchPainPoints returns every pain point signalled by the cleaned
// utterance, in table order.
func MatchPainPoints(cleaned string) []models.PainPoint {
	var found []models.PainPoint
	for _, pp := range painPatterns {
		if containsAny(cleaned, pp.triggers) {
			found = append(found, pp.pain)
		}
	}
	return found
}

// MatchIntent returns the first intent signalled by the cleaned utterance,
// or "" when none match.
func MatchIntent(cleaned string) models.Intent {
	for _, ip := range intentPatterns {
		if containsAny(cleaned, ip.signals) {
			return ip.intent
		}
	}
	return ""
}

// IsFarewell reports whether the cleaned utterance contains a goodbye token.
func IsFarewell(cleaned string) bool {
	return containsAny(cleaned, farewellTokens)
}
