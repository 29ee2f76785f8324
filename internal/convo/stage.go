package convo

import (
	"log/slog"

	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

// discoveryStallThreshold is the message count past which a conversation
// still in discovery is pushed toward concrete information.
const discoveryStallThreshold = 8

// NextStage evaluates the stage transition for one utterance. farewell is
// whether the caller said goodbye, messageCount is the history length before
// the utterance is appended. Transitions are checked in precedence order and
// at most one fires; closing is terminal and never regresses. A farewell
// outranks demo readiness so a caller saying goodbye is not re-pitched.
func NextStage(ctx models.ConversationContext, farewell bool, messageCount int) models.Stage {
	if ctx.Stage == models.StageClosing {
		return models.StageClosing
	}
	switch {
	case farewell:
		return models.StageClosing
	case ctx.ServiceInterest != "" && ctx.Stage == models.StageGreeting:
		return models.StageDiscovery
	case ctx.CurrentIntent == models.IntentWantsDemo || ctx.CurrentIntent == models.IntentWantsPricing:
		return models.StageInformation
	case messageCount > discoveryStallThreshold && ctx.Stage == models.StageDiscovery:
		return models.StageInformation
	case ctx.ReadyForDemo:
		return models.StageClosing
	default:
		return ctx.Stage
	}
}

// ObserveUtterance folds one caller utterance into the record's context:
// service interest is set once, pain points accumulate without duplicates,
// the turn's intent replaces the previous one, ReadyForDemo latches on
// strong interest, and the stage machine advances.
func ObserveUtterance(rec *Record, utterance string) {
	cleaned := CleanUtterance(utterance)

	if rec.Context.ServiceInterest == "" {
		if svc := MatchServiceInterest(cleaned); svc != "" {
			rec.Context.ServiceInterest = svc
			slog.Debug("convo.ObserveUtterance: service interest identified", "service", svc)
		}
	}

	for _, pain := range MatchPainPoints(cleaned) {
		if !rec.Context.HasKeyPoint(pain) {
			rec.Context.KeyPoints = append(rec.Context.KeyPoints, pain)
			slog.Debug("convo.ObserveUtterance: pain point identified", "painPoint", pain)
		}
	}

	if intent := MatchIntent(cleaned); intent != "" {
		rec.Context.CurrentIntent = intent
		if intent == models.IntentWantsDemo || intent == models.IntentReadyToMove {
			rec.Context.ReadyForDemo = true
		}
		slog.Debug("convo.ObserveUtterance: intent detected", "intent", intent, "readyForDemo", rec.Context.ReadyForDemo)
	}

	rec.Context.Stage = NextStage(rec.Context, IsFarewell(cleaned), len(rec.Messages))
	slog.Debug("convo.ObserveUtterance: context updated",
		"stage", rec.Context.Stage,
		"messages", len(rec.Messages),
		"readyForDemo", rec.Context.ReadyForDemo)
}
