package convo

import (
	"reflect"
	"testing"

	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

func TestNextStage(t *testing.T) {
	tests := []struct {
		name         string
		ctx          models.ConversationContext
		farewell     bool
		messageCount int
		want         models.Stage
	}{
		{
			name: "closing is terminal",
			ctx:  models.ConversationContext{Stage: models.StageClosing, ServiceInterest: models.ServiceVoiceAgent},
			want: models.StageClosing,
		},
		{
			name:     "closing ignores farewell",
			ctx:      models.ConversationContext{Stage: models.StageClosing},
			farewell: true,
			want:     models.StageClosing,
		},
		{
			name:     "farewell closes from any open stage",
			ctx:      models.ConversationContext{Stage: models.StageDiscovery},
			farewell: true,
			want:     models.StageClosing,
		},
		{
			name:     "farewell outranks demo readiness",
			ctx:      models.ConversationContext{Stage: models.StageInformation, ReadyForDemo: true},
			farewell: true,
			want:     models.StageClosing,
		},
		{
			name: "interest moves greeting to discovery",
			ctx:  models.ConversationContext{Stage: models.StageGreeting, ServiceInterest: models.ServiceCustomerSupport},
			want: models.StageDiscovery,
		},
		{
			name: "interest outside greeting does not fire",
			ctx:  models.ConversationContext{Stage: models.StageInformation, ServiceInterest: models.ServiceCustomerSupport},
			want: models.StageInformation,
		},
		{
			name: "demo intent moves to information",
			ctx:  models.ConversationContext{Stage: models.StageDiscovery, CurrentIntent: models.IntentWantsDemo},
			want: models.StageInformation,
		},
		{
			name: "pricing intent moves to information",
			ctx:  models.ConversationContext{Stage: models.StageGreeting, CurrentIntent: models.IntentWantsPricing},
			want: models.StageInformation,
		},
		{
			name:         "stalled discovery moves to information",
			ctx:          models.ConversationContext{Stage: models.StageDiscovery},
			messageCount: 9,
			want:         models.StageInformation,
		},
		{
			name:         "discovery below threshold stays",
			ctx:          models.ConversationContext{Stage: models.StageDiscovery},
			messageCount: 8,
			want:         models.StageDiscovery,
		},
		{
			name: "demo ready closes",
			ctx:  models.ConversationContext{Stage: models.StageInformation, ReadyForDemo: true},
			want: models.StageClosing,
		},
		{
			name: "no transition keeps stage",
			ctx:  models.ConversationContext{Stage: models.StageGreeting},
			want: models.StageGreeting,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextStage(tt.ctx, tt.farewell, tt.messageCount); got != tt.want {
				t.Errorf("NextStage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObserveUtteranceSetsInterestOnce(t *testing.T) {
	rec := &Record{Context: models.ConversationContext{Stage: models.StageGreeting}}

	ObserveUtterance(rec, "We need help with customer support")
	if rec.Context.ServiceInterest != models.ServiceCustomerSupport {
		t.Fatalf("ServiceInterest = %q, want %q", rec.Context.ServiceInterest, models.ServiceCustomerSupport)
	}
	if rec.Context.Stage != models.StageDiscovery {
		t.Errorf("Stage = %q, want %q", rec.Context.Stage, models.StageDiscovery)
	}

	// A later utterance about a different service must not overwrite it.
	ObserveUtterance(rec, "Actually also the chatbot for the website")
	if rec.Context.ServiceInterest != models.ServiceCustomerSupport {
		t.Errorf("ServiceInterest changed to %q, want it to stay %q", rec.Context.ServiceInterest, models.ServiceCustomerSupport)
	}
}

func TestObserveUtteranceDeduplicatesPainPoints(t *testing.T) {
	rec := &Record{Context: models.ConversationContext{Stage: models.StageDiscovery}}

	ObserveUtterance(rec, "we are overwhelmed with tickets")
	ObserveUtterance(rec, "seriously overwhelmed and it is expensive")

	want := []models.PainPoint{models.PainHighVolume, models.PainCostConcerns}
	if !reflect.DeepEqual(rec.Context.KeyPoints, want) {
		t.Errorf("KeyPoints = %v, want %v", rec.Context.KeyPoints, want)
	}
}

func TestObserveUtteranceLatchesDemoReady(t *testing.T) {
	rec := &Record{Context: models.ConversationContext{Stage: models.StageDiscovery}}

	ObserveUtterance(rec, "show me a demo")
	if !rec.Context.ReadyForDemo {
		t.Fatal("ReadyForDemo not set after demo request")
	}
	if rec.Context.CurrentIntent != models.IntentWantsDemo {
		t.Errorf("CurrentIntent = %q, want %q", rec.Context.CurrentIntent, models.IntentWantsDemo)
	}

	// A follow-up concern changes the turn intent but keeps the latch.
	ObserveUtterance(rec, "i am worried about the setup effort")
	if rec.Context.CurrentIntent != models.IntentHasConcerns {
		t.Errorf("CurrentIntent = %q, want %q", rec.Context.CurrentIntent, models.IntentHasConcerns)
	}
	if !rec.Context.ReadyForDemo {
		t.Error("ReadyForDemo latch released by later intent")
	}
}
