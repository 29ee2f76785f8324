package api

import (
	"strings"
	"testing"
)

func TestVoiceResponseRender(t *testing.T) {
	resp := &VoiceResponse{}
	resp.Add(
		Say{Voice: "alice", Text: "Hello there"},
		Gather{Input: "speech", Timeout: 10, SpeechTimeout: "auto", Action: "/voice/process-speech", Method: "POST"},
		Say{Voice: "alice", Text: "Goodbye"},
		Hangup{},
	)

	out, err := resp.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	xml := string(out)

	if !strings.HasPrefix(xml, "<?xml") {
		t.Errorf("missing XML declaration: %q", xml[:40])
	}
	for _, want := range []string{
		`<Response>`,
		`<Say voice="alice">Hello there</Say>`,
		`<Gather input="speech" timeout="10" speechTimeout="auto" action="/voice/process-speech" method="POST"></Gather>`,
		`<Hangup>`,
		`</Response>`,
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("rendered TwiML missing %q in %q", want, xml)
		}
	}

	// Verbs must keep their insertion order.
	first := strings.Index(xml, "Hello there")
	second := strings.Index(xml, "<Gather")
	third := strings.Index(xml, "Goodbye")
	fourth := strings.Index(xml, "<Hangup")
	if !(first < second && second < third && third < fourth) {
		t.Errorf("verbs out of order: %q", xml)
	}
}

func TestVoiceResponseEscapesText(t *testing.T) {
	resp := &VoiceResponse{}
	resp.Add(Say{Voice: "alice", Text: `Costs < $100 & "worth it"`})

	out, err := resp.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(string(out), `< $100`) {
		t.Errorf("unescaped text in TwiML: %q", out)
	}
	if !strings.Contains(string(out), "&lt; $100 &amp;") {
		t.Errorf("escaped text missing: %q", out)
	}
}

func TestPauseOmitsZeroLength(t *testing.T) {
	resp := &VoiceResponse{}
	resp.Add(Pause{Length: 1}, Pause{})

	out, err := resp.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(string(out), `<Pause length="1">`) {
		t.Errorf("pause with length missing: %q", out)
	}
	if strings.Contains(string(out), `length="0"`) {
		t.Errorf("zero length serialized: %q", out)
	}
}
