package api

import "encoding/xml"

// TwiML verb structs rendered for Twilio voice webhooks. Verbs execute in
// document order, so VoiceResponse keeps them as an ordered list.

// VoiceResponse is the TwiML document root.
type VoiceResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

// Add appends verbs in execution order.
func (r *VoiceResponse) Add(verbs ...any) {
	r.Verbs = append(r.Verbs, verbs...)
}

// Render marshals the document with the XML declaration Twilio expects.
func (r *VoiceResponse) Render() ([]byte, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// Say speaks text with Twilio's built-in voices.
type Say struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

// Play streams an audio file URL to the caller.
type Play struct {
	XMLName xml.Name `xml:"Play"`
	URL     string   `xml:",chardata"`
}

// Pause waits silently for the given number of seconds.
type Pause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr,omitempty"`
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Gather collects caller speech and posts it to the action URL.
type Gather struct {
	XMLName         xml.Name `xml:"Gather"`
	Input           string   `xml:"input,attr,omitempty"`
	Timeout         int      `xml:"timeout,attr,omitempty"`
	SpeechTimeout   string   `xml:"speechTimeout,attr,omitempty"`
	Action          string   `xml:"action,attr,omitempty"`
	Method          string   `xml:"method,attr,omitempty"`
	Language        string   `xml:"language,attr,omitempty"`
	Hints           string   `xml:"hints,attr,omitempty"`
	SpeechModel     string   `xml:"speechModel,attr,omitempty"`
	ProfanityFilter string   `xml:"profanityFilter,attr,omitempty"`
}
