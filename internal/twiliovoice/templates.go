package twiliovoice

import "fmt"

// DemoLinkMessage builds the SMS sent when a caller asks for a demo.
func DemoLinkMessage(demoVideoURL, bookingURL string) string {
	return fmt.Sprintf(`Hey! Thanks for calling HighIQ AI!

Watch our demo: %s

Book your free consultation: %s

We'll show you how to automate your customer service and save hours daily!

Questions? Just call us back.

- The HighIQ Team`, demoVideoURL, bookingURL)
}

// FollowUpMessage builds the follow-up SMS for callers who showed interest
// but did not book on the call.
func FollowUpMessage(customerName string) string {
	if customerName == "" {
		customerName = "there"
	}
	return fmt.Sprintf(`Hi %s! Thanks for your interest in HighIQ AI.

Check your messages and let's schedule that demo! Our AI can help you:
- Handle 80%% of inquiries automatically
- Save 60%% on support costs
- Work 24/7 without breaks

Call us back anytime for questions.`, customerName)
}

// ConfirmationMessage builds the short confirmation SMS.
func ConfirmationMessage(customerName string) string {
	if customerName == "" {
		customerName = "there"
	}
	return fmt.Sprintf(`Hi %s! Your HighIQ AI demo info is on the way.

We'll help you automate customer support and save time. Call back anytime with questions!`, customerName)
}
