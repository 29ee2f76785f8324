package email

import "fmt"

// demoEmailTemplate renders the demo invitation as HTML and plain text.
func demoEmailTemplate(customerName, bookingURL, businessNeeds string) (html, text string) {
	name := customerName
	if name == "" {
		name = "there"
	}
	needs := ""
	if businessNeeds != "" {
		needs = fmt.Sprintf("<p>We understand you're looking for: %q</p>", businessNeeds)
	}

	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Your HighIQ AI Demo</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #667eea; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1 style="margin: 0;">Your HighIQ AI Demo</h1>
    <p style="margin: 10px 0 0 0;">Let's transform your business with AI automation</p>
  </div>
  <div style="background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px;">
    <p style="font-size: 18px;">Hi %s!</p>
    <p>Thank you for your interest in HighIQ AI! We're excited to show you how our AI automation can transform your business operations.</p>
    %s
    <div style="background: white; padding: 25px; border-radius: 8px; border-left: 4px solid #667eea; margin: 25px 0;">
      <h3 style="color: #667eea; margin-top: 0;">Book Your Demo Slot</h3>
      <p>Choose a time that works best for you. Our demos are personalized and typically last 20-30 minutes.</p>
      <div style="text-align: center; margin: 25px 0;">
        <a href="%s" style="background: #667eea; color: white; padding: 15px 30px; text-decoration: none; border-radius: 25px; font-weight: bold; display: inline-block;">Book My Demo Now</a>
      </div>
    </div>
    <p>Questions before the demo? Just reply to this email or call us back.</p>
    <p>- The HighIQ AI Team</p>
  </div>
</body>
</html>`, name, needs, bookingURL)

	textNeeds := ""
	if businessNeeds != "" {
		textNeeds = fmt.Sprintf("\n\nWe understand you're looking for: %q", businessNeeds)
	}
	text = fmt.Sprintf(`Hi %s!

Thank you for your interest in HighIQ AI! We're excited to show you how our AI automation can transform your business operations.%s

Book your demo slot here: %s

Our demos are personalized and typically last 20-30 minutes.

Questions before the demo? Just reply to this email or call us back.

- The HighIQ AI Team`, name, textNeeds, bookingURL)

	return html, text
}

// confirmationEmailTemplate renders the booking confirmation.
func confirmationEmailTemplate(customerName, meetingTime, meetingURL, eventName string) (html, text string) {
	name := customerName
	if name == "" {
		name = "there"
	}
	if eventName == "" {
		eventName = "HighIQ AI Demo"
	}
	joinLine := ""
	if meetingURL != "" {
		joinLine = fmt.Sprintf(`<p>Join link: <a href="%s">%s</a></p>`, meetingURL, meetingURL)
	}

	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Demo Confirmed</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #28a745; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1 style="margin: 0;">Demo Confirmed!</h1>
  </div>
  <div style="background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px;">
    <p style="font-size: 18px;">Hi %s!</p>
    <p>Your %s is scheduled for <strong>%s</strong>.</p>
    %s
    <p>We'll walk you through exactly how AI automation fits your business. See you there!</p>
    <p>- The HighIQ AI Team</p>
  </div>
</body>
</html>`, name, eventName, meetingTime, joinLine)

	textJoin := ""
	if meetingURL != "" {
		textJoin = fmt.Sprintf("\nJoin link: %s\n", meetingURL)
	}
	text = fmt.Sprintf(`Hi %s!

Your %s is scheduled for %s.
%s
We'll walk you through exactly how AI automation fits your business. See you there!

- The HighIQ AI Team`, name, eventName, meetingTime, textJoin)

	return html, text
}
