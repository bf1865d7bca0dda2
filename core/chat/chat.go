// Package chat answers the help-desk widget with canned replies.
package chat

import "strings"

const Fallback = "I'm here to help! Could you please rephrase your question or choose one of the quick queries?"

type rule struct {
	keywords []string
	reply    string
}

// rules are checked in order; the first match wins.
var rules = []rule{
	{keywords: []string{"schedule"}, reply: "Your next class is on Friday at 19:00."},
	{keywords: []string{"payment"}, reply: "You can complete payments via the 'Payments' button on the homepage."},
	{keywords: []string{"level"}, reply: "Please take our placement test to determine your course level."},
	{keywords: []string{"let's go", "lets go"}, reply: "Let's Go is our Foundation Phase interactive course for beginners."},
}

// Request is the JSON body of a chat message.
type Request struct {
	Message string `json:"message" form:"message" validate:"max=1000"`
}

type Response struct {
	Response string `json:"response"`
}

// Reply matches message case-insensitively against the known keywords.
func Reply(message string) string {
	msg := strings.ToLower(message)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(msg, kw) {
				return r.reply
			}
		}
	}
	return Fallback
}
