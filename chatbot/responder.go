// Package chatbot implements the keyword matcher behind the site's chat
// widget. Rules are evaluated in order and the first match wins, so put
// specific phrases before generic ones.
package chatbot

import "strings"

// Rule maps trigger keywords to a canned reply
type Rule struct {
	// Keywords are matched case insensitively against the message. Any hit
	// triggers the rule.
	Keywords []string
	Reply    string
}

// Responder answers chat messages from an ordered rule set
type Responder struct {
	rules    []Rule
	fallback string
}

// DefaultFallback is used when no rule matches and none was configured
const DefaultFallback = "Thanks for reaching out! Leave your email through our contact form and we will get back to you shortly."

// New builds a responder. A zero rule set is valid, every message gets the
// fallback.
func New(rules []Rule, fallback string) *Responder {
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &Responder{
		rules:    rules,
		fallback: fallback,
	}
}

// DefaultRules cover the questions the consultancy actually gets asked
func DefaultRules() []Rule {
	return []Rule{
		{
			Keywords: []string{"price", "pricing", "cost", "quote", "budget"},
			Reply:    "Project pricing depends on scope. Share a few details through the contact form and we will send you an estimate within two business days.",
		},
		{
			Keywords: []string{"service", "services", "offer", "do you do"},
			Reply:    "We build web applications, APIs, and cloud infrastructure, and we also take on audits and rescue projects. Check the services page for the full list.",
		},
		{
			Keywords: []string{"hire", "job", "career", "work with you"},
			Reply:    "We are always happy to hear from engineers. Send your details through the contact form and mention you are interested in joining.",
		},
		{
			Keywords: []string{"contact", "email", "phone", "reach"},
			Reply:    "The fastest way to reach us is the contact form on this site. We reply to every message.",
		},
		{
			Keywords: []string{"hello", "hi", "hey"},
			Reply:    "Hello! Ask me about our services, pricing, or how to get in touch.",
		},
	}
}

// Respond returns the reply for a message. Matching is case insensitive
// substring search over the ordered rules; the first matching rule wins.
func (r *Responder) Respond(message string) string {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return r.fallback
	}

	for _, rule := range r.rules {
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(normalized, strings.ToLower(keyword)) {
				return rule.Reply
			}
		}
	}

	return r.fallback
}
