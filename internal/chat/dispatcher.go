// Package chat implements the scripted assistant behind the landing page
// chat widget: a keyword dispatcher over canned replies, the per-tab chat
// session, and its HTTP, SSE and WebSocket transports.
package chat

import (
	"strings"
)

// Suggestion prompts offered as one-click questions.
const (
	QuestionSell    = "How do I sell my license?"
	QuestionTypes   = "What types of licenses do you buy?"
	QuestionWorth   = "How much is my license worth?"
	QuestionHowLong = "How long does the process take?"
	QuestionGetPaid = "How do I get paid?"
	QuestionLegal   = "Is selling software licenses legal?"
	QuestionContact = "How can I contact your team?"
)

// InitialSuggestions returns the suggestion menu shown to a new session.
func InitialSuggestions() []string {
	return []string{QuestionSell, QuestionTypes, QuestionWorth, QuestionHowLong, QuestionGetPaid}
}

// FallbackSuggestions returns the menu that replaces the initial one after
// the first unmatched question.
func FallbackSuggestions() []string {
	return []string{QuestionSell, QuestionTypes, QuestionWorth, QuestionLegal, QuestionContact}
}

// suggestionTopics maps every canonical prompt of both menus to its reply.
var suggestionTopics = map[string]Topic{
	QuestionSell:    TopicSellProcess,
	QuestionTypes:   TopicLicenseTypes,
	QuestionWorth:   TopicValuation,
	QuestionHowLong: TopicTimeline,
	QuestionGetPaid: TopicPayment,
	QuestionLegal:   TopicLegal,
	QuestionContact: TopicSupport,
}

// rule is one row of the dispatch table. Match receives lower-cased input.
type rule struct {
	topic Topic
	match func(input string) bool
}

func containsAny(input string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(input, n) {
			return true
		}
	}
	return false
}

// rules is evaluated top-down; the first match wins.
var rules = []rule{
	{TopicSellProcess, func(s string) bool {
		return strings.Contains(s, "how") && containsAny(s, "sell", "process")
	}},
	{TopicLicenseTypes, func(s string) bool {
		return containsAny(s, "type", "what license", "which license")
	}},
	{TopicValuation, func(s string) bool {
		return containsAny(s, "price", "worth", "value", "how much")
	}},
	{TopicPayment, func(s string) bool {
		return containsAny(s, "payment", "paid", "money")
	}},
	{TopicTimeline, func(s string) bool {
		return containsAny(s, "how long", "time", "duration", "fast")
	}},
	{TopicLegal, func(s string) bool {
		return containsAny(s, "legal", "compliance", "allowed", "legitimate")
	}},
	{TopicSupport, func(s string) bool {
		return containsAny(s, "contact", "support", "human", "person")
	}},
	{TopicGreeting, func(s string) bool {
		return containsAny(s, "hello", "hi", "hey")
	}},
}

// Reply is a canned answer chosen by the dispatcher.
type Reply struct {
	Topic Topic  `json:"topic"`
	Text  string `json:"text"`
}

// Fallback reports whether the reply came from the unmatched branch.
func (r Reply) Fallback() bool {
	return r.Topic == TopicFallback
}

// Dispatcher maps free text to canned replies. It holds no per-conversation
// state and is safe for concurrent use.
type Dispatcher struct {
	catalog Catalog
}

// NewDispatcher creates a dispatcher over the given catalog. Topics missing
// from catalog fall back to the default texts.
func NewDispatcher(catalog Catalog) *Dispatcher {
	return &Dispatcher{catalog: DefaultCatalog().Merge(catalog)}
}

// Classify returns the topic for input without building a reply.
func Classify(input string) Topic {
	lowered := strings.ToLower(input)
	for _, r := range rules {
		if r.match(lowered) {
			return r.topic
		}
	}
	return TopicFallback
}

// ClassifyAndRespond picks the reply for free text input. When no rule
// matches it returns the fallback reply together with the suggestion menu
// that must replace the current one; otherwise suggestions is nil.
func (d *Dispatcher) ClassifyAndRespond(input string) (reply Reply, suggestions []string) {
	topic := Classify(input)
	reply = d.reply(topic)
	if topic == TopicFallback {
		suggestions = FallbackSuggestions()
	}
	return reply, suggestions
}

// RespondToSuggestion answers a click on a suggestion. Canonical prompts are
// matched exactly; anything else is treated as free text.
func (d *Dispatcher) RespondToSuggestion(question string) (reply Reply, suggestions []string) {
	if topic, ok := suggestionTopics[question]; ok {
		return d.reply(topic), nil
	}
	return d.ClassifyAndRespond(question)
}

func (d *Dispatcher) reply(topic Topic) Reply {
	return Reply{Topic: topic, Text: d.catalog[topic]}
}
