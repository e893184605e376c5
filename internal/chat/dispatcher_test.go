package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Topic
	}{
		{"How do I sell my license?", TopicSellProcess},
		{"how does the process work", TopicSellProcess},
		{"HOW DO I SELL", TopicSellProcess},
		{"What types of licenses do you buy?", TopicLicenseTypes},
		{"which license brands?", TopicLicenseTypes},
		{"How much is my license worth?", TopicValuation},
		{"what's the price", TopicValuation},
		{"How do I get paid?", TopicPayment},
		{"when do I get my money", TopicPayment},
		{"How long does it take?", TopicTimeline},
		{"is it fast", TopicTimeline},
		{"Is selling software licenses legal?", TopicLegal},
		{"is this legitimate", TopicLegal},
		{"How can I contact your team?", TopicSupport},
		{"can I talk to a human", TopicSupport},
		{"hello", TopicGreeting},
		{"Hey there", TopicGreeting},
		{"Tell me a joke", TopicFallback},
		{"", TopicFallback},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.input))
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	t.Parallel()

	// "how" plus "process" outranks the timeline keywords.
	assert.Equal(t, TopicSellProcess, Classify(QuestionHowLong))
	// "type" outranks "price".
	assert.Equal(t, TopicLicenseTypes, Classify("price for this type"))
	// Keywords match as substrings, so "this" contains "hi".
	assert.Equal(t, TopicGreeting, Classify("this"))
}

func TestClassifyAndRespondFallbackSwapsSuggestions(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(nil)

	reply, suggestions := d.ClassifyAndRespond("Tell me a joke")
	assert.True(t, reply.Fallback())
	assert.Equal(t, DefaultCatalog()[TopicFallback], reply.Text)
	assert.Equal(t, FallbackSuggestions(), suggestions)

	reply, suggestions = d.ClassifyAndRespond("how do I sell")
	assert.False(t, reply.Fallback())
	assert.Nil(t, suggestions)
}

func TestRespondToSuggestion(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(nil)

	for question, topic := range suggestionTopics {
		reply, suggestions := d.RespondToSuggestion(question)
		assert.Equal(t, topic, reply.Topic, question)
		assert.Nil(t, suggestions, question)
	}

	// The menu entry differs from the free text route.
	reply, _ := d.RespondToSuggestion(QuestionHowLong)
	assert.Equal(t, TopicTimeline, reply.Topic)

	// Anything else is classified like typed text.
	reply, suggestions := d.RespondToSuggestion("Tell me a joke")
	assert.Equal(t, TopicFallback, reply.Topic)
	assert.Equal(t, FallbackSuggestions(), suggestions)
}

func TestSuggestionMenusAreCovered(t *testing.T) {
	t.Parallel()

	for _, q := range append(InitialSuggestions(), FallbackSuggestions()...) {
		_, ok := suggestionTopics[q]
		require.True(t, ok, "no topic for %q", q)
	}
	assert.NotEqual(t, InitialSuggestions(), FallbackSuggestions())
}

func TestNewDispatcherMergesCatalog(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(Catalog{TopicPayment: "Cash only."})
	reply, _ := d.ClassifyAndRespond("When do I get paid?")
	assert.Equal(t, TopicPayment, reply.Topic)
	assert.Equal(t, "Cash only.", reply.Text)

	reply, _ = d.ClassifyAndRespond("Is this legal?")
	assert.Equal(t, TopicLegal, reply.Topic)
	assert.Equal(t, DefaultCatalog()[TopicLegal], reply.Text)

	for _, q := range append(InitialSuggestions(), FallbackSuggestions()...) {
		reply, _ := d.RespondToSuggestion(q)
		assert.NotEmpty(t, reply.Text, q)
	}
}
