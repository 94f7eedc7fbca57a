package chatbot_test

import (
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veridianlabs/webcore/chatbot"
)

func TestResponder_FirstMatchWins(t *testing.T) {
	responder := chatbot.New([]chatbot.Rule{
		{Keywords: []string{"price"}, Reply: "pricing answer"},
		{Keywords: []string{"service"}, Reply: "services answer"},
	}, "")

	// message hits both rules, the earlier one wins
	assert.Equal(t, "pricing answer", responder.Respond("what is the price of your service?"))
}

func TestResponder_CaseInsensitive(t *testing.T) {
	responder := chatbot.New(chatbot.DefaultRules(), "")

	lower := responder.Respond("how much does a project cost?")
	upper := responder.Respond("HOW MUCH DOES A PROJECT COST?")

	assert.NotEqual(t, chatbot.DefaultFallback, lower)
	assert.Equal(t, lower, upper)
}

func TestResponder_Fallback(t *testing.T) {
	t.Run("default fallback", func(t *testing.T) {
		responder := chatbot.New(chatbot.DefaultRules(), "")
		assert.Equal(t, chatbot.DefaultFallback, responder.Respond("completely unrelated question"))
	})

	t.Run("custom fallback", func(t *testing.T) {
		responder := chatbot.New(nil, "try the contact form")
		assert.Equal(t, "try the contact form", responder.Respond("anything at all"))
	})

	t.Run("empty message gets fallback", func(t *testing.T) {
		responder := chatbot.New(chatbot.DefaultRules(), "")
		assert.Equal(t, chatbot.DefaultFallback, responder.Respond("   "))
	})
}

func TestResponder_DefaultRulesCoverage(t *testing.T) {
	responder := chatbot.New(chatbot.DefaultRules(), "")

	for message, wantFallback := range map[string]bool{
		"do you have pricing info?":   false,
		"what services do you offer?": false,
		"I want to work with you":     false,
		"how can I reach your team?":  false,
		"hello there":                 false,
		"tell me about your dog":      true,
	} {
		reply := responder.Respond(message)
		if wantFallback {
			assert.Equal(t, chatbot.DefaultFallback, reply, "message %q", message)
		} else {
			assert.NotEqual(t, chatbot.DefaultFallback, reply, "message %q", message)
		}
	}
}

func TestMessageRequestValidate(t *testing.T) {
	assert.Error(t, chatbot.MessageRequest{}.Validate())
	assert.NoError(t, chatbot.MessageRequest{Message: "hi"}.Validate())
}

func TestHandler(t *testing.T) {
	responder := chatbot.New(chatbot.DefaultRules(), "")
	handler := chatbot.Handler(responder)

	t.Run("answers a valid message", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("Bind", mock.AnythingOfType("*chatbot.MessageRequest")).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*chatbot.MessageRequest)
			payload.Message = "what do you charge?"
		}).Return(nil)

		var body map[string]any
		ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1).(map[string]any)
		}).Return(nil).Once()

		require.NoError(t, handler(ctx))
		assert.NotEmpty(t, body["reply"])
	})

	t.Run("rejects an empty message", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("Bind", mock.AnythingOfType("*chatbot.MessageRequest")).Return(nil)
		ctx.On("JSON", router.StatusBadRequest, mock.Anything).Return(nil).Once()

		require.NoError(t, handler(ctx))
		ctx.AssertExpectations(t)
	})
}
