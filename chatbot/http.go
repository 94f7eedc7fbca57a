package chatbot

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-router"
)

// MessageRequest is the chat widget payload
type MessageRequest struct {
	Message string `form:"message" json:"message"`
}

// Validate will run validation rules
func (r MessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Message, validation.Required, validation.Length(1, 1000)),
	)
}

// RegisterRoutes wires the chat endpoint
func RegisterRoutes[T any](app router.Router[T], responder *Responder, path ...string) {
	route := "/api/chatbot"
	if len(path) > 0 && path[0] != "" {
		route = path[0]
	}

	app.Post(route, Handler(responder)).SetName("chatbot.message.post")
}

// Handler answers a single chat message
func Handler(responder *Responder) router.HandlerFunc {
	return func(ctx router.Context) error {
		payload := new(MessageRequest)

		if err := ctx.Bind(payload); err != nil {
			return ctx.JSON(router.StatusBadRequest, map[string]any{
				"error": "failed to parse request body",
			})
		}

		if err := payload.Validate(); err != nil {
			return ctx.JSON(router.StatusBadRequest, map[string]any{
				"error":      "validation failed",
				"validation": err,
			})
		}

		return ctx.JSON(router.StatusOK, map[string]any{
			"reply": responder.Respond(payload.Message),
		})
	}
}
