package crm

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"

	webcore "github.com/veridianlabs/webcore"
)

// DefaultPhoneRegion is used when a submitted phone number has no country code
var DefaultPhoneRegion = "US"

// ControllerRoutes are the endpoints the CRM controller registers
type ControllerRoutes struct {
	Contacts     string
	Feedback     string
	Projects     string
	Testimonials string
}

// Controller serves the CRM JSON API. Lead capture endpoints are public, the
// management endpoints require an admin principal.
type Controller struct {
	Logger     webcore.Logger
	Repo       RepositoryManager
	Routes     *ControllerRoutes
	ContextKey string
}

type ControllerOption func(*Controller) *Controller

func WithControllerRepo(repo RepositoryManager) ControllerOption {
	return func(c *Controller) *Controller {
		c.Repo = repo
		return c
	}
}

func WithControllerLogger(logger webcore.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		c.Logger = logger
		return c
	}
}

func WithControllerContextKey(key string) ControllerOption {
	return func(c *Controller) *Controller {
		c.ContextKey = key
		return c
	}
}

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		ContextKey: "user",
		Routes: &ControllerRoutes{
			Contacts:     "/api/contacts",
			Feedback:     "/api/feedback",
			Projects:     "/api/projects",
			Testimonials: "/api/testimonials",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in crm controller...")
	}

	return c
}

// RegisterRoutes wires the CRM endpoints. The protected middleware guards the
// management surface; lead capture and the published catalog stay public.
func RegisterRoutes[T any](app router.Router[T], protected router.MiddlewareFunc, opts ...ControllerOption) *Controller {
	c := NewController(opts...)

	app.Post(c.Routes.Contacts, c.ContactCreate).SetName("crm.contacts.post")
	app.Post(c.Routes.Feedback, c.FeedbackCreate).SetName("crm.feedback.post")
	app.Get(c.Routes.Projects, c.ProjectList).SetName("crm.projects.get")
	app.Get(c.Routes.Testimonials, c.TestimonialList).SetName("crm.testimonials.get")

	app.Get(c.Routes.Contacts, protected(c.ContactList)).SetName("crm.contacts.get")
	app.Post(c.Routes.Contacts+"/:id/status", protected(c.ContactUpdateStatus)).SetName("crm.contacts.status.post")
	app.Delete(c.Routes.Contacts+"/:id", protected(c.ContactDelete)).SetName("crm.contacts.delete")
	app.Get(c.Routes.Feedback, protected(c.FeedbackList)).SetName("crm.feedback.get")
	app.Post(c.Routes.Projects, protected(c.ProjectCreate)).SetName("crm.projects.post")
	app.Post(c.Routes.Testimonials, protected(c.TestimonialCreate)).SetName("crm.testimonials.post")

	return c
}

// ContactRequest is the public lead capture payload
type ContactRequest struct {
	Name    string `form:"name" json:"name"`
	Email   string `form:"email" json:"email"`
	Phone   string `form:"phone" json:"phone"`
	Company string `form:"company" json:"company"`
	Message string `form:"message" json:"message"`
}

// Validate will run validation rules
func (r ContactRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Message, validation.Required, validation.Length(1, 5000)),
		validation.Field(&r.Company, validation.Length(0, 200)),
	)
}

// NormalizedPhone parses and formats the phone number to E.164. Empty input
// stays empty; an unparseable number is a validation error.
func (r ContactRequest) NormalizedPhone() (string, error) {
	if r.Phone == "" {
		return "", nil
	}

	num, err := phonenumbers.Parse(r.Phone, DefaultPhoneRegion)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryBadInput, "invalid phone number").
			WithTextCode("BAD_PHONE")
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", errors.New("invalid phone number", errors.CategoryBadInput).
			WithTextCode("BAD_PHONE")
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func (c *Controller) ContactCreate(ctx router.Context) error {
	payload := new(ContactRequest)

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

	phone, err := payload.NormalizedPhone()
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error":      "validation failed",
			"validation": map[string]string{"phone": "invalid phone number"},
		})
	}

	record := &Contact{
		Name:    payload.Name,
		Email:   payload.Email,
		Phone:   phone,
		Company: payload.Company,
		Message: payload.Message,
	}

	created, err := c.Repo.Contacts().Create(ctx.Context(), record)
	if err != nil {
		c.logError("contact create failed", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]any{
			"error": "unable to save contact",
		})
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"contact": created,
	})
}

// FeedbackRequest is the public feedback payload
type FeedbackRequest struct {
	Name    string `form:"name" json:"name"`
	Email   string `form:"email" json:"email"`
	Message string `form:"message" json:"message"`
	Rating  int    `form:"rating" json:"rating"`
}

// Validate will run validation rules
func (r FeedbackRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Message, validation.Required, validation.Length(1, 5000)),
		validation.Field(&r.Rating, validation.Min(0), validation.Max(5)),
		validation.Field(&r.Email, is.Email),
	)
}

func (c *Controller) FeedbackCreate(ctx router.Context) error {
	payload := new(FeedbackRequest)

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

	record := &Feedback{
		Name:    payload.Name,
		Email:   payload.Email,
		Message: payload.Message,
		Rating:  payload.Rating,
	}

	created, err := c.Repo.Feedbacks().Create(ctx.Context(), record)
	if err != nil {
		c.logError("feedback create failed", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]any{
			"error": "unable to save feedback",
		})
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"feedback": created,
	})
}

func (c *Controller) ContactList(ctx router.Context) error {
	if err := c.requireAdmin(ctx); err != nil {
		return c.forbid(ctx)
	}

	status := ContactStatus(ctx.Query("status", ""))

	records, err := c.Repo.Contacts().List(ctx.Context(), status, 100, 0)
	if err != nil {
		c.logError("contact list failed", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]any{
			"error": "unable to list contacts",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"contacts": records,
	})
}

// ContactStatusRequest moves a lead through the pipeline
type ContactStatusRequest struct {
	Status string `form:"status" json:"status"`
}

// Validate will run validation rules
func (r ContactStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Status,
			validation.Required,
			validation.In(
				string(ContactStatusNew),
				string(ContactStatusContacted),
				string(ContactStatusClosed),
			),
		),
	)
}

func (c *Controller) ContactUpdateStatus(ctx router.Context) error {
	if err := c.requireAdmin(ctx); err != nil {
		return c.forbid(ctx)
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "invalid contact id",
		})
	}

	payload := new(ContactStatusRequest)
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

	if err := c.Repo.Contacts().UpdateStatus(ctx.Context(), id, ContactStatus(payload.Status)); err != nil {
		c.logError("contact status update failed", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]any{
			"error": "unable to update contact",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
	})
}

func (c *Controller) ContactDelete(ctx router.Context) error {
	if err := c.requireAdmin(ctx); err != nil {
		return c.forbid(ctx)
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "invalid contact id",
		})
	}

	if err := c.Repo.Contacts().Remove(ctx.Context(), id); err != nil {
		c.logError("contact delete failed", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]any{
			"error": "unable to delete contact",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
	})
}

func (c *Controller) FeedbackList(ctx router.Context) error {
	if err := c.requireAdmin(ctx); err != nil {
		return c.forbid(ctx)
	}

	records, err := c.Repo.Feedbacks().List(ctx.Context(), 100, 0)
	if err != nil {
		c.logError("feedback list failed", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]any{
			"error": "unable to list feedback",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"feedback": records,
	})
}

// ProjectRequest creates or updates a portfolio entry
type ProjectRequest struct {
	Title       string `form:"title" json:"title"`
	Slug        string `form:"slug" json:"slug"`
	Summary     string `form:"summary" json:"summary"`
	Description string `form:"description" json:"description"`
	TechStack   string `form:"tech_stack" json:"tech_stack"`
	Published   bool   `form:"published" json:"published"`
}

// Validate will run validation rules
func (r ProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Slug, validation.Required, validation.Length(1, 200)),
	)
}

func (c *Controller) ProjectList(ctx router.Context) error {
	records, err := c.Repo.Projects().ListPublished(ctx.Context())
	if err != nil {
		c.logError("project list failed", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]any{
			"error": "unable to list projects",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"projects": records,
	})
}

func (c *Controller) ProjectCreate(ctx router.Context) error {
	if err := c.requireAdmin(ctx); err != nil {
		return c.forbid(ctx)
	}

	payload := new(ProjectRequest)
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

	record := &Project{
		Title:       payload.Title,
		Slug:        payload.Slug,
		Summary:     payload.Summary,
		Description: payload.Description,
		TechStack:   payload.TechStack,
		Published:   payload.Published,
	}

	created, err := c.Repo.Projects().Create(ctx.Context(), record)
	if err != nil {
		c.logError("project create failed", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]any{
			"error": "unable to save project",
		})
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"project": created,
	})
}

// TestimonialRequest creates a client quote
type TestimonialRequest struct {
	Author    string `form:"author" json:"author"`
	Company   string `form:"company" json:"company"`
	Quote     string `form:"quote" json:"quote"`
	Published bool   `form:"published" json:"published"`
}

// Validate will run validation rules
func (r TestimonialRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Author, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Quote, validation.Required, validation.Length(1, 2000)),
	)
}

func (c *Controller) TestimonialList(ctx router.Context) error {
	records, err := c.Repo.Testimonials().ListPublished(ctx.Context())
	if err != nil {
		c.logError("testimonial list failed", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]any{
			"error": "unable to list testimonials",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"testimonials": records,
	})
}

func (c *Controller) TestimonialCreate(ctx router.Context) error {
	if err := c.requireAdmin(ctx); err != nil {
		return c.forbid(ctx)
	}

	payload := new(TestimonialRequest)
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

	record := &Testimonial{
		Author:    payload.Author,
		Company:   payload.Company,
		Quote:     payload.Quote,
		Published: payload.Published,
	}

	created, err := c.Repo.Testimonials().Create(ctx.Context(), record)
	if err != nil {
		c.logError("testimonial create failed", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]any{
			"error": "unable to save testimonial",
		})
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"testimonial": created,
	})
}

// requireAdmin checks the request principal can manage CRM records
func (c *Controller) requireAdmin(ctx router.Context) error {
	principal, err := webcore.GetRouterPrincipal(ctx, c.ContextKey)
	if err != nil {
		return err
	}

	if !principal.IsAtLeast(webcore.RoleAdmin) {
		return errors.New("insufficient role for CRM management", errors.CategoryAuthz).
			WithCode(errors.CodeForbidden)
	}

	return nil
}

func (c *Controller) forbid(ctx router.Context) error {
	return ctx.JSON(router.StatusForbidden, map[string]any{
		"error": "insufficient permissions",
	})
}

func (c *Controller) logError(msg string, err error) {
	if c.Logger != nil {
		c.Logger.Error(msg, "error", err)
	}
}
