package crm

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ContactStatus tracks where a lead sits in the follow up pipeline
type ContactStatus string

const (
	ContactStatusNew       ContactStatus = "new"
	ContactStatusContacted ContactStatus = "contacted"
	ContactStatusClosed    ContactStatus = "closed"
)

// Contact is an inbound lead from the public contact form
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:cnt"`
	ID            uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string        `bun:"name,notnull" json:"name,omitempty"`
	Email         string        `bun:"email,notnull" json:"email,omitempty"`
	Phone         string        `bun:"phone" json:"phone,omitempty"`
	Company       string        `bun:"company" json:"company,omitempty"`
	Message       string        `bun:"message,notnull" json:"message,omitempty"`
	Status        ContactStatus `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Feedback is an anonymous or attributed note from the feedback widget
type Feedback struct {
	bun.BaseModel `bun:"table:feedback,alias:fbk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name" json:"name,omitempty"`
	Email         string     `bun:"email" json:"email,omitempty"`
	Message       string     `bun:"message,notnull" json:"message,omitempty"`
	Rating        int        `bun:"rating" json:"rating,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Project is a portfolio entry rendered on the marketing site
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:prj"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Slug          string     `bun:"slug,notnull,unique" json:"slug,omitempty"`
	Summary       string     `bun:"summary" json:"summary,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	TechStack     string     `bun:"tech_stack" json:"tech_stack,omitempty"`
	Published     bool       `bun:"published" json:"published"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Testimonial is a client quote shown on the site
type Testimonial struct {
	bun.BaseModel `bun:"table:testimonials,alias:tst"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Author        string     `bun:"author,notnull" json:"author,omitempty"`
	Company       string     `bun:"company" json:"company,omitempty"`
	Quote         string     `bun:"quote,notnull" json:"quote,omitempty"`
	Published     bool       `bun:"published" json:"published"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
