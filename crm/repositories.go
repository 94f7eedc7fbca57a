package crm

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Contacts persists inbound leads
type Contacts interface {
	repository.Repository[*Contact]
	Create(ctx context.Context, record *Contact, criteria ...repository.InsertCriteria) (*Contact, error)
	List(ctx context.Context, status ContactStatus, limit, offset int) ([]*Contact, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status ContactStatus) error
	Remove(ctx context.Context, id uuid.UUID) error
}

// Feedbacks persists feedback entries
type Feedbacks interface {
	repository.Repository[*Feedback]
	Create(ctx context.Context, record *Feedback, criteria ...repository.InsertCriteria) (*Feedback, error)
	List(ctx context.Context, limit, offset int) ([]*Feedback, error)
}

// Projects persists portfolio entries
type Projects interface {
	repository.Repository[*Project]
	Create(ctx context.Context, record *Project, criteria ...repository.InsertCriteria) (*Project, error)
	GetBySlug(ctx context.Context, slug string) (*Project, error)
	ListPublished(ctx context.Context) ([]*Project, error)
	ListAll(ctx context.Context) ([]*Project, error)
}

// Testimonials persists client quotes
type Testimonials interface {
	repository.Repository[*Testimonial]
	Create(ctx context.Context, record *Testimonial, criteria ...repository.InsertCriteria) (*Testimonial, error)
	ListPublished(ctx context.Context) ([]*Testimonial, error)
	ListAll(ctx context.Context) ([]*Testimonial, error)
}

// RepositoryManager exposes all CRM repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Contacts() Contacts
	Feedbacks() Feedbacks
	Projects() Projects
	Testimonials() Testimonials
}

type mngr struct {
	db           *bun.DB
	contacts     Contacts
	feedbacks    Feedbacks
	projects     Projects
	testimonials Testimonials
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:           db,
		contacts:     NewContactsRepository(db),
		feedbacks:    NewFeedbacksRepository(db),
		projects:     NewProjectsRepository(db),
		testimonials: NewTestimonialsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.contacts == nil || m.feedbacks == nil || m.projects == nil || m.testimonials == nil {
		return errors.New("crm repositories should be initialized")
	}
	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Contacts() Contacts         { return m.contacts }
func (m mngr) Feedbacks() Feedbacks       { return m.feedbacks }
func (m mngr) Projects() Projects         { return m.projects }
func (m mngr) Testimonials() Testimonials { return m.testimonials }

type contacts struct {
	repository.Repository[*Contact]
	db *bun.DB
}

var _ Contacts = (*contacts)(nil)

func NewContactsRepository(db *bun.DB) Contacts {
	repo := repository.NewRepository[*Contact](db, repository.ModelHandlers[*Contact]{
		NewRecord: func() *Contact { return &Contact{} },
		GetID: func(c *Contact) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Contact, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &contacts{Repository: repo, db: db}
}

func (r *contacts) Create(ctx context.Context, record *Contact, criteria ...repository.InsertCriteria) (*Contact, error) {
	if record != nil {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		if record.Status == "" {
			record.Status = ContactStatusNew
		}
	}
	return r.Repository.CreateTx(ctx, r.db, record, criteria...)
}

func (r *contacts) List(ctx context.Context, status ContactStatus, limit, offset int) ([]*Contact, error) {
	var records []*Contact

	q := r.db.NewSelect().
		Model(&records).
		Order("created_at DESC")

	if status != "" {
		q = q.Where("?TableAlias.status = ?", status)
	}

	if limit > 0 {
		q = q.Limit(limit)
	}

	if offset > 0 {
		q = q.Offset(offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *contacts) Remove(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*Contact)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *contacts) UpdateStatus(ctx context.Context, id uuid.UUID, status ContactStatus) error {
	_, err := r.db.NewUpdate().
		Model((*Contact)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

type feedbacks struct {
	repository.Repository[*Feedback]
	db *bun.DB
}

var _ Feedbacks = (*feedbacks)(nil)

func NewFeedbacksRepository(db *bun.DB) Feedbacks {
	repo := repository.NewRepository[*Feedback](db, repository.ModelHandlers[*Feedback]{
		NewRecord: func() *Feedback { return &Feedback{} },
		GetID: func(f *Feedback) uuid.UUID {
			if f == nil {
				return uuid.Nil
			}
			return f.ID
		},
		SetID: func(f *Feedback, id uuid.UUID) {
			if f != nil {
				f.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &feedbacks{Repository: repo, db: db}
}

func (r *feedbacks) Create(ctx context.Context, record *Feedback, criteria ...repository.InsertCriteria) (*Feedback, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, r.db, record, criteria...)
}

func (r *feedbacks) List(ctx context.Context, limit, offset int) ([]*Feedback, error) {
	var records []*Feedback

	q := r.db.NewSelect().
		Model(&records).
		Order("created_at DESC")

	if limit > 0 {
		q = q.Limit(limit)
	}

	if offset > 0 {
		q = q.Offset(offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

type projects struct {
	repository.Repository[*Project]
	db *bun.DB
}

var _ Projects = (*projects)(nil)

func NewProjectsRepository(db *bun.DB) Projects {
	repo := repository.NewRepository[*Project](db, repository.ModelHandlers[*Project]{
		NewRecord: func() *Project { return &Project{} },
		GetID: func(p *Project) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Project, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "slug"
		},
	})

	return &projects{Repository: repo, db: db}
}

func (r *projects) Create(ctx context.Context, record *Project, criteria ...repository.InsertCriteria) (*Project, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, r.db, record, criteria...)
}

func (r *projects) GetBySlug(ctx context.Context, slug string) (*Project, error) {
	record := &Project{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.slug = ?", slug).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"slug": slug})
		}
		return nil, err
	}
	return record, nil
}

func (r *projects) ListPublished(ctx context.Context) ([]*Project, error) {
	return r.list(ctx, true)
}

func (r *projects) ListAll(ctx context.Context) ([]*Project, error) {
	return r.list(ctx, false)
}

func (r *projects) list(ctx context.Context, publishedOnly bool) ([]*Project, error) {
	var records []*Project

	q := r.db.NewSelect().
		Model(&records).
		Order("created_at DESC")

	if publishedOnly {
		q = q.Where("?TableAlias.published = ?", true)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

type testimonials struct {
	repository.Repository[*Testimonial]
	db *bun.DB
}

var _ Testimonials = (*testimonials)(nil)

func NewTestimonialsRepository(db *bun.DB) Testimonials {
	repo := repository.NewRepository[*Testimonial](db, repository.ModelHandlers[*Testimonial]{
		NewRecord: func() *Testimonial { return &Testimonial{} },
		GetID: func(t *Testimonial) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Testimonial, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "author"
		},
	})

	return &testimonials{Repository: repo, db: db}
}

func (r *testimonials) Create(ctx context.Context, record *Testimonial, criteria ...repository.InsertCriteria) (*Testimonial, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, r.db, record, criteria...)
}

func (r *testimonials) ListPublished(ctx context.Context) ([]*Testimonial, error) {
	return r.list(ctx, true)
}

func (r *testimonials) ListAll(ctx context.Context) ([]*Testimonial, error) {
	return r.list(ctx, false)
}

func (r *testimonials) list(ctx context.Context, publishedOnly bool) ([]*Testimonial, error) {
	var records []*Testimonial

	q := r.db.NewSelect().
		Model(&records).
		Order("created_at DESC")

	if publishedOnly {
		q = q.Where("?TableAlias.published = ?", true)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}
