package agencykit

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ErrNotFound is returned when a lookup by id or slug finds no row.
var ErrNotFound = sql.ErrNoRows

// Store wraps a SQLite database and provides CRUD operations for the
// site's content and intake entities.
type Store struct {
	db *sqlx.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the
// data directory exists, and applies pending schema migrations.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	// WAL for concurrent reads during writes, busy timeout so writers
	// queue instead of failing, sqlite time format so TIMESTAMP columns
	// round-trip through time.Time.
	db, err := sqlx.Connect("sqlite", fmt.Sprintf("%s?_time_format=sqlite&_journal=WAL&_timeout=5000&_fk=true", path))
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// uniqueSlug resolves base to a slug unique within table, appending -2,
// -3, ... on collision. excludeID exempts the row being updated.
func (s *Store) uniqueSlug(table, base string, excludeID int64) (string, error) {
	if base == "" {
		base = "untitled"
	}
	candidate := base
	for n := 1; ; n++ {
		if n > 1 {
			candidate = fmt.Sprintf("%s-%d", base, n)
		}
		var count int
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE slug = ? AND id <> ?`, table)
		if err := s.db.Get(&count, query, candidate, excludeID); err != nil {
			return "", fmt.Errorf("checking slug %q: %w", candidate, err)
		}
		if count == 0 {
			return candidate, nil
		}
	}
}

// --- Projects ---

// CreateProject inserts a project, deriving its slug from the name.
func (s *Store) CreateProject(p *Project) error {
	slug, err := s.uniqueSlug("projects", Slugify(p.Name), 0)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.Slug = slug
	p.CreatedAt = now
	p.UpdatedAt = now
	res, err := s.db.NamedExec(`
		INSERT INTO projects (name, short_description, what_special, long_description, url, published, slug, created_at, updated_at)
		VALUES (:name, :short_description, :what_special, :long_description, :url, :published, :slug, :created_at, :updated_at)`, p)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// UpdateProject saves a project. The slug is regenerated only when the
// name changed, so existing permalinks stay stable.
func (s *Store) UpdateProject(p *Project) error {
	prior, err := s.GetProject(p.ID)
	if err != nil {
		return err
	}
	p.Slug = prior.Slug
	if p.Name != prior.Name {
		slug, err := s.uniqueSlug("projects", Slugify(p.Name), p.ID)
		if err != nil {
			return err
		}
		p.Slug = slug
	}
	p.CreatedAt = prior.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	_, err = s.db.NamedExec(`
		UPDATE projects SET name = :name, short_description = :short_description, what_special = :what_special,
			long_description = :long_description, url = :url, published = :published, slug = :slug, updated_at = :updated_at
		WHERE id = :id`, p)
	if err != nil {
		return fmt.Errorf("updating project %d: %w", p.ID, err)
	}
	return nil
}

// GetProject returns a project by id regardless of published state.
func (s *Store) GetProject(id int64) (Project, error) {
	var p Project
	err := s.db.Get(&p, `SELECT * FROM projects WHERE id = ?`, id)
	return p, err
}

// GetProjectBySlug returns a published project by slug.
func (s *Store) GetProjectBySlug(slug string) (Project, error) {
	var p Project
	err := s.db.Get(&p, `SELECT * FROM projects WHERE slug = ? AND published = 1`, slug)
	return p, err
}

// ListProjects returns published projects ordered by name.
func (s *Store) ListProjects() ([]Project, error) {
	var out []Project
	err := s.db.Select(&out, `SELECT * FROM projects WHERE published = 1 ORDER BY name`)
	return out, err
}

// ListAllProjects returns every project in creation order (for admin).
func (s *Store) ListAllProjects() ([]Project, error) {
	var out []Project
	err := s.db.Select(&out, `SELECT * FROM projects ORDER BY created_at`)
	return out, err
}

// DeleteProject removes a project and its attachments.
func (s *Store) DeleteProject(id int64) error {
	return s.deleteOwned("projects", ownerProject, id)
}

// --- Blog posts ---

// CreatePost inserts a blog post, deriving the slug from the title and
// applying the publication and featured rules. Marking the new post
// featured clears the flag on every other post in the same transaction.
func (s *Store) CreatePost(p *BlogPost) error {
	slug, err := s.uniqueSlug("blog_posts", Slugify(p.Title), 0)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.Slug = slug
	p.CreatedAt = now
	p.UpdatedAt = now
	p.applyPublication(nil, now)

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.NamedExec(`
		INSERT INTO blog_posts (title, teaser, content, published, published_at, featured, slug, created_at, updated_at)
		VALUES (:title, :teaser, :content, :published, :published_at, :featured, :slug, :created_at, :updated_at)`, p)
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if p.Featured {
		if err := clearOtherFeatured(tx, id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing post insert: %w", err)
	}
	p.ID = id
	return nil
}

// UpdatePost saves a blog post. The slug is regenerated only when the
// title changed; PublishedAt follows the publication rules; setting
// featured clears it on all other posts atomically.
func (s *Store) UpdatePost(p *BlogPost) error {
	prior, err := s.GetPostAny(p.ID)
	if err != nil {
		return err
	}
	p.Slug = prior.Slug
	if p.Title != prior.Title {
		slug, err := s.uniqueSlug("blog_posts", Slugify(p.Title), p.ID)
		if err != nil {
			return err
		}
		p.Slug = slug
	}
	now := time.Now().UTC()
	p.CreatedAt = prior.CreatedAt
	p.UpdatedAt = now
	p.applyPublication(prior.PublishedAt, now)

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if p.Featured {
		if err := clearOtherFeatured(tx, p.ID); err != nil {
			return err
		}
	}
	_, err = tx.NamedExec(`
		UPDATE blog_posts SET title = :title, teaser = :teaser, content = :content, published = :published,
			published_at = :published_at, featured = :featured, slug = :slug, updated_at = :updated_at
		WHERE id = :id`, p)
	if err != nil {
		return fmt.Errorf("updating post %d: %w", p.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing post update: %w", err)
	}
	return nil
}

// FeaturePost marks one post as featured and clears the flag everywhere
// else, as a single atomic operation.
func (s *Store) FeaturePost(id int64) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if err := clearOtherFeatured(tx, id); err != nil {
		return err
	}
	res, err := tx.Exec(`UPDATE blog_posts SET featured = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("featuring post %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func clearOtherFeatured(tx *sqlx.Tx, id int64) error {
	if _, err := tx.Exec(`UPDATE blog_posts SET featured = 0 WHERE id <> ?`, id); err != nil {
		return fmt.Errorf("clearing featured flags: %w", err)
	}
	return nil
}

// GetPostAny returns a post by id regardless of published state.
func (s *Store) GetPostAny(id int64) (BlogPost, error) {
	var p BlogPost
	err := s.db.Get(&p, `SELECT * FROM blog_posts WHERE id = ?`, id)
	return p, err
}

// GetPostBySlug returns a published post by slug.
func (s *Store) GetPostBySlug(slug string) (BlogPost, error) {
	var p BlogPost
	err := s.db.Get(&p, `SELECT * FROM blog_posts WHERE slug = ? AND published = 1`, slug)
	return p, err
}

// ListPosts returns published posts, most recently published first.
func (s *Store) ListPosts() ([]BlogPost, error) {
	var out []BlogPost
	err := s.db.Select(&out, `SELECT * FROM blog_posts WHERE published = 1 ORDER BY published_at DESC`)
	return out, err
}

// ListAllPosts returns every post, newest first (for admin).
func (s *Store) ListAllPosts() ([]BlogPost, error) {
	var out []BlogPost
	err := s.db.Select(&out, `SELECT * FROM blog_posts ORDER BY created_at DESC, id DESC`)
	return out, err
}

// FeaturedPost returns the single featured published post, if any.
func (s *Store) FeaturedPost() (BlogPost, error) {
	var p BlogPost
	err := s.db.Get(&p, `SELECT * FROM blog_posts WHERE featured = 1 AND published = 1 LIMIT 1`)
	return p, err
}

// DeletePost removes a post and its attachments.
func (s *Store) DeletePost(id int64) error {
	return s.deleteOwned("blog_posts", ownerBlogPost, id)
}

// --- Messages ---

// CreateMessage inserts a contact-form message.
func (s *Store) CreateMessage(m *Message) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Read = false
	res, err := s.db.NamedExec(`
		INSERT INTO messages (name, email, subject, content, read, created_at, updated_at)
		VALUES (:name, :email, :subject, :content, :read, :created_at, :updated_at)`, m)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	m.ID, err = res.LastInsertId()
	return err
}

// ListMessages returns the most recent messages, capped at limit.
func (s *Store) ListMessages(limit int) ([]Message, error) {
	var out []Message
	err := s.db.Select(&out, `SELECT * FROM messages ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	return out, err
}

// GetMessage returns a message by id.
func (s *Store) GetMessage(id int64) (Message, error) {
	var m Message
	err := s.db.Get(&m, `SELECT * FROM messages WHERE id = ?`, id)
	return m, err
}

// SetMessageRead updates the read flag, the only admin-mutable field.
func (s *Store) SetMessageRead(id int64, read bool) (Message, error) {
	res, err := s.db.Exec(`UPDATE messages SET read = ?, updated_at = ? WHERE id = ?`, read, time.Now().UTC(), id)
	if err != nil {
		return Message{}, fmt.Errorf("updating message %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return Message{}, err
	} else if n == 0 {
		return Message{}, ErrNotFound
	}
	return s.GetMessage(id)
}

// DeleteMessage removes a message.
func (s *Store) DeleteMessage(id int64) error {
	return s.deleteByID("messages", id)
}

// --- Proposal requests ---

// CreateProposal inserts a proposal-intake record. Status always starts
// at submitted.
func (s *Store) CreateProposal(p *ProposalRequest) error {
	now := time.Now().UTC()
	p.Status = StatusSubmitted
	p.InternalNotes = ""
	p.CreatedAt = now
	p.UpdatedAt = now
	res, err := s.db.NamedExec(`
		INSERT INTO proposal_requests (name, email, company, phone, project_type, budget_range, timeline,
			project_description, existing_website, target_audience, special_requirements, why_custom,
			success_metrics, status, internal_notes, created_at, updated_at)
		VALUES (:name, :email, :company, :phone, :project_type, :budget_range, :timeline,
			:project_description, :existing_website, :target_audience, :special_requirements, :why_custom,
			:success_metrics, :status, :internal_notes, :created_at, :updated_at)`, p)
	if err != nil {
		return fmt.Errorf("inserting proposal: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// ListProposals returns the most recent proposals, capped at limit.
func (s *Store) ListProposals(limit int) ([]ProposalRequest, error) {
	var out []ProposalRequest
	err := s.db.Select(&out, `SELECT * FROM proposal_requests ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	return out, err
}

// GetProposal returns a proposal by id.
func (s *Store) GetProposal(id int64) (ProposalRequest, error) {
	var p ProposalRequest
	err := s.db.Get(&p, `SELECT * FROM proposal_requests WHERE id = ?`, id)
	return p, err
}

// UpdateProposalReview sets the admin-mutable review fields.
func (s *Store) UpdateProposalReview(id int64, status, internalNotes string) (ProposalRequest, error) {
	if !ValidProposalStatus(status) {
		return ProposalRequest{}, fmt.Errorf("proposal status %q: %w", status, errInvalidStatus)
	}
	res, err := s.db.Exec(`UPDATE proposal_requests SET status = ?, internal_notes = ?, updated_at = ? WHERE id = ?`,
		status, internalNotes, time.Now().UTC(), id)
	if err != nil {
		return ProposalRequest{}, fmt.Errorf("updating proposal %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return ProposalRequest{}, err
	} else if n == 0 {
		return ProposalRequest{}, ErrNotFound
	}
	return s.GetProposal(id)
}

// DeleteProposal removes a proposal.
func (s *Store) DeleteProposal(id int64) error {
	return s.deleteByID("proposal_requests", id)
}

var errInvalidStatus = errors.New("invalid status")

// --- shared delete helpers ---

func (s *Store) deleteByID(table string, id int64) error {
	res, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// deleteOwned removes a row and any attachment rows pointing at it.
func (s *Store) deleteOwned(table, ownerType string, id int64) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(`DELETE FROM attachments WHERE owner_type = ? AND owner_id = ?`, ownerType, id); err != nil {
		return fmt.Errorf("deleting attachments: %w", err)
	}
	return tx.Commit()
}
