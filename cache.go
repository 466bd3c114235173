package agencykit

import (
	"sync"
	"time"
)

// ContentCache is an in-memory TTL cache of the published posts and
// projects that public pages render. Admin writes invalidate it.
type ContentCache struct {
	mu       sync.RWMutex
	posts    []BlogPost
	projects []Project
	fetched  time.Time
	ttl      time.Duration
	store    *Store
}

// NewContentCache creates a ContentCache backed by the given Store.
func NewContentCache(s *Store, ttl time.Duration) *ContentCache {
	return &ContentCache{store: s, ttl: ttl}
}

func (c *ContentCache) valid() bool {
	return c.posts != nil && c.projects != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.projects = nil
	c.mu.Unlock()
}

// ensureLoaded returns cached content after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is
// needed.
func (c *ContentCache) ensureLoaded() ([]BlogPost, []Project, error) {
	c.mu.RLock()
	if c.valid() {
		posts, projects := c.posts, c.projects
		c.mu.RUnlock()
		return posts, projects, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, c.projects, nil
	}
	posts, err := c.store.ListPosts()
	if err != nil {
		return nil, nil, err
	}
	projects, err := c.store.ListProjects()
	if err != nil {
		return nil, nil, err
	}
	if posts == nil {
		posts = []BlogPost{}
	}
	if projects == nil {
		projects = []Project{}
	}
	c.posts = posts
	c.projects = projects
	c.fetched = time.Now()
	return c.posts, c.projects, nil
}

// Posts returns published posts, most recent first.
func (c *ContentCache) Posts() ([]BlogPost, error) {
	posts, _, err := c.ensureLoaded()
	return posts, err
}

// Projects returns published projects ordered by name.
func (c *ContentCache) Projects() ([]Project, error) {
	_, projects, err := c.ensureLoaded()
	return projects, err
}

// PostBySlug returns a published post from the cache.
func (c *ContentCache) PostBySlug(slug string) (BlogPost, error) {
	posts, _, err := c.ensureLoaded()
	if err != nil {
		return BlogPost{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return BlogPost{}, ErrNotFound
}

// ProjectBySlug returns a published project from the cache.
func (c *ContentCache) ProjectBySlug(slug string) (Project, error) {
	_, projects, err := c.ensureLoaded()
	if err != nil {
		return Project{}, err
	}
	for _, p := range projects {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Project{}, ErrNotFound
}
