package agencykit

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testProject(name string) *Project {
	return &Project{
		Name:             name,
		ShortDescription: "A short pitch.",
		LongDescription:  "The long story.",
	}
}

func testPost(title string) *BlogPost {
	return &BlogPost{
		Title:   title,
		Teaser:  "A teaser.",
		Content: "Body text.",
	}
}

func TestProjectCRUD(t *testing.T) {
	s := newTestStore(t)

	p := testProject("Harbor Rebrand")
	p.Published = true
	require.NoError(t, s.CreateProject(p))
	assert.NotZero(t, p.ID)
	assert.Equal(t, "harbor-rebrand", p.Slug)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := s.GetProjectBySlug("harbor-rebrand")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	// Drafts are invisible to slug lookups.
	draft := testProject("Quiet Draft")
	require.NoError(t, s.CreateProject(draft))
	_, err = s.GetProjectBySlug("quiet-draft")
	assert.ErrorIs(t, err, ErrNotFound)

	got.ShortDescription = "Updated pitch."
	require.NoError(t, s.UpdateProject(&got))
	again, err := s.GetProject(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated pitch.", again.ShortDescription)
	assert.Equal(t, got.CreatedAt.Unix(), again.CreatedAt.Unix())

	require.NoError(t, s.DeleteProject(p.ID))
	_, err = s.GetProject(p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteProject(p.ID), ErrNotFound)
}

func TestProjectSlugStableUnlessNameChanges(t *testing.T) {
	s := newTestStore(t)

	p := testProject("Harbor Rebrand")
	require.NoError(t, s.CreateProject(p))

	p.ShortDescription = "New pitch, same name."
	require.NoError(t, s.UpdateProject(p))
	assert.Equal(t, "harbor-rebrand", p.Slug)

	p.Name = "Harbor Relaunch"
	require.NoError(t, s.UpdateProject(p))
	assert.Equal(t, "harbor-relaunch", p.Slug)
}

func TestSlugCollisionsGetNumericSuffix(t *testing.T) {
	s := newTestStore(t)

	for i, want := range []string{"harbor", "harbor-2", "harbor-3"} {
		p := testProject("Harbor")
		require.NoError(t, s.CreateProject(p), "create %d", i)
		assert.Equal(t, want, p.Slug)
	}
}

func TestListProjectsOnlyPublished(t *testing.T) {
	s := newTestStore(t)

	pub := testProject("Shown")
	pub.Published = true
	require.NoError(t, s.CreateProject(pub))
	require.NoError(t, s.CreateProject(testProject("Hidden")))

	visible, err := s.ListProjects()
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "Shown", visible[0].Name)

	all, err := s.ListAllProjects()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPostPublicationTimestamps(t *testing.T) {
	s := newTestStore(t)

	p := testPost("Launch Notes")
	require.NoError(t, s.CreatePost(p))
	assert.Nil(t, p.PublishedAt)

	p.Published = true
	require.NoError(t, s.UpdatePost(p))
	require.NotNil(t, p.PublishedAt)
	first := *p.PublishedAt

	// Republishing must not move the original timestamp.
	p.Teaser = "Edited teaser."
	require.NoError(t, s.UpdatePost(p))
	require.NotNil(t, p.PublishedAt)
	assert.Equal(t, first.Unix(), p.PublishedAt.Unix())

	p.Published = false
	require.NoError(t, s.UpdatePost(p))
	assert.Nil(t, p.PublishedAt)

	// Publishing again after an unpublish gets a fresh timestamp.
	time.Sleep(1100 * time.Millisecond)
	p.Published = true
	require.NoError(t, s.UpdatePost(p))
	require.NotNil(t, p.PublishedAt)
	assert.True(t, p.PublishedAt.After(first))
}

func TestPostSlugRegeneratedOnTitleChange(t *testing.T) {
	s := newTestStore(t)

	p := testPost("Launch Notes")
	require.NoError(t, s.CreatePost(p))
	assert.Equal(t, "launch-notes", p.Slug)

	p.Content = "Rewritten body."
	require.NoError(t, s.UpdatePost(p))
	assert.Equal(t, "launch-notes", p.Slug)

	p.Title = "Launch Retrospective"
	require.NoError(t, s.UpdatePost(p))
	assert.Equal(t, "launch-retrospective", p.Slug)
}

func TestAtMostOneFeaturedPost(t *testing.T) {
	s := newTestStore(t)

	a := testPost("First")
	a.Published = true
	a.Featured = true
	require.NoError(t, s.CreatePost(a))

	b := testPost("Second")
	b.Published = true
	b.Featured = true
	require.NoError(t, s.CreatePost(b))

	countFeatured := func() int {
		posts, err := s.ListAllPosts()
		require.NoError(t, err)
		n := 0
		for _, p := range posts {
			if p.Featured {
				n++
			}
		}
		return n
	}

	assert.Equal(t, 1, countFeatured())
	got, err := s.FeaturedPost()
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	require.NoError(t, s.FeaturePost(a.ID))
	assert.Equal(t, 1, countFeatured())
	got, err = s.FeaturedPost()
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	// Updating an already-featured post must not clear its own flag.
	fresh, err := s.GetPostAny(a.ID)
	require.NoError(t, err)
	fresh.Teaser = "Edited."
	require.NoError(t, s.UpdatePost(&fresh))
	assert.Equal(t, 1, countFeatured())
}

func TestGetPostBySlugOnlyPublished(t *testing.T) {
	s := newTestStore(t)

	p := testPost("Draft Thoughts")
	require.NoError(t, s.CreatePost(p))

	_, err := s.GetPostBySlug("draft-thoughts")
	assert.ErrorIs(t, err, ErrNotFound)

	p.Published = true
	require.NoError(t, s.UpdatePost(p))
	got, err := s.GetPostBySlug("draft-thoughts")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestMessagesListLimitAndRead(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 55; i++ {
		m := &Message{
			Name:    fmt.Sprintf("Sender %d", i),
			Email:   "sender@example.com",
			Content: "Hello there.",
		}
		require.NoError(t, s.CreateMessage(m))
		assert.False(t, m.Read)
	}

	msgs, err := s.ListMessages(50)
	require.NoError(t, err)
	assert.Len(t, msgs, 50)
	// Newest first.
	assert.Equal(t, "Sender 54", msgs[0].Name)

	updated, err := s.SetMessageRead(msgs[0].ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Read)

	require.NoError(t, s.DeleteMessage(msgs[0].ID))
	_, err = s.GetMessage(msgs[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProposalLifecycle(t *testing.T) {
	s := newTestStore(t)

	p := &ProposalRequest{
		Name:               "Ada",
		Email:              "ada@example.com",
		ProjectType:        "Custom Web App",
		ProjectDescription: "Build us a portal.",
		Status:             StatusWon, // must be ignored on intake
		InternalNotes:      "sneaky",  // same
	}
	require.NoError(t, s.CreateProposal(p))
	assert.Equal(t, StatusSubmitted, p.Status)
	assert.Empty(t, p.InternalNotes)

	got, err := s.UpdateProposalReview(p.ID, StatusQuoted, "Sent estimate.")
	require.NoError(t, err)
	assert.Equal(t, StatusQuoted, got.Status)
	assert.Equal(t, "Sent estimate.", got.InternalNotes)

	got, err = s.UpdateProposalReview(p.ID, StatusWon, "Signed.")
	require.NoError(t, err)
	assert.Equal(t, "Won", AdminProposal(got).StatusDisplay)

	_, err = s.UpdateProposalReview(p.ID, "celebrating", "")
	assert.ErrorIs(t, err, errInvalidStatus)

	// Bad status must not have touched the row.
	fresh, err := s.GetProposal(p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusWon, fresh.Status)

	require.NoError(t, s.DeleteProposal(p.ID))
	_, err = s.GetProposal(p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProposalsNewestFirst(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"First", "Second", "Third"} {
		p := &ProposalRequest{
			Name:               name,
			Email:              "p@example.com",
			ProjectType:        "iPhone App",
			ProjectDescription: "Work.",
		}
		require.NoError(t, s.CreateProposal(p))
	}

	list, err := s.ListProposals(50)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Third", list[0].Name)
}
