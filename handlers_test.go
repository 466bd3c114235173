package agencykit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubComponent(text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
}

func stubViews() ViewFuncs {
	return ViewFuncs{
		Home: func([]Project, []BlogPost, string) templ.Component { return stubComponent("home") },
		Work: func([]Project) templ.Component { return stubComponent("work") },
		Project: func(p Project, _ string) templ.Component {
			return stubComponent("project:" + p.Name)
		},
		Blog: func([]BlogPost, *BlogPost) templ.Component { return stubComponent("blog") },
		Post: func(p BlogPost, _ []BlogPost, _ string) templ.Component {
			return stubComponent("post:" + p.Title)
		},
		Contact: func(_ Message, errs FieldErrors, alert, notice, _ string) templ.Component {
			return stubComponent("contact alert=" + alert + " errs=" + strings.Join(errs["email"], ","))
		},
		Proposal: func(_ ProposalRequest, errs FieldErrors, alert, notice, _ string) templ.Component {
			return stubComponent("proposal")
		},
		AdminLogin: func(showError bool, _ string) templ.Component {
			if showError {
				return stubComponent("login failed")
			}
			return stubComponent("login")
		},
		AdminDashboard: func(string) templ.Component { return stubComponent("dashboard") },
		NotFound:       func() templ.Component { return stubComponent("not found") },
		ServerError:    func() templ.Component { return stubComponent("server error") },
	}
}

type testClient struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	csrf   string
}

func newTestApp(t *testing.T) (*App, *testClient) {
	t.Helper()
	cfg := SiteConfig{
		Name:          "Studio",
		URL:           "http://example.com",
		AdminPassword: "correct horse",
		SessionSecret: "0123456789abcdef0123456789abcdef",
		DatabasePath:  filepath.Join(t.TempDir(), "app.db"),
	}
	app := New(cfg, stubViews(), WithStaticDir(t.TempDir()))
	require.NoError(t, app.init())
	t.Cleanup(func() { app.Close() })

	srv := httptest.NewServer(app.Echo)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	tc := &testClient{
		t:   t,
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	tc.refreshCsrf()
	return app, tc
}

// refreshCsrf primes the cookie jar and captures the CSRF token.
func (tc *testClient) refreshCsrf() {
	resp, err := tc.client.Get(tc.srv.URL + "/")
	require.NoError(tc.t, err)
	resp.Body.Close()
	u, _ := url.Parse(tc.srv.URL)
	for _, ck := range tc.client.Jar.Cookies(u) {
		if ck.Name == "_csrf" {
			tc.csrf = ck.Value
		}
	}
	require.NotEmpty(tc.t, tc.csrf, "no csrf cookie issued")
}

func (tc *testClient) do(method, path string, body io.Reader, contentType string) *http.Response {
	req, err := http.NewRequest(method, tc.srv.URL+path, body)
	require.NoError(tc.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-CSRF-Token", tc.csrf)
	resp, err := tc.client.Do(req)
	require.NoError(tc.t, err)
	return resp
}

func (tc *testClient) postForm(path string, form url.Values) *http.Response {
	return tc.do(http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (tc *testClient) json(method, path string, payload any) *http.Response {
	var body bytes.Buffer
	require.NoError(tc.t, json.NewEncoder(&body).Encode(payload))
	return tc.do(method, path, &body, "application/json")
}

func (tc *testClient) login() {
	resp := tc.postForm("/admin/login/", url.Values{"password": {"correct horse"}})
	defer resp.Body.Close()
	require.Equal(tc.t, http.StatusSeeOther, resp.StatusCode, "admin login failed")
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestPublicPages(t *testing.T) {
	app, tc := newTestApp(t)

	post := testPost("Hello World")
	post.Published = true
	require.NoError(t, app.Store.CreatePost(post))
	app.Cache.Invalidate()

	resp := tc.do(http.MethodGet, "/blog/hello-world/", nil, "")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "post:Hello World")

	// Unknown slugs bounce back to the index.
	resp = tc.do(http.MethodGet, "/blog/no-such-post/", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/blog/", resp.Header.Get("Location"))

	resp = tc.do(http.MethodGet, "/up", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = tc.do(http.MethodGet, "/no-such-page/", nil, "")
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "not found")
}

func TestContactSubmission(t *testing.T) {
	app, tc := newTestApp(t)

	resp := tc.postForm("/contact/", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"subject": {"Hello"},
		"content": {"A question."},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	msgs, err := app.Store.ListMessages(10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Ada", msgs[0].Name)
	assert.False(t, msgs[0].Read)
}

func TestContactSubmissionInvalidEmailNotPersisted(t *testing.T) {
	app, tc := newTestApp(t)

	resp := tc.postForm("/contact/", url.Values{
		"name":    {"Ada"},
		"email":   {"not-an-email"},
		"subject": {"Hello"},
		"content": {"A question."},
	})
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "is not a valid email address")

	msgs, err := app.Store.ListMessages(10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestProposalSubmission(t *testing.T) {
	app, tc := newTestApp(t)

	resp := tc.postForm("/free-proposal/", url.Values{
		"name":                {"Ada"},
		"email":               {"ada@example.com"},
		"company":             {"Acme"},
		"project_type":        {"Custom Web App"},
		"budget_range":        {"$50k+"},
		"timeline":            {"ASAP"},
		"project_description": {"Build us a portal."},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	list, err := app.Store.ListProposals(10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, StatusSubmitted, list[0].Status)
	assert.Equal(t, 7, list[0].PriorityScore())
}

func TestAdminAPIRequiresSession(t *testing.T) {
	_, tc := newTestApp(t)

	resp := tc.do(http.MethodGet, "/admin/api/projects", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminLoginRejectsWrongPassword(t *testing.T) {
	_, tc := newTestApp(t)

	resp := tc.postForm("/admin/login/", url.Values{"password": {"wrong"}})
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "login failed")
}

func TestAdminProjectCRUDOverHTTP(t *testing.T) {
	_, tc := newTestApp(t)
	tc.login()

	resp := tc.json(http.MethodPost, "/admin/api/projects", map[string]any{
		"name":              "Harbor Rebrand",
		"short_description": "A short pitch.",
		"what_special":      "Custom everything.",
		"long_description":  "The long story.",
		"url":               "https://harbor.example.com",
		"published":         true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[ProjectAdmin](t, resp)
	assert.Equal(t, "harbor-rebrand", created.Slug)
	assert.Nil(t, created.ImageURL)

	resp = tc.json(http.MethodPost, "/admin/api/projects", map[string]any{"name": "Missing Everything"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	resp = tc.do(http.MethodGet, "/admin/api/projects", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]ProjectAdmin](t, resp)
	assert.Len(t, list, 1)

	resp = tc.do(http.MethodDelete, "/admin/api/projects/999", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminProposalReviewOverHTTP(t *testing.T) {
	app, tc := newTestApp(t)
	tc.login()

	p := &ProposalRequest{
		Name:               "Ada",
		Email:              "ada@example.com",
		ProjectType:        "Custom Web App",
		ProjectDescription: "Build us a portal.",
	}
	require.NoError(t, app.Store.CreateProposal(p))

	resp := tc.json(http.MethodPut, "/admin/api/proposals/1", map[string]any{
		"status":         "won",
		"internal_notes": "Signed.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[ProposalAdmin](t, resp)
	assert.Equal(t, "Won", got.StatusDisplay)
	assert.Equal(t, "Signed.", got.InternalNotes)

	resp = tc.json(http.MethodPut, "/admin/api/proposals/1", map[string]any{"status": "celebrating"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}
