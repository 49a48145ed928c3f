// Package api is the client side of the notes REST API. It attaches the
// session token to requests and translates responses back into the
// shared error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/atinyakov/VoiceNotes/internal/client/session"
	"github.com/atinyakov/VoiceNotes/internal/models"
)

const (
	apiRegister = "/api/auth/register"
	apiLogin    = "/api/auth/login"
	apiNotes    = "/api/notes"
)

// Error is a non-2xx API response. It unwraps to the matching sentinel
// from models.
type Error struct {
	Status  int
	Message string
	kind    error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (status %d)", e.kind, e.Status)
	}
	return fmt.Sprintf("%v: %s", e.kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.kind
}

// ListOptions are the GET /api/notes query parameters. Zero values are omitted
// so the server defaults apply.
type ListOptions struct {
	Page   int
	Limit  int
	Sort   string
	Search string
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Sort != "" {
		v.Set("sort", o.Sort)
	}
	if o.Search != "" {
		v.Set("search", o.Search)
	}
	return v
}

// Client calls the notes API on behalf of the current session.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *session.Manager
}

// New returns a Client for baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client, sessions *session.Manager) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, sessions: sessions}
}

// Register creates an account and stores the returned session.
func (c *Client) Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, apiRegister, map[string]string{"email": email, "password": password, "name": name})
}

// Login stores the session for valid credentials.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, apiLogin, map[string]string{"email": email, "password": password})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*models.AuthResponse, error) {
	var res models.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, nil, body, &res, false); err != nil {
		return nil, err
	}
	if err := c.sessions.Set(session.Session{Token: res.Token, User: res.User}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &res, nil
}

// Logout forgets the session. The server keeps no session state.
func (c *Client) Logout() error {
	return c.sessions.Clear()
}

// ListNotes fetches one page of notes.
func (c *Client) ListNotes(ctx context.Context, opts ListOptions) (*models.NoteList, error) {
	var res models.NoteList
	if err := c.do(ctx, http.MethodGet, apiNotes, opts.values(), nil, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateNote submits a new note.
func (c *Client) CreateNote(ctx context.Context, n models.Note) (*models.Note, error) {
	var res models.Note
	if err := c.do(ctx, http.MethodPost, apiNotes, nil, n, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateNote sends a partial update.
func (c *Client) UpdateNote(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error) {
	var res models.Note
	if err := c.do(ctx, http.MethodPut, apiNotes+"/"+url.PathEscape(id), nil, patch, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteNote removes a note.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	var res models.DeleteResponse
	return c.do(ctx, http.MethodDelete, apiNotes+"/"+url.PathEscape(id), nil, nil, &res, true)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, authed bool) error {
	var token string
	if authed {
		s, err := session.RequireSession(c.sessions)
		if err != nil {
			return err
		}
		token = s.Token
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	apiErr := newError(resp, path == apiLogin)
	if authed && errors.Is(apiErr, models.ErrUnauthorized) {
		// the token is no longer accepted
		_ = c.sessions.Clear()
	}
	return apiErr
}

func newError(resp *http.Response, login bool) *Error {
	var body struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) != nil {
		body.Message = strings.TrimSpace(string(data))
	}

	e := &Error{Status: resp.StatusCode, Message: body.Message}
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		e.kind = models.ErrValidation
	case resp.StatusCode == http.StatusUnauthorized && login:
		e.kind = models.ErrInvalidCredentials
	case resp.StatusCode == http.StatusUnauthorized:
		e.kind = models.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		e.kind = models.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		e.kind = models.ErrConflict
	case resp.StatusCode < http.StatusInternalServerError:
		e.kind = models.ErrValidation
	default:
		e.kind = models.ErrPersistence
	}
	return e
}
