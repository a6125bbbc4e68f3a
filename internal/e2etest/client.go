package e2etest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"github.com/PuerkitoBio/goquery"
	"github.com/justinas/nosurf"
	"github.com/myrjola/heartcollector/internal/errors"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

type Client struct {
	client    *http.Client
	url       string
	csrfToken string
}

// NewClient creates an HTTP client with a cookie jar so that it keeps its browser session between requests.
func NewClient(url string) (*Client, error) {
	if _, err := neturl.Parse(url); err != nil {
		return nil, errors.Wrap(err, "parse server url", slog.String("url", url))
	}
	return &Client{
		client:    &http.Client{Jar: newInsecureJar()},
		url:       url,
		csrfToken: "",
	}, nil
}

// Item is an item as reported by the game state API.
type Item struct {
	Index     int     `json:"index"`
	Collected bool    `json:"collected"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// GameState is the body of the game state API.
type GameState struct {
	Phase            string `json:"phase"`
	Collected        int    `json:"collected"`
	Total            int    `json:"total"`
	Percent          int    `json:"percent"`
	Elapsed          string `json:"elapsed"`
	PlayAgainOffered bool   `json:"play_again_offered"`
	Items            []Item `json:"items"`
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = c.client.Do(req); err == nil {
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
		return nil, errors.Wrap(err, "create request with context")
	}
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// GetDoc fetches a URL and returns a goquery document.
func (c *Client) GetDoc(ctx context.Context, urlPath string) (*goquery.Document, error) {
	var (
		err  error
		resp *http.Response
		doc  *goquery.Document
	)
	if resp, err = c.Get(ctx, urlPath); err != nil {
		return nil, errors.Wrap(err, "client get")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, errors.New("unexpected status code", slog.Int("status", resp.StatusCode))
	}
	if doc, err = goquery.NewDocumentFromReader(resp.Body); err != nil {
		return nil, errors.Wrap(err, "create document from reader")
	}
	if token, ok := doc.Find("input[name=csrf_token]").First().Attr("value"); ok {
		c.csrfToken = token
	}
	return doc, nil
}

// Post sends an htmx request like a button with hx-post would and returns the response.
func (c *Client) Post(ctx context.Context, urlPath string) (*http.Response, error) {
	var err error
	if c.csrfToken == "" {
		// The front page hands out the CSRF token.
		if _, err = c.GetDoc(ctx, "/"); err != nil {
			return nil, errors.Wrap(err, "get front page")
		}
	}
	var req *http.Request
	if req, err = c.newRequestWithContext(ctx, http.MethodPost, urlPath, nil); err != nil {
		return nil, errors.Wrap(err, "new request with context")
	}
	req.Header.Set(nosurf.HeaderName, c.csrfToken)
	req.Header.Set("HX-Request", "true")
	var resp *http.Response
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// Do posts to urlPath and expects 204 No Content.
func (c *Client) Do(ctx context.Context, urlPath string) error {
	resp, err := c.Post(ctx, urlPath)
	if err != nil {
		return errors.Wrap(err, "post", slog.String("path", urlPath))
	}
	if err = resp.Body.Close(); err != nil {
		return errors.Wrap(err, "close response body")
	}
	if resp.StatusCode != http.StatusNoContent {
		return errors.New("unexpected status code",
			slog.String("path", urlPath), slog.Int("status", resp.StatusCode))
	}
	return nil
}

// State fetches the game state of the client's browser session.
func (c *Client) State(ctx context.Context) (GameState, error) {
	var state GameState
	resp, err := c.Get(ctx, "/api/game")
	if err != nil {
		return state, errors.Wrap(err, "get game state")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return state, errors.New("unexpected status code", slog.Int("status", resp.StatusCode))
	}
	if err = json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return state, errors.Wrap(err, "decode game state")
	}
	return state, nil
}

// WaitForState polls the game state until done returns true or the 5-second timeout is reached.
func (c *Client) WaitForState(ctx context.Context, done func(GameState) bool) (GameState, error) {
	timeout := 5 * time.Second //nolint:mnd // generous for a full reveal
	startTime := time.Now()
	for {
		state, err := c.State(ctx)
		if err != nil {
			return state, err
		}
		if done(state) {
			return state, nil
		}
		select {
		case <-ctx.Done():
			return state, errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return state, errors.New("timeout waiting for game state", slog.String("phase", state.Phase),
					slog.Int("revealed", len(state.Items)))
			}
			time.Sleep(20 * time.Millisecond) //nolint:mnd // 20ms
		}
	}
}

// Collect collects the item with index.
func (c *Client) Collect(ctx context.Context, index int) error {
	return c.Do(ctx, fmt.Sprintf("/game/collect/%d", index))
}

// PlayRound starts a round, waits until every item is revealed, collects them all, and returns the final state.
func (c *Client) PlayRound(ctx context.Context) (GameState, error) {
	if err := c.Do(ctx, "/game/start"); err != nil {
		return GameState{}, errors.Wrap(err, "start")
	}
	state, err := c.WaitForState(ctx, func(s GameState) bool { return len(s.Items) == s.Total })
	if err != nil {
		return state, errors.Wrap(err, "wait for reveal")
	}
	for _, item := range state.Items {
		if err = c.Collect(ctx, item.Index); err != nil {
			return state, errors.Wrap(err, "collect", slog.Int("index", item.Index))
		}
	}
	if state, err = c.State(ctx); err != nil {
		return state, errors.Wrap(err, "get final state")
	}
	return state, nil
}

// newRequestWithContext creates a new HTTP request to the server that respects the given context.
func (c *Client) newRequestWithContext(
	ctx context.Context,
	method, urlPath string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	return req, nil
}

func (c *Client) extractCSRFToken(doc *goquery.Document, formActionURLPath string) (string, error) {
	formSelector := fmt.Sprintf("form[action='%s']", formActionURLPath)
	form := doc.Find(formSelector)
	csrfToken, ok := form.Find("input[name=csrf_token]").Attr("value")
	if !ok {
		return "", errors.New("csrf_token not found in form", slog.String("form", formSelector))
	}
	return csrfToken, nil
}

// SubmitForm submits a form at formURLPath with action formActionURLPath like a browser without JavaScript would and
// returns the response document.
func (c *Client) SubmitForm(
	ctx context.Context,
	formURLPath string,
	formActionURLPath string,
) (*goquery.Document, error) {
	var (
		doc *goquery.Document
		err error
	)
	if doc, err = c.GetDoc(ctx, formURLPath); err != nil {
		return nil, errors.Wrap(err, "get document")
	}

	// Extract CSRF token from the form.
	var csrfToken string
	if csrfToken, err = c.extractCSRFToken(doc, formActionURLPath); err != nil {
		return nil, errors.Wrap(err, "extract CSRF token")
	}

	// Build form data
	formData := neturl.Values{}
	formData.Add("csrf_token", csrfToken)
	data := strings.NewReader(formData.Encode())

	// Submit the form
	var req *http.Request
	if req, err = c.newRequestWithContext(ctx, http.MethodPost, formActionURLPath, data); err != nil {
		return nil, errors.Wrap(err, "new request with context")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var resp *http.Response
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, errors.New("unexpected status code", slog.Int("status", resp.StatusCode))
	}

	// Parse the response
	if doc, err = goquery.NewDocumentFromReader(resp.Body); err != nil {
		return nil, errors.Wrap(err, "create document from reader")
	}
	return doc, nil
}

// Event is a server-sent event.
type Event struct {
	Name string
	Data string
}

// EventStream reads server-sent events from an open response.
type EventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// Events opens the game event stream of the client's browser session.
func (c *Client) Events(ctx context.Context) (*EventStream, error) {
	req, err := c.newRequestWithContext(ctx, http.MethodGet, "/game/events", nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request with context")
	}
	req.Header.Set("Accept", "text/event-stream")
	var resp *http.Response
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errors.New("unexpected status code", slog.Int("status", resp.StatusCode))
	}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) //nolint:mnd // the sync fragment carries the whole screen
	return &EventStream{body: resp.Body, scanner: scanner}, nil
}

// Next blocks until the next event arrives. Comments such as keepalives are skipped.
func (s *EventStream) Next() (Event, error) {
	var (
		event Event
		data  []string
	)
	for s.scanner.Scan() {
		line := s.scanner.Text()
		switch {
		case line == "":
			if event.Name == "" && len(data) == 0 {
				continue
			}
			event.Data = strings.Join(data, "\n")
			return event, nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := s.scanner.Err(); err != nil {
		return event, errors.Wrap(err, "read event stream")
	}
	return event, io.EOF
}

// NextMatching returns the first event whose data contains substr.
func (s *EventStream) NextMatching(substr string) (Event, error) {
	for {
		event, err := s.Next()
		if err != nil {
			return event, err
		}
		if strings.Contains(event.Data, substr) {
			return event, nil
		}
	}
}

func (s *EventStream) Close() error {
	return s.body.Close()
}
