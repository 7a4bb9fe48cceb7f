// Package googletasks implements store.Store on one Google Tasks list.
//
// Google Tasks has no priority, order or exact due time, so those fields are
// kept in a small metadata block at the end of each task's notes.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"taskmgr/internal/config"
	"taskmgr/internal/store"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the default timeout for API calls.
	APITimeout = 5 * time.Second

	// TasksScope is the OAuth scope for Google Tasks.
	TasksScope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Client implements store.Store using Google Tasks API.
type Client struct {
	svc     *tasks.Service
	listID  string
	timeout time.Duration
	logger  *log.Logger

	mu  sync.Mutex
	seq int64 // last insertion sequence handed out
}

// Options configures a Client.
type Options struct {
	// List is the list title to use. Empty selects the default list.
	List string
	// Timeout bounds each API call. Zero uses APITimeout.
	Timeout time.Duration
	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

// New creates a Google Tasks client from the credentials in cfg.Dir.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Client, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, TasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}

	// The token source refreshes expired access tokens.
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))

	return NewWithHTTPClient(ctx, httpClient, Options{
		List:    cfg.GoogleList,
		Timeout: cfg.Timeout,
		Logger:  logger,
	})
}

// NewWithHTTPClient creates a client with a custom HTTP client. Extra client
// options such as option.WithEndpoint are passed to the Tasks service.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts Options, extra ...option.ClientOption) (*Client, error) {
	clientOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, extra...)
	svc, err := tasks.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}

	c := &Client{
		svc:     svc,
		listID:  DefaultListID,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = APITimeout
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}

	if strings.TrimSpace(opts.List) != "" {
		id, err := c.ResolveList(ctx, opts.List)
		if err != nil {
			return nil, err
		}
		c.listID = id
	}
	return c, nil
}

// ListID returns the Google list the client works on.
func (c *Client) ListID() string { return c.listID }

// ListLists returns all task lists in API order.
func (c *Client) ListLists(ctx context.Context) ([]*tasks.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result []*tasks.TaskList
	err := c.svc.Tasklists.List().MaxResults(100).Pages(ctx, func(resp *tasks.TaskLists) error {
		result = append(result, resp.Items...)
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// ResolveList finds a list ID by title (case-insensitive, trimmed).
func (c *Client) ResolveList(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	nameLower := strings.ToLower(name)

	lists, err := c.ListLists(ctx)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, list := range lists {
		if strings.ToLower(strings.TrimSpace(list.Title)) == nameLower {
			matches = append(matches, list.Id)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("list not found: %s", name)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous list name: %s", name)
	}
}

// Create implements store.Store.
func (c *Client) Create(ctx context.Context, t store.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	created, err := c.svc.Tasks.Insert(c.listID, c.toRemote(t, c.nextSeq())).Context(ctx).Do()
	if err != nil {
		return store.Wrap("create", wrapError(err))
	}
	c.logger.Debug("google task created", "id", t.ID, "remote", created.Id)
	return nil
}

// Fetch implements store.Store. Filtering and sorting happen client-side.
func (c *Client) Fetch(ctx context.Context, sort store.Sort, filter store.Filter) ([]store.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.listAll(ctx)
	if err != nil {
		return nil, store.Wrap("fetch", err)
	}
	all := make([]store.Task, len(items))
	for i, it := range items {
		all[i] = it.task
	}
	return store.Apply(all, sort, filter), nil
}

// Update implements store.Store. Updating a missing task is not an error.
func (c *Client) Update(ctx context.Context, t store.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok, err := c.find(ctx, t.ID)
	if err != nil {
		return store.Wrap("update", err)
	}
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := c.toRemote(t, it.meta.Seq)
	body.Id = it.remoteID
	if _, err := c.svc.Tasks.Update(c.listID, it.remoteID, body).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			c.logger.Debug("google task gone before update", "id", t.ID, "remote", it.remoteID)
			return nil
		}
		return store.Wrap("update", wrapError(err))
	}
	return nil
}

// Delete implements store.Store.
func (c *Client) Delete(ctx context.Context, t store.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok, err := c.find(ctx, t.ID)
	if err != nil {
		return store.Wrap("delete", err)
	}
	if !ok {
		return nil
	}
	if err := c.deleteRemote(ctx, it.remoteID); err != nil {
		return store.Wrap("delete", err)
	}
	return nil
}

// DeleteAll implements store.Store.
func (c *Client) DeleteAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.listAll(ctx)
	if err != nil {
		return store.Wrap("deleteAll", err)
	}
	for _, it := range items {
		if err := c.deleteRemote(ctx, it.remoteID); err != nil {
			return store.Wrap("deleteAll", err)
		}
	}
	return nil
}

// Close implements store.Store.
func (c *Client) Close() error { return nil }

type item struct {
	remoteID string
	task     store.Task
	meta     metadata
}

// listAll returns every task in the list in creation order.
func (c *Client) listAll(ctx context.Context) ([]item, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var items []item
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowDeleted(false).
		ShowHidden(true).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, rt := range resp.Items {
				items = append(items, fromRemote(rt))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}

	// The API returns tasks by position; Seq restores insertion order.
	slices.SortStableFunc(items, func(a, b item) int {
		switch {
		case a.meta.Seq < b.meta.Seq:
			return -1
		case a.meta.Seq > b.meta.Seq:
			return 1
		}
		return 0
	})

	for _, it := range items {
		c.seq = max(c.seq, it.meta.Seq)
	}
	return items, nil
}

// find locates a task by its taskmgr id. Google ids are not stable
// across lists, so every lookup lists the tasks.
func (c *Client) find(ctx context.Context, id string) (item, bool, error) {
	items, err := c.listAll(ctx)
	if err != nil {
		return item{}, false, err
	}
	for _, it := range items {
		if it.task.ID == id {
			return it, true, nil
		}
	}
	return item{}, false, nil
}

func (c *Client) deleteRemote(ctx context.Context, remoteID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, remoteID).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			c.logger.Debug("google task already deleted", "remote", remoteID)
			return nil
		}
		return wrapError(err)
	}
	return nil
}

func (c *Client) nextSeq() int64 {
	c.seq = max(c.seq+1, time.Now().UnixNano())
	return c.seq
}

func (c *Client) toRemote(t store.Task, seq int64) *tasks.Task {
	rt := &tasks.Task{
		Title:  t.Title,
		Status: statusNeedsAction,
		Notes:  encodeNotes(t, seq),
	}
	if t.IsCompleted {
		rt.Status = statusCompleted
	}
	if t.DueDate != nil {
		// The API stores only the date part.
		rt.Due = t.DueDate.UTC().Format(time.RFC3339)
	}
	return rt
}

func fromRemote(rt *tasks.Task) item {
	desc, meta, ok := decodeNotes(rt.Notes)
	t := store.Task{
		ID:          rt.Id,
		Title:       rt.Title,
		Priority:    store.Medium,
		IsCompleted: rt.Status == statusCompleted,
	}
	if ok {
		t.ID = meta.ID
		t.Priority = store.Priority(meta.Priority)
		t.Order = meta.Order
		t.DueDate = store.NormalizeDue(meta.Due)
		if meta.HasDescription {
			t.Description = store.StringPtr(desc)
		}
	} else {
		if rt.Notes != "" {
			t.Description = store.StringPtr(rt.Notes)
		}
		if due, err := time.Parse(time.RFC3339, rt.Due); err == nil {
			t.DueDate = store.NormalizeDue(&due)
		}
	}
	return item{remoteID: rt.Id, task: t, meta: meta}
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("token expired or revoked (run: taskmgr login)")
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("token expired or revoked (run: taskmgr login)")
		case http.StatusNotFound:
			return fmt.Errorf("not found")
		}
	}

	return err
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
