// Package upstream talks to the CDR repository server over its legacy
// XML tunnel. The legacy contract signals failure by returning error
// strings; this package is the only place that convention is visible.
// Everything is lifted into typed errors at this boundary.
package upstream

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sharedConfig "cdrcgi/internal/shared/config"
	"cdrcgi/internal/shared/cdrid"
	"cdrcgi/internal/shared/errors"
)

// FilterSpec names one entry of a filter pipeline: either a single
// filter or a filter set.
type FilterSpec struct {
	Name string
	Set  bool
}

// ParseFilterSpec reads the "name:<N>" / "set:<N>" spelling.
func ParseFilterSpec(s string) (FilterSpec, error) {
	switch {
	case strings.HasPrefix(s, "name:"):
		return FilterSpec{Name: s[len("name:"):]}, nil
	case strings.HasPrefix(s, "set:"):
		return FilterSpec{Name: s[len("set:"):], Set: true}, nil
	}
	return FilterSpec{}, errors.NewInputError("invalid filter specification", s)
}

// FilterResult carries a transformed document and any warnings the
// server emitted, kept separate from the body.
type FilterResult struct {
	Text     string
	Warnings []string
}

// Client is the interface the application layer consumes.
type Client interface {
	Login(ctx context.Context, userName, password string) (string, error)
	Logout(ctx context.Context, token string) error
	CanDo(ctx context.Context, token, action, doctype string) (bool, error)
	GetDoctypes(ctx context.Context, token string) ([]string, error)
	GetLinkTypes(ctx context.Context, token string) ([]string, error)
	GetDoc(ctx context.Context, token string, docID int) (string, error)
	FilterDoc(ctx context.Context, token string, specs []FilterSpec, docID int,
		parms map[string]string, version *int) (*FilterResult, error)
}

// HTTPClient implements Client over the tunnel endpoint.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewHTTPClient(cfg *sharedConfig.UpstreamConfig, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL(),
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger:  logger,
	}
}

// NewHTTPClientForURL is used by tests to point the client at a local
// server.
func NewHTTPClientForURL(baseURL string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

func (c *HTTPClient) send(ctx context.Context, token string, cmd command) (*response, error) {
	body, err := xml.Marshal(commandSet{SessionID: token, Command: cmd})
	if err != nil {
		return nil, errors.NewMisuseError("cannot encode tunnel command", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cgi-bin/cdr-tunnel",
		bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewMisuseError("cannot build tunnel request", err.Error())
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamError("repository server unreachable", err.Error())
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewUpstreamError("reading repository response", err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewUpstreamError("repository server failure",
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}

	var rs responseSet
	if err := xml.Unmarshal(payload, &rs); err != nil {
		return nil, errors.NewUpstreamError("malformed repository response", err.Error())
	}
	if rs.Response.Status != "success" {
		// The legacy error-string convention, lifted here and nowhere
		// else.
		return nil, errors.NewUpstreamError("repository command failed",
			strings.Join(rs.Response.Errors, "; "))
	}
	return &rs.Response, nil
}

func (c *HTTPClient) Login(ctx context.Context, userName, password string) (string, error) {
	resp, err := c.send(ctx, "", command{Logon: &logonCommand{UserName: userName, Password: password}})
	if err != nil {
		if errors.IsUpstreamError(err) {
			c.logger.Warn("upstream login failed", "user", userName, "error", err)
			return "", errors.NewAuthError("login failed", userName)
		}
		return "", err
	}
	if resp.SessionID == "" {
		return "", errors.NewUpstreamError("login returned no session token")
	}
	return resp.SessionID, nil
}

func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	_, err := c.send(ctx, token, command{Logoff: &struct{}{}})
	return err
}

func (c *HTTPClient) CanDo(ctx context.Context, token, action, doctype string) (bool, error) {
	resp, err := c.send(ctx, token, command{CanDo: &canDoCommand{Action: action, DocType: doctype}})
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(resp.Allowed) == "Y", nil
}

func (c *HTTPClient) GetDoctypes(ctx context.Context, token string) ([]string, error) {
	resp, err := c.send(ctx, token, command{ListDocTypes: &struct{}{}})
	if err != nil {
		return nil, err
	}
	return resp.DocTypes, nil
}

func (c *HTTPClient) GetLinkTypes(ctx context.Context, token string) ([]string, error) {
	resp, err := c.send(ctx, token, command{ListLinkTypes: &struct{}{}})
	if err != nil {
		return nil, err
	}
	return resp.LinkTypes, nil
}

func (c *HTTPClient) GetDoc(ctx context.Context, token string, docID int) (string, error) {
	resp, err := c.send(ctx, token, command{GetDoc: &getDocCommand{DocID: cdrid.Format(docID)}})
	if err != nil {
		return "", err
	}
	return resp.DocXML, nil
}

func (c *HTTPClient) FilterDoc(ctx context.Context, token string, specs []FilterSpec, docID int,
	parms map[string]string, version *int) (*FilterResult, error) {

	cmd := filterDocCommand{Document: filterDoc{Href: cdrid.Format(docID)}}
	if version != nil {
		cmd.Document.Version = fmt.Sprintf("%d", *version)
	}
	// Declaration order is the execution order; the server applies the
	// pipeline as listed.
	for _, spec := range specs {
		if spec.Set {
			cmd.Filters = append(cmd.Filters, filterRef{Set: spec.Name})
		} else {
			cmd.Filters = append(cmd.Filters, filterRef{Name: spec.Name})
		}
	}
	for name, value := range parms {
		cmd.Parms = append(cmd.Parms, filterParm{Name: name, Value: value})
	}

	resp, err := c.send(ctx, token, command{FilterDoc: &cmd})
	if err != nil {
		if appErr := errors.GetAppError(err); appErr != nil && appErr.Type == errors.ErrorTypeUpstream {
			return nil, errors.NewFilterError(appErr.Details)
		}
		return nil, err
	}
	return &FilterResult{Text: resp.Filtered, Warnings: resp.Warnings}, nil
}
