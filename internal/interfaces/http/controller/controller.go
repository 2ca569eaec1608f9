// Package controller drives the two-phase form/report lifecycle shared
// by every interactive endpoint. A first visit renders the form; a
// submission runs the report; the well-known navigation buttons
// redirect. Centralizing this removes per-endpoint session plumbing
// and button dispatch.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	domainSession "cdrcgi/internal/domain/session"
	"cdrcgi/internal/interfaces/http/htmlpage"
	"cdrcgi/internal/shared/errors"
	"cdrcgi/internal/shared/logger"
)

// Well-known button labels, routed before any endpoint code runs.
const (
	ButtonSubmit      = "Submit"
	ButtonLogOut      = "Log Out"
	ButtonAdminMenu   = "Admin Menu"
	ButtonReportsMenu = "Reports Menu"
	ButtonMainMenu    = "Main Menu"
)

// Scripts behind the navigation buttons.
const (
	adminScript   = "admin.py"
	reportsScript = "reports.py"
)

// SessionService is the slice of the sessions application service the
// controller needs.
type SessionService interface {
	Resolve(ctx context.Context, token string) (*domainSession.Session, error)
	Logout(ctx context.Context, session *domainSession.Session) error
}

// Options are the per-endpoint class attributes.
type Options struct {
	Subtitle string
	Logname  string
	// Submit is the label of the primary button; empty suppresses the
	// submission phase entirely.
	Submit string
	// Extra buttons rendered after the primary one.
	Buttons []string
}

// FormPopulator endpoints fill in the first-visit form; omitting it
// renders a blank form.
type FormPopulator interface {
	PopulateForm(ctx context.Context, page *htmlpage.Page) error
}

// TableBuilder endpoints produce tabular reports from a submission.
type TableBuilder interface {
	BuildTables(ctx context.Context) ([]*htmlpage.Table, error)
}

// ReportShower endpoints take over the whole report phase; non-tabular
// endpoints override this instead of BuildTables.
type ReportShower interface {
	ShowReport(c *Controller) error
}

// Controller is the per-request state threaded through one lifecycle.
type Controller struct {
	Options
	Session *domainSession.Session
	Alerts  []htmlpage.Alert
	Log     *slog.Logger

	gin      *gin.Context
	sessions SessionService
	baseURL  string
	finished bool
}

// Dispatcher builds controllers; one instance is shared by all
// endpoints.
type Dispatcher struct {
	sessions SessionService
	baseURL  string
}

func NewDispatcher(sessions SessionService, baseURL string) *Dispatcher {
	return &Dispatcher{sessions: sessions, baseURL: baseURL}
}

// Run executes one request lifecycle for an endpoint. The endpoint
// value implements whichever hooks it needs; everything else defaults.
func (d *Dispatcher) Run(c *gin.Context, opts Options, endpoint any) {
	ctrl := &Controller{
		Options:  opts,
		Log:      logger.Endpoint(opts.Logname),
		gin:      c,
		sessions: d.sessions,
		baseURL:  d.baseURL,
	}
	defer ctrl.recoverPanic()

	session, err := d.sessions.Resolve(c.Request.Context(), ctrl.FormValue("Session"))
	if err != nil {
		ctrl.fail(err)
		return
	}
	ctrl.Session = session

	if err := ctrl.route(endpoint); err != nil {
		ctrl.fail(err)
	}
}

func (ctrl *Controller) route(endpoint any) error {
	ctx := ctrl.gin.Request.Context()
	request := ctrl.FormValue("Request")

	switch request {
	case ButtonLogOut:
		return ctrl.logOut(ctx)
	case ButtonAdminMenu, ButtonMainMenu:
		ctrl.NavigateTo(adminScript, nil)
		return nil
	case ButtonReportsMenu:
		ctrl.NavigateTo(reportsScript, nil)
		return nil
	}

	if ctrl.Submit != "" && request == ctrl.Submit {
		return ctrl.showReport(endpoint)
	}
	return ctrl.showForm(ctx, endpoint)
}

func (ctrl *Controller) showForm(ctx context.Context, endpoint any) error {
	page := ctrl.NewPage()
	if populator, ok := endpoint.(FormPopulator); ok {
		if err := populator.PopulateForm(ctx, page); err != nil {
			return err
		}
	}
	ctrl.SendPage(page.Render(), "text/html")
	return nil
}

func (ctrl *Controller) showReport(endpoint any) error {
	if shower, ok := endpoint.(ReportShower); ok {
		return shower.ShowReport(ctrl)
	}
	builder, ok := endpoint.(TableBuilder)
	if !ok {
		return errors.NewMisuseError("endpoint has neither BuildTables nor ShowReport")
	}

	tables, err := builder.BuildTables(ctrl.gin.Request.Context())
	if err != nil {
		return err
	}
	page := ctrl.NewPage()
	for _, table := range tables {
		page.AddTable(table)
	}
	ctrl.SendPage(page.Render(), "text/html")
	return nil
}

func (ctrl *Controller) logOut(ctx context.Context) error {
	if ctrl.Session.IsGuest() {
		// Benign: render the home page with a warning, no upstream
		// call.
		ctrl.AddAlert("You are not currently logged in.", htmlpage.SeverityWarning)
	} else if err := ctrl.sessions.Logout(ctx, ctrl.Session); err != nil {
		return err
	} else {
		ctrl.AddAlert(fmt.Sprintf("Session for %s ended.", ctrl.Session.UserName), htmlpage.SeverityInfo)
		ctrl.Session = domainSession.Guest()
	}

	page := ctrl.NewPage()
	page.MenuLink(adminScript, "Admin Menu", map[string]string{"Session": domainSession.GuestName})
	ctrl.SendPage(page.Render(), "text/html")
	return nil
}

// NewPage starts a page carrying the endpoint's subtitle, collected
// alerts, and the session round-trip field.
func (ctrl *Controller) NewPage() *htmlpage.Page {
	page := htmlpage.New("CDR Administration", ctrl.Subtitle)
	page.AddAlerts(ctrl.Alerts)
	if ctrl.Submit != "" {
		page.SetAction(ctrl.gin.Request.URL.Path)
		page.HiddenField("Session", ctrl.sessionParam())
		labels := append([]string{ctrl.Submit}, ctrl.Buttons...)
		page.Buttons(labels...)
	}
	return page
}

// AddAlert queues a message for the next rendered page.
func (ctrl *Controller) AddAlert(text string, severity htmlpage.Severity) {
	ctrl.Alerts = append(ctrl.Alerts, htmlpage.Alert{Text: text, Severity: severity})
}

// Context returns the request context for blocking calls.
func (ctrl *Controller) Context() context.Context {
	return ctrl.gin.Request.Context()
}

// FormValue reads a request parameter from the query or posted form.
func (ctrl *Controller) FormValue(name string) string {
	if v, ok := ctrl.gin.GetPostForm(name); ok {
		return v
	}
	return ctrl.gin.Query(name)
}

// SendPage writes a complete response and terminates the lifecycle.
func (ctrl *Controller) SendPage(body, contentType string) {
	if contentType == "text/html" {
		contentType = "text/html; charset=utf-8"
	}
	ctrl.gin.Data(http.StatusOK, contentType, []byte(body))
	ctrl.finished = true
}

// SendBytes streams a download with full Content-Length and an
// attachment disposition.
func (ctrl *Controller) SendBytes(filename, contentType string, data []byte) {
	ctrl.gin.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	ctrl.gin.Header("Content-Length", fmt.Sprintf("%d", len(data)))
	ctrl.gin.Data(http.StatusOK, contentType, data)
	ctrl.finished = true
}

// NavigateTo redirects to a sibling script, preserving the session.
func (ctrl *Controller) NavigateTo(script string, params map[string]string) {
	values := url.Values{}
	values.Set("Session", ctrl.sessionParam())
	for name, value := range params {
		values.Set(name, value)
	}
	location := fmt.Sprintf("%s/cgi-bin/cdr/%s?%s", ctrl.baseURL, script, values.Encode())
	ctrl.gin.Redirect(http.StatusFound, location)
	ctrl.finished = true
}

// Bail emits a minimal error page and stops the lifecycle.
func (ctrl *Controller) Bail(message string) {
	page := htmlpage.New("CDR Administration", ctrl.Subtitle)
	page.AddAlert(message, htmlpage.SeverityError)
	ctrl.gin.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.Render()))
	ctrl.finished = true
}

func (ctrl *Controller) sessionParam() string {
	if ctrl.Session == nil || ctrl.Session.IsGuest() {
		return domainSession.GuestName
	}
	return ctrl.Session.Token
}

// fail maps an error onto the right client-facing response without
// leaking internals.
func (ctrl *Controller) fail(err error) {
	user := domainSession.GuestName
	if ctrl.Session != nil {
		user = ctrl.Session.UserName
	}
	ctrl.Log.Error("request failed", "user", user,
		"params", redactedParams(ctrl.gin), "error", err)

	switch {
	case errors.IsInputError(err):
		ctrl.Bail(errors.GetAppError(err).Message)
	case errors.IsAuthError(err):
		ctrl.Bail("Not authorized")
	case errors.IsUpstreamError(err):
		appErr := errors.GetAppError(err)
		message := appErr.Message
		if appErr.Details != "" {
			message = appErr.Details
		}
		ctrl.Bail(message)
	default:
		ctrl.Bail("An internal failure occurred; the problem has been logged.")
	}
}

func (ctrl *Controller) recoverPanic() {
	if recovered := recover(); recovered != nil {
		ctrl.Log.Error("panic recovered",
			"path", ctrl.gin.Request.URL.Path,
			"error", recovered,
			"stack", string(debug.Stack()))
		if !ctrl.finished {
			ctrl.Bail("An internal failure occurred; the problem has been logged.")
		}
	}
}

// redactedParams logs request parameters with secrets masked.
func redactedParams(c *gin.Context) map[string]string {
	out := map[string]string{}
	c.Request.ParseForm()
	for name := range c.Request.Form {
		if name == "Session" || name == "password" {
			out[name] = "*"
			continue
		}
		out[name] = c.Request.Form.Get(name)
	}
	return out
}
