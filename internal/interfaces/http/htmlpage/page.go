// Package htmlpage composes the HTML forms and reports the interactive
// endpoints emit. It is the only place user text meets markup: every
// value is escaped on insertion, and callers never concatenate raw
// strings into a page.
package htmlpage

import (
	"fmt"
	"html"
	"net/url"
	"strings"
)

// Severity classifies an alert rendered atop the page.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Alert is one user-visible message attached to the next rendered page.
type Alert struct {
	Text     string
	Severity Severity
}

// Page accumulates a document; Render produces the final markup.
type Page struct {
	title    string
	subtitle string
	action   string
	alerts   []Alert
	hidden   [][2]string
	buttons  []string
	segments []string // already-escaped markup, in order
}

func New(title, subtitle string) *Page {
	return &Page{title: title, subtitle: subtitle}
}

// SetAction points the page's form at a script.
func (p *Page) SetAction(action string) {
	p.action = action
}

// AddAlert queues a message for the top of the page.
func (p *Page) AddAlert(text string, severity Severity) {
	p.alerts = append(p.alerts, Alert{Text: text, Severity: severity})
}

// AddAlerts queues a batch of collected messages.
func (p *Page) AddAlerts(alerts []Alert) {
	p.alerts = append(p.alerts, alerts...)
}

// HiddenField carries a value through the form round-trip.
func (p *Page) HiddenField(name, value string) {
	p.hidden = append(p.hidden, [2]string{name, value})
}

// Buttons sets the labels submitted through the Request parameter.
func (p *Page) Buttons(labels ...string) {
	p.buttons = labels
}

// Fieldset opens a labeled group of form controls.
func (p *Page) Fieldset(legend string) *Fieldset {
	fs := &Fieldset{page: p}
	fs.parts = append(fs.parts, fmt.Sprintf("<fieldset>\n<legend>%s</legend>", esc(legend)))
	return fs
}

// MenuLink renders one navigation entry, preserving the session
// parameter.
func (p *Page) MenuLink(script, label string, params map[string]string) {
	values := url.Values{}
	for name, value := range params {
		values.Set(name, value)
	}
	href := script
	if encoded := values.Encode(); encoded != "" {
		href += "?" + encoded
	}
	p.segments = append(p.segments,
		fmt.Sprintf(`<li><a href="%s">%s</a></li>`, esc(href), esc(label)))
}

// Pre renders text escaped inside a pre block; used for raw XML
// display.
func (p *Page) Pre(text string) {
	p.segments = append(p.segments, "<pre>"+esc(text)+"</pre>")
}

// TrustedHTML inserts markup that has already been sanitized (markdown
// announcements, filtered-document output passed through the sanitizer
// policy). Callers own that guarantee.
func (p *Page) TrustedHTML(markup string) {
	p.segments = append(p.segments, markup)
}

// AddTable renders a tabular report.
func (p *Page) AddTable(t *Table) {
	p.segments = append(p.segments, t.render())
}

// Render composes the document.
func (p *Page) Render() string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", esc(p.title))
	sb.WriteString(`<meta charset="utf-8">` + "\n</head>\n<body>\n")
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", esc(p.title))
	if p.subtitle != "" {
		fmt.Fprintf(&sb, "<h2>%s</h2>\n", esc(p.subtitle))
	}

	for _, alert := range p.alerts {
		fmt.Fprintf(&sb, `<p class="alert alert-%s">%s</p>`+"\n",
			esc(string(alert.Severity)), esc(alert.Text))
	}

	hasForm := p.action != ""
	if hasForm {
		fmt.Fprintf(&sb, `<form action="%s" method="post">`+"\n", esc(p.action))
		for _, field := range p.hidden {
			fmt.Fprintf(&sb, `<input type="hidden" name="%s" value="%s">`+"\n",
				esc(field[0]), esc(field[1]))
		}
	}

	for _, segment := range p.segments {
		sb.WriteString(segment)
		sb.WriteString("\n")
	}

	if hasForm {
		for _, label := range p.buttons {
			fmt.Fprintf(&sb, `<input type="submit" name="Request" value="%s">`+"\n", esc(label))
		}
		sb.WriteString("</form>\n")
	}
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

// Fieldset groups form controls under a legend.
type Fieldset struct {
	page  *Page
	parts []string
}

// TextField adds a labeled single-line input.
func (fs *Fieldset) TextField(name, label, value string) *Fieldset {
	fs.parts = append(fs.parts, fmt.Sprintf(
		`<label for="%s">%s</label> <input type="text" id="%s" name="%s" value="%s">`,
		esc(name), esc(label), esc(name), esc(name), esc(value)))
	return fs
}

// Select adds a labeled choice list; the empty first option means "no
// selection".
func (fs *Fieldset) Select(name, label string, options []string, selected string) *Fieldset {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<label for="%s">%s</label> <select id="%s" name="%s">`,
		esc(name), esc(label), esc(name), esc(name))
	sb.WriteString(`<option value=""></option>`)
	for _, option := range options {
		marker := ""
		if option == selected && option != "" {
			marker = " selected"
		}
		fmt.Fprintf(&sb, `<option value="%s"%s>%s</option>`, esc(option), marker, esc(option))
	}
	sb.WriteString("</select>")
	fs.parts = append(fs.parts, sb.String())
	return fs
}

// Done closes the fieldset and attaches it to the page.
func (fs *Fieldset) Done() {
	fs.parts = append(fs.parts, "</fieldset>")
	fs.page.segments = append(fs.page.segments, strings.Join(fs.parts, "\n"))
}

func esc(s string) string {
	return html.EscapeString(s)
}
