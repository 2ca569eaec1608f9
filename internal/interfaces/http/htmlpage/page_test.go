package htmlpage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserTextIsEscaped(t *testing.T) {
	p := New("CDR Administration", "Advanced Search")
	p.SetAction("/cgi-bin/cdr/search")
	p.HiddenField("Session", `tok"><script>alert(1)</script>`)
	fs := p.Fieldset("Search Fields")
	fs.TextField("name", "Name", `<img src=x onerror=alert(1)>`)
	fs.Done()

	out := p.Render()
	assert.NotContains(t, out, "<script>alert")
	assert.NotContains(t, out, "<img src=x")
	assert.Contains(t, out, "&lt;img src=x")
}

func TestAlertsRenderWithSeverity(t *testing.T) {
	p := New("CDR Administration", "")
	p.AddAlert("You are not currently logged in.", SeverityWarning)

	out := p.Render()
	assert.Contains(t, out, `class="alert alert-warning"`)
	assert.Contains(t, out, "You are not currently logged in.")
}

func TestSelectMarksSelection(t *testing.T) {
	p := New("t", "")
	fs := p.Fieldset("f")
	fs.Select("country", "Country", []string{"Canada", "Chile"}, "Chile")
	fs.Done()

	out := p.Render()
	assert.Contains(t, out, `<option value="Chile" selected>Chile</option>`)
	assert.Contains(t, out, `<option value="Canada">Canada</option>`)
	// Empty leading option allows "no selection".
	assert.Contains(t, out, `<option value=""></option>`)
}

func TestMenuLinkPreservesSession(t *testing.T) {
	p := New("t", "")
	p.MenuLink("logout.py", "Log Out", map[string]string{"Session": "tok"})

	out := p.Render()
	assert.Contains(t, out, "logout.py?Session=tok")
}

func TestPreEscapesXML(t *testing.T) {
	p := New("t", "")
	p.Pre("<Schema><element name=\"Title\"/></Schema>")

	out := p.Render()
	assert.Contains(t, out, "<pre>&lt;Schema&gt;")
	assert.NotContains(t, out, "<Schema>")
}

func TestTableRendering(t *testing.T) {
	table := &Table{
		Caption: "Matching Documents",
		Columns: []string{"DocId", "Title"},
		Rows:    [][]string{{"CDR0000000042", "Canada & Provinces"}},
	}
	p := New("t", "")
	p.AddTable(table)

	out := p.Render()
	assert.Contains(t, out, "<caption>Matching Documents</caption>")
	assert.Contains(t, out, "<th>DocId</th>")
	assert.Contains(t, out, "Canada &amp; Provinces")
}

func TestButtonsRenderAsRequest(t *testing.T) {
	p := New("t", "")
	p.SetAction("/x")
	p.Buttons("Submit", "Log Out")

	out := p.Render()
	assert.Equal(t, 2, strings.Count(out, `name="Request"`))
	assert.Contains(t, out, `value="Log Out"`)
}

func TestNoFormWithoutAction(t *testing.T) {
	out := New("t", "").Render()
	assert.NotContains(t, out, "<form")
}
