package filters

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainSession "cdrcgi/internal/domain/session"
	"cdrcgi/internal/infrastructure/upstream"
	"cdrcgi/internal/shared/errors"
)

type mockClient struct {
	upstream.Client
	gotSpecs []upstream.FilterSpec
	gotParms map[string]string
	result   *upstream.FilterResult
	err      error
}

func (m *mockClient) FilterDoc(ctx context.Context, token string, specs []upstream.FilterSpec,
	docID int, parms map[string]string, version *int) (*upstream.FilterResult, error) {
	m.gotSpecs = specs
	m.gotParms = parms
	return m.result, m.err
}

type mockAuditor struct {
	docIDs []uint
}

func (m *mockAuditor) Record(ctx context.Context, docID uint, filters []string,
	parms map[string]string, userName string) {
	m.docIDs = append(m.docIDs, docID)
}

func session() *domainSession.Session {
	return &domainSession.Session{Token: "tok", UserName: "jdoe"}
}

func TestFilterDocPreservesOrder(t *testing.T) {
	client := &mockClient{result: &upstream.FilterResult{Text: "<p>rendered</p>"}}
	adapter := NewAdapter(client, nil, slog.Default())

	result, err := adapter.FilterDoc(context.Background(), session(),
		[]string{"name:Denormalize", "set:QC Summary Set", "name:Final Touches"},
		42, map[string]string{"isQC": "Y"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>rendered</p>", result.Text)

	require.Len(t, client.gotSpecs, 3)
	assert.Equal(t, upstream.FilterSpec{Name: "Denormalize"}, client.gotSpecs[0])
	assert.Equal(t, upstream.FilterSpec{Name: "QC Summary Set", Set: true}, client.gotSpecs[1])
	assert.Equal(t, upstream.FilterSpec{Name: "Final Touches"}, client.gotSpecs[2])
	assert.Equal(t, "Y", client.gotParms["isQC"])
}

func TestFilterDocWarningsSeparateFromBody(t *testing.T) {
	client := &mockClient{result: &upstream.FilterResult{
		Text:     "<p>body</p>",
		Warnings: []string{"deprecated parameter"},
	}}
	adapter := NewAdapter(client, nil, slog.Default())

	result, err := adapter.FilterDoc(context.Background(), session(),
		[]string{"name:QC Filter"}, 42, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>body</p>", result.Text)
	assert.Equal(t, []string{"deprecated parameter"}, result.Warnings)
	assert.NotContains(t, result.Text, "deprecated")
}

func TestFilterDocBadSpelling(t *testing.T) {
	adapter := NewAdapter(&mockClient{}, nil, slog.Default())

	_, err := adapter.FilterDoc(context.Background(), session(),
		[]string{"QC Filter"}, 42, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsInputError(err))
}

func TestFilterDocUpstreamFailure(t *testing.T) {
	client := &mockClient{err: errors.NewFilterError("Filter not found: Bogus")}
	auditor := &mockAuditor{}
	adapter := NewAdapter(client, auditor, slog.Default())

	_, err := adapter.FilterDoc(context.Background(), session(),
		[]string{"name:Bogus"}, 42, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Filter not found")
	assert.Empty(t, auditor.docIDs, "failed invocations are not audited")
}

func TestFilterDocAudits(t *testing.T) {
	client := &mockClient{result: &upstream.FilterResult{Text: "x"}}
	auditor := &mockAuditor{}
	adapter := NewAdapter(client, auditor, slog.Default())

	_, err := adapter.FilterDoc(context.Background(), session(),
		[]string{"name:QC Filter"}, 7, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, auditor.docIDs)
}
