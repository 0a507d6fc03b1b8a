package webapp_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ledgerdemo/internal/webapp"
)

func TestDefaultRegistryCoversEachDomain(t *testing.T) {
	r := webapp.DefaultRegistry()
	require.NotEmpty(t, r.Ops)

	for _, name := range []string{"accounts", "contacts", "invoices", "assets", "projects", "payroll-employees"} {
		op, ok := r.Find(name)
		require.True(t, ok, "missing default operation %s", name)
		require.NotEmpty(t, op.APIPath)
	}

	create, ok := r.Find("invoice-create")
	require.True(t, ok)
	require.Equal(t, "POST", create.Method)
	require.NotNil(t, create.Body)
}

func TestLoadRegistryFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orgs.yaml"), []byte(`
name: organisation
method: GET
api_path: Organisation
summary: Show the organisation record
summary_path: "Organisations[0].Name"
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	r, err := webapp.LoadRegistry(dir)
	require.NoError(t, err)
	require.Len(t, r.Ops, 1)

	op, ok := r.Find("organisation")
	require.True(t, ok)
	require.Equal(t, "GET", op.Method)
	require.Equal(t, "Organisation", op.APIPath)
}

func TestLoadRegistryBadYaml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("{nope: ["), 0o644))

	_, err := webapp.LoadRegistry(dir)
	require.Error(t, err)
}

func TestLoadRegistryEmptyDirFallsBack(t *testing.T) {
	r, err := webapp.LoadRegistry(t.TempDir())
	require.NoError(t, err)
	require.NotEmpty(t, r.Ops)
}

func TestSummarize(t *testing.T) {
	raw := json.RawMessage(`{"Invoices":[{"InvoiceNumber":"INV-001"},{"InvoiceNumber":"INV-002"}]}`)
	op := webapp.Operation{SummaryPath: "Invoices[].InvoiceNumber"}

	got, err := webapp.Summarize(op, raw)
	require.NoError(t, err)
	require.Equal(t, []any{"INV-001", "INV-002"}, got)
}

func TestSummarizeWithoutPath(t *testing.T) {
	got, err := webapp.Summarize(webapp.Operation{}, json.RawMessage(`{}`))
	require.NoError(t, err)
	require.Nil(t, got)
}
