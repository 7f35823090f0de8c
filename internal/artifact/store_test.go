package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector/internal/fault"
)

func TestPath(t *testing.T) {
	s := NewStore("data")
	assert.Equal(t, filepath.Join("data", "knowledge_base", "knowledge_base.md"), s.Path(KnowledgeBase))
	assert.Equal(t, filepath.Join("data", "company_profile", "company_profile.md"), s.Path(CompanyProfile))
	assert.Equal(t, filepath.Join("data", "potential_events", "potential_events.json"), s.Path(PotentialEvents))
	assert.Equal(t, filepath.Join("data", "potential_customer", "potential_customer.json"), s.Path(PotentialCustomer))
	assert.Equal(t, filepath.Join("data", "prioritized_companies", "prioritized_companies.json"), s.Path(PrioritizedCompanies))
	assert.Equal(t, filepath.Join("data", "outreach", "outreach_email.json"), s.Path(OutreachEmail))
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("secrets")
	assert.True(t, fault.Is(err, fault.NotFound))
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	tests := []struct {
		name     string
		content  *string
		wantKind fault.Kind
		want     string
	}{
		{name: "missing", content: nil, wantKind: fault.NotFound},
		{name: "empty", content: ptr(""), wantKind: fault.InvalidInput},
		{name: "whitespace only", content: ptr("  \n\t \n"), wantKind: fault.InvalidInput},
		{name: "content", content: ptr("# Acme\n"), want: "# Acme\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".md")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}

			got, err := s.Read(path)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, fault.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadRaw_AllowsEmpty(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	path := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	got, err := s.ReadRaw(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWrite_CreatesDirAndReplaces(t *testing.T) {
	s := NewStore(t.TempDir())
	path := s.Path(PotentialEvents)

	require.NoError(t, s.WriteString(path, `[{"name":"a"}]`))
	assert.True(t, s.Exists(path))

	require.NoError(t, s.WriteString(path, `[]`))
	got, err := s.ReadRaw(path)
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExists_Directory(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	assert.False(t, s.Exists(dir))
	assert.False(t, s.Exists(filepath.Join(dir, "nope")))
}

func ptr(s string) *string { return &s }
