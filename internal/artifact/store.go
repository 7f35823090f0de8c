// Package artifact stores and retrieves the file artifacts staged between
// pipeline stages.
package artifact

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/fault"
)

// Kind identifies an artifact with a fixed location under the data root.
type Kind string

const (
	KnowledgeBase        Kind = "knowledge_base"
	CompanyProfile       Kind = "company_profile"
	PotentialEvents      Kind = "potential_events"
	PotentialCustomer    Kind = "potential_customer"
	PrioritizedCompanies Kind = "prioritized_companies"
	OutreachEmail        Kind = "outreach"
)

var fileNames = map[Kind]string{
	KnowledgeBase:        "knowledge_base.md",
	CompanyProfile:       "company_profile.md",
	PotentialEvents:      "potential_events.json",
	PotentialCustomer:    "potential_customer.json",
	PrioritizedCompanies: "prioritized_companies.json",
	OutreachEmail:        "outreach_email.json",
}

// Kinds returns every artifact kind in pipeline order.
func Kinds() []Kind {
	return []Kind{
		KnowledgeBase,
		CompanyProfile,
		PotentialEvents,
		PotentialCustomer,
		PrioritizedCompanies,
		OutreachEmail,
	}
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := fileNames[k]; !ok {
		return "", fault.New(fault.NotFound, "unknown artifact kind %q", s)
	}
	return k, nil
}

// Store reads and writes artifacts beneath a root directory. It holds no
// state besides the root; concurrent writers to one path race with
// last-writer-wins.
type Store struct {
	root string
}

// NewStore creates a Store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the data root.
func (s *Store) Root() string {
	return s.root
}

// Path returns the fixed path for kind: <root>/<kind>/<file>.
func (s *Store) Path(kind Kind) string {
	return filepath.Join(s.root, string(kind), fileNames[kind])
}

// Exists reports whether a regular file exists at path.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ReadRaw returns the content at path. A missing file is a NotFound failure.
func (s *Store) ReadRaw(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fault.Missing(path)
		}
		return "", eris.Wrapf(err, "artifact: read %s", path)
	}
	return string(data), nil
}

// Read returns the content at path, rejecting whitespace-only content as
// InvalidInput.
func (s *Store) Read(path string) (string, error) {
	content, err := s.ReadRaw(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", fault.New(fault.InvalidInput, "content of %q is empty", path)
	}
	return content, nil
}

// Write replaces the file at path with data. The data is written to a
// temporary file in the same directory and renamed over the target, so
// readers see either the old or the new content.
func (s *Store) Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "artifact: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "artifact: create temp for %s", path)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return eris.Wrapf(err, "artifact: write %s", path)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return eris.Wrapf(err, "artifact: sync %s", path)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return eris.Wrapf(err, "artifact: close %s", path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return eris.Wrapf(err, "artifact: chmod %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return eris.Wrapf(err, "artifact: rename into %s", path)
	}
	return nil
}

// WriteString is Write for text artifacts.
func (s *Store) WriteString(path, content string) error {
	return s.Write(path, []byte(content))
}
