package artifact

// Viewer is a read-only pass-through over the fixed artifact paths. It does
// not parse or transform content.
type Viewer struct {
	store *Store
}

// NewViewer creates a Viewer over store.
func NewViewer(store *Store) *Viewer {
	return &Viewer{store: store}
}

// View returns the raw content of kind's artifact, or a NotFound failure.
func (v *Viewer) View(kind Kind) (string, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return "", err
	}
	return v.store.ReadRaw(v.store.Path(kind))
}
