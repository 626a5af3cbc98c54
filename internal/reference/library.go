package reference

// Library pairs a record store with the formatter used to render it.
type Library struct {
	store     Store
	formatter Formatter
}

// NewLibrary creates a library over store. A nil formatter makes every
// citation degrade to the plain fallback.
func NewLibrary(store Store, formatter Formatter) *Library {
	return &Library{store: store, formatter: formatter}
}

// Has reports whether key exists in the backing store.
func (l *Library) Has(key string) bool {
	_, ok := l.store.Lookup(key)
	return ok
}

// Reference builds the reference for key.
func (l *Library) Reference(key string) (*Reference, error) {
	return New(l.store, key)
}

// Cite formats the reference for key. It fails only with ErrNotFound.
func (l *Library) Cite(key string) (Citation, error) {
	ref, err := New(l.store, key)
	if err != nil {
		return Citation{}, err
	}
	return ref.Format(l.formatter), nil
}
