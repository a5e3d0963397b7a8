package persona

// Store exposes persona retrieval for handlers and services.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the catalog in declaration order.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier. Identifiers are case-sensitive.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Resolve returns the persona for id, falling back to Default and then to the
// first catalog entry.
func Resolve(store Store, id string) Persona {
	if p, ok := store.FindByID(id); ok {
		return p
	}
	if p, ok := store.FindByID(Default); ok {
		return p
	}
	if items := store.List(); len(items) > 0 {
		return items[0]
	}
	return Persona{ID: Default, Name: Default, AlertPrefixes: []string{""}}
}
