package dal

// MemoryDAL implements BoardDAL using in-memory storage
type MemoryDAL struct {
	*sessionStore
}

// NewMemoryDAL creates a new in-memory data access layer holding the given
// default categories (board.DefaultCategories when empty)
func NewMemoryDAL(defaults []string) *MemoryDAL {
	// without a persister newSessionStore cannot fail
	s, _ := newSessionStore(defaults, nil)
	return &MemoryDAL{sessionStore: s}
}
