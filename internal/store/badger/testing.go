package badger

// NewMemoryRepository creates an in-memory evidence repository for testing.
// Caller must close the backend when done.
func NewMemoryRepository() (*EvidenceRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}
	return NewEvidenceRepository(backend), backend, nil
}
