package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Entry() EntryRepository

	Close() error
}
