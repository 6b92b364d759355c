package history

// Snapshot is the state of a buffer at one point in time.
type Snapshot struct {
	Content        string
	SelectionStart int
	SelectionEnd   int
}

// Buffer is the text buffer a Manager records and restores.
// It is owned by the UI layer.
type Buffer interface {
	State() Snapshot
	SetState(Snapshot)
	Focus()
}
