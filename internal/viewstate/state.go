// Package viewstate holds list adapters that sit between a remote list
// endpoint and whatever renders it. Each adapter exposes a snapshot of
// {data, loading, error}, a stable Refetch and optimistic local removal.
package viewstate

// State is a point-in-time copy of an adapter.
type State[T any] struct {
	// Data is never nil; an errored or idle adapter holds an empty slice.
	Data []T

	// Loading is true only while the latest issued fetch is outstanding.
	Loading bool

	// Err is the message of the last failed fetch. HasError distinguishes
	// "no error" from an empty message.
	Err      string
	HasError bool

	// Seq is the sequence number of the latest issued fetch.
	Seq uint64

	// Version increases on every transition. Observers may receive states
	// out of order under concurrent use and can drop older versions.
	Version uint64
}

// Error returns the error message or nil, mirroring a nullable field.
func (s State[T]) Error() *string {
	if !s.HasError {
		return nil
	}
	msg := s.Err
	return &msg
}
