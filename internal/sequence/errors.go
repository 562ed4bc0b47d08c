package sequence

import "fmt"

// SequenceError is the base error type for sequence operations.
type SequenceError interface {
	error
	IsSequenceError()
}

// OutOfRangeError is returned when a slice request falls outside a sequence.
type OutOfRangeError struct {
	Start  int
	End    int
	Length int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("range [%d, %d) outside sequence of length %d", e.Start, e.End, e.Length)
}

func (e *OutOfRangeError) IsSequenceError() {}

// IdentityError is returned when a sequence identity is not part of a collection.
type IdentityError struct {
	ID    int
	Count int
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("sequence identity %d not in collection of %d sequences", e.ID, e.Count)
}

func (e *IdentityError) IsSequenceError() {}
