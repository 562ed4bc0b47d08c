package storage

import "fmt"

// CorruptError reports a blob that fails structural validation.
type CorruptError struct {
	Reason string
	Err    error
}

func (e *CorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt data: %s: %v", e.Reason, e.Err)
	}
	return "corrupt data: " + e.Reason
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// MismatchError reports an index and a collection that do not belong
// together.
type MismatchError struct {
	IndexSequences      int
	CollectionSequences int
	Reason              string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("index (%d sequences) does not match collection (%d sequences): %s",
		e.IndexSequences, e.CollectionSequences, e.Reason)
}

// ExtensionError reports an index path whose extension does not match the
// requested directionality.
type ExtensionError struct {
	Path string
	Want string
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("%s: wrong filename extension, expected %s", e.Path, e.Want)
}
