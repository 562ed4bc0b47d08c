// Package storage persists indexes and sequence collections.
//
// A blob is a fixed header followed by a gzip-compressed gob payload:
//
//	magic "CUBA" | version uint16 | variant uint8 | payload length uint64 |
//	blake2b-256 of the payload | payload
//
// Integers are little endian. The checksum covers the compressed payload, so
// truncation and bit flips are detected before decoding. Decoded indexes are
// structurally validated before they are returned.
package storage

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/aria-lang/cuba-go/internal/fmindex"
	"github.com/aria-lang/cuba-go/internal/sequence"
	"golang.org/x/crypto/blake2b"
)

const (
	// FormatVersion is the blob layout version written by this package.
	FormatVersion uint16 = 1

	headerSize = 4 + 2 + 1 + 8 + blake2b.Size256
)

var magic = [4]byte{'C', 'U', 'B', 'A'}

// Variant tags the payload of a blob.
type Variant uint8

const (
	VariantFMIndex Variant = iota + 1
	VariantBiFMIndex
	VariantCollection
)

func (v Variant) String() string {
	switch v {
	case VariantFMIndex:
		return "fmi"
	case VariantBiFMIndex:
		return "bifmi"
	case VariantCollection:
		return "seqs"
	default:
		return fmt.Sprintf("variant(%d)", uint8(v))
	}
}

// VariantOf returns the tag of an index kind.
func VariantOf(kind fmindex.Kind) Variant {
	if kind == fmindex.Bidirectional {
		return VariantBiFMIndex
	}
	return VariantFMIndex
}

type header struct {
	Version  uint16
	Variant  Variant
	Length   uint64
	Checksum [blake2b.Size256]byte
}

// collectionPayload is the gob form of a sequence collection.
type collectionPayload struct {
	Sequences   []*sequence.Sequence
	Fingerprint uint64
}

// WriteIndex serializes idx to w.
func WriteIndex(w io.Writer, idx fmindex.Index) error {
	switch idx.(type) {
	case *fmindex.FMIndex, *fmindex.BiFMIndex:
		return writeBlob(w, VariantOf(idx.Kind()), idx)
	default:
		return fmt.Errorf("cannot serialize index of type %T", idx)
	}
}

// ReadIndex deserializes an index of either variant from r.
func ReadIndex(r io.Reader) (fmindex.Index, error) {
	h, payload, err := readBlob(r)
	if err != nil {
		return nil, err
	}

	var idx fmindex.Index
	switch h.Variant {
	case VariantFMIndex:
		x := new(fmindex.FMIndex)
		if err := decode(payload, x); err != nil {
			return nil, err
		}
		idx = x
	case VariantBiFMIndex:
		x := new(fmindex.BiFMIndex)
		if err := decode(payload, x); err != nil {
			return nil, err
		}
		idx = x
	default:
		return nil, &CorruptError{Reason: fmt.Sprintf("blob holds %s, not an index", h.Variant)}
	}
	if err := fmindex.Validate(idx); err != nil {
		return nil, &CorruptError{Reason: "index fails validation", Err: err}
	}
	return idx, nil
}

// WriteCollection serializes coll to w.
func WriteCollection(w io.Writer, coll *sequence.Collection) error {
	return writeBlob(w, VariantCollection, &collectionPayload{
		Sequences:   coll.Sequences(),
		Fingerprint: coll.Fingerprint(),
	})
}

// ReadCollection deserializes a sequence collection from r.
func ReadCollection(r io.Reader) (*sequence.Collection, error) {
	h, payload, err := readBlob(r)
	if err != nil {
		return nil, err
	}
	if h.Variant != VariantCollection {
		return nil, &CorruptError{Reason: fmt.Sprintf("blob holds %s, not a sequence collection", h.Variant)}
	}
	var p collectionPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	for i, s := range p.Sequences {
		if s == nil {
			return nil, &CorruptError{Reason: fmt.Sprintf("sequence %d missing", i)}
		}
		for _, sym := range s.Symbols {
			if int(sym) >= sequence.AlphabetSize {
				return nil, &CorruptError{Reason: fmt.Sprintf("sequence %d holds invalid symbol %d", i, sym)}
			}
		}
	}
	coll := sequence.NewCollection(p.Sequences...)
	if coll.Fingerprint() != p.Fingerprint {
		return nil, &CorruptError{Reason: "sequence collection fingerprint mismatch"}
	}
	return coll, nil
}

// CheckPair verifies that idx was built from coll.
func CheckPair(idx fmindex.Index, coll *sequence.Collection) error {
	if idx.NumSequences() != coll.Len() {
		return &MismatchError{
			IndexSequences:      idx.NumSequences(),
			CollectionSequences: coll.Len(),
			Reason:              "sequence counts differ",
		}
	}
	if idx.Fingerprint() != coll.Fingerprint() {
		return &MismatchError{
			IndexSequences:      idx.NumSequences(),
			CollectionSequences: coll.Len(),
			Reason:              "sequence contents differ",
		}
	}
	return nil
}

func writeBlob(w io.Writer, v Variant, payload any) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(zw).Encode(payload); err != nil {
		return fmt.Errorf("encoding %s payload: %w", v, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing %s payload: %w", v, err)
	}

	h := header{
		Version:  FormatVersion,
		Variant:  v,
		Length:   uint64(buf.Len()),
		Checksum: blake2b.Sum256(buf.Bytes()),
	}
	var hb [headerSize]byte
	copy(hb[:4], magic[:])
	binary.LittleEndian.PutUint16(hb[4:6], h.Version)
	hb[6] = byte(h.Variant)
	binary.LittleEndian.PutUint64(hb[7:15], h.Length)
	copy(hb[15:], h.Checksum[:])

	if _, err := w.Write(hb[:]); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing %s payload: %w", v, err)
	}
	return nil
}

func readBlob(r io.Reader) (header, []byte, error) {
	var h header
	var hb [headerSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return h, nil, &CorruptError{Reason: "truncated header", Err: err}
		}
		return h, nil, err
	}
	if !bytes.Equal(hb[:4], magic[:]) {
		return h, nil, &CorruptError{Reason: "bad magic"}
	}
	h.Version = binary.LittleEndian.Uint16(hb[4:6])
	if h.Version != FormatVersion {
		return h, nil, &CorruptError{Reason: fmt.Sprintf("unsupported format version %d", h.Version)}
	}
	h.Variant = Variant(hb[6])
	switch h.Variant {
	case VariantFMIndex, VariantBiFMIndex, VariantCollection:
	default:
		return h, nil, &CorruptError{Reason: fmt.Sprintf("unknown variant tag %d", hb[6])}
	}
	h.Length = binary.LittleEndian.Uint64(hb[7:15])
	copy(h.Checksum[:], hb[15:])

	var payload bytes.Buffer
	n, err := io.Copy(&payload, io.LimitReader(r, int64(h.Length)))
	if err != nil {
		return h, nil, err
	}
	if uint64(n) != h.Length {
		return h, nil, &CorruptError{Reason: fmt.Sprintf("payload truncated at %d of %d bytes", n, h.Length)}
	}
	if blake2b.Sum256(payload.Bytes()) != h.Checksum {
		return h, nil, &CorruptError{Reason: "checksum mismatch"}
	}
	return h, payload.Bytes(), nil
}

func decode(payload []byte, v any) error {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return &CorruptError{Reason: "payload is not gzip", Err: err}
	}
	defer zr.Close()
	if err := gob.NewDecoder(zr).Decode(v); err != nil {
		return &CorruptError{Reason: "payload does not decode", Err: err}
	}
	return nil
}
