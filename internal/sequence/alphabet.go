package sequence

// Symbol is the rank of a nucleotide in the five-letter DNA alphabet.
//
// Canonical bases occupy ranks 0..3 in lexicographic order; every other
// input character collapses to Wildcard.
type Symbol uint8

const (
	A Symbol = iota
	C
	G
	T
	// Wildcard represents N and any character outside the canonical bases.
	Wildcard
)

// AlphabetSize is the number of distinct symbols.
const AlphabetSize = 5

// Placeholder is the character decoded for the wildcard symbol.
const Placeholder byte = 'N'

var encodeTable = func() [256]Symbol {
	var t [256]Symbol
	for i := range t {
		t[i] = Wildcard
	}
	t['A'], t['a'] = A, A
	t['C'], t['c'] = C, C
	t['G'], t['g'] = G, G
	t['T'], t['t'] = T, T
	t['U'], t['u'] = T, T
	return t
}()

var decodeTable = [AlphabetSize]byte{'A', 'C', 'G', 'T', Placeholder}

// Encode maps a character to its symbol. It never fails: unrecognized
// characters become Wildcard.
func Encode(c byte) Symbol {
	return encodeTable[c]
}

// Decode maps a symbol back to its character. Out-of-range values decode
// like the wildcard.
func Decode(s Symbol) byte {
	if s >= AlphabetSize {
		return Placeholder
	}
	return decodeTable[s]
}

// IsCanonical reports whether s is one of A, C, G, T.
func (s Symbol) IsCanonical() bool {
	return s < Wildcard
}

func (s Symbol) String() string {
	return string(Decode(s))
}

// EncodeString encodes every byte of bases.
func EncodeString(bases string) []Symbol {
	out := make([]Symbol, len(bases))
	for i := 0; i < len(bases); i++ {
		out[i] = encodeTable[bases[i]]
	}
	return out
}

// EncodeBytes encodes every byte of bases.
func EncodeBytes(bases []byte) []Symbol {
	out := make([]Symbol, len(bases))
	for i, c := range bases {
		out[i] = encodeTable[c]
	}
	return out
}

// DecodeSymbols renders symbols as an upper-case string.
func DecodeSymbols(symbols []Symbol) string {
	buf := make([]byte, len(symbols))
	for i, s := range symbols {
		buf[i] = Decode(s)
	}
	return string(buf)
}

// ComplementSymbol returns the Watson-Crick complement; the wildcard is its
// own complement.
func ComplementSymbol(s Symbol) Symbol {
	if s.IsCanonical() {
		return T - s
	}
	return Wildcard
}
