// Package gap decodes alignment gap strings into ungapped exon blocks.
//
// A gap string is a whitespace-separated list of tokens such as
// "M6352 I2 M5901", where each token is an operation code followed by a
// run length. Only match (M), insert (I) and deletion (D) codes are valid.
package gap

import (
	"strconv"
	"strings"
)

// OpType is the kind of a gap operation.
type OpType uint8

const (
	Match    OpType = iota // aligned run, consumes contig and transcript
	Insert                 // bases present in the transcript only
	Deletion               // bases present in the contig only
)

// String returns the single-letter gap code for the operation type.
func (t OpType) String() string {
	switch t {
	case Match:
		return "M"
	case Insert:
		return "I"
	case Deletion:
		return "D"
	}
	return "?"
}

// opTypeFromCode maps a gap code to its OpType.
func opTypeFromCode(code byte) (OpType, bool) {
	switch code {
	case 'M':
		return Match, true
	case 'I':
		return Insert, true
	case 'D':
		return Deletion, true
	}
	return 0, false
}

// Op is a single gap operation with its run length.
type Op struct {
	Type OpType
	Len  int64
}

// String returns the token form of the operation, e.g. "M6352".
func (o Op) String() string {
	return o.Type.String() + strconv.FormatInt(o.Len, 10)
}

// ParseGap splits a gap string into its ordered operations.
// An empty or all-whitespace string is an error: callers handle ungapped
// records without calling ParseGap.
func ParseGap(s string) ([]Op, error) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return nil, ErrEmptyGap
	}

	ops := make([]Op, 0, len(tokens))
	for i, tok := range tokens {
		op, err := parseToken(tok)
		if err != nil {
			err.Pos = i
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// parseToken parses one "<code><digits>" token. Lengths are limited to
// 32 bits, the widest run a RefSeq alignment can describe.
func parseToken(tok string) (Op, *TokenError) {
	if len(tok) < 2 {
		return Op{}, &TokenError{Token: tok, Reason: "too short"}
	}

	typ, ok := opTypeFromCode(tok[0])
	if !ok {
		return Op{}, &TokenError{Token: tok, Reason: "unknown operation code " + strconv.QuoteRune(rune(tok[0]))}
	}

	digits := tok[1:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Op{}, &TokenError{Token: tok, Reason: "length is not a number"}
		}
	}
	n, err := strconv.ParseInt(digits, 10, 32)
	if err != nil {
		return Op{}, &TokenError{Token: tok, Reason: "length out of range"}
	}
	if n <= 0 {
		return Op{}, &TokenError{Token: tok, Reason: "length must be positive"}
	}

	return Op{Type: typ, Len: n}, nil
}

// FormatGap renders operations back into gap string form.
func FormatGap(ops []Op) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = op.String()
	}
	return strings.Join(parts, " ")
}
