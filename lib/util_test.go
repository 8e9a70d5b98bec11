package lib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinLenPrefix(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		input    [][]byte
		expected []byte
	}{
		{
			name:     "single segment",
			detail:   "a single segment is prefixed with its length",
			input:    [][]byte{[]byte("pool")},
			expected: append([]byte{4}, []byte("pool")...),
		},
		{
			name:     "nil segments skipped",
			detail:   "nil segments don't contribute a length byte",
			input:    [][]byte{{1}, nil, {2, 3}},
			expected: []byte{1, 1, 2, 2, 3},
		},
		{
			name:     "empty",
			detail:   "no segments produce no bytes",
			input:    nil,
			expected: nil,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := JoinLenPrefix(test.input...)
			require.Equal(t, test.expected, got)
		})
	}
}

func TestDecodeLengthPrefixed(t *testing.T) {
	// build a key from multiple segments
	key := JoinLenPrefix([]byte{9}, []byte("provider"), FormatUint64(77))
	// decode the key
	segments := DecodeLengthPrefixed(key)
	// validate the segments
	require.Len(t, segments, 3)
	require.Equal(t, []byte{9}, segments[0])
	require.Equal(t, []byte("provider"), segments[1])
	require.EqualValues(t, 77, ParseUint64(segments[2]))
	// a corrupt key panics
	require.Panics(t, func() { DecodeLengthPrefixed([]byte{5, 1}) })
}

func TestFormatUint64Ordering(t *testing.T) {
	// big endian keeps numeric order under byte comparison
	require.Less(t, string(FormatUint64(255)), string(FormatUint64(256)))
	require.Zero(t, ParseUint64([]byte{1}))
}
