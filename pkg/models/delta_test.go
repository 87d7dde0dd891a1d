package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(name string, in, out []string) *Producer {
	return MustProducer(ProducerConfig{
		Module: "test",
		Name:   name,
		Call:   name + "({df}, {output}, {input})",
		Input:  Quantities(in...),
		Output: Quantities(out...),
		Scopes: []string{"mt", "et"},
	})
}

func ids(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID())
	}

	return out
}

func TestApplyDeltas(t *testing.T) {
	a := leaf("A", nil, []string{"x"})
	b := leaf("B", []string{"x"}, []string{"y"})
	c := leaf("C", []string{"y"}, []string{"z"})
	n := leaf("N", nil, []string{"n"})

	tests := []struct {
		name         string
		base         []Node
		deltas       []Delta
		expected     []string
		warningCount int
	}{
		{
			name:     "append goes to the tail",
			base:     []Node{a, b},
			deltas:   []Delta{Append(c)},
			expected: []string{"test.A", "test.B", "test.C"},
		},
		{
			name:     "remove every occurrence",
			base:     []Node{a, b, a},
			deltas:   []Delta{Remove(a)},
			expected: []string{"test.B"},
		},
		{
			name:         "remove missing producer leaves list unchanged",
			base:         []Node{a, b},
			deltas:       []Delta{Remove(c)},
			expected:     []string{"test.A", "test.B"},
			warningCount: 1,
		},
		{
			name:     "replace keeps position",
			base:     []Node{a, b, c},
			deltas:   []Delta{Replace(b, n)},
			expected: []string{"test.A", "test.N", "test.C"},
		},
		{
			name:     "replace inserts once at the first occurrence",
			base:     []Node{a, b, a},
			deltas:   []Delta{Replace(a, n)},
			expected: []string{"test.N", "test.B"},
		},
		{
			name:         "replace missing appends exactly once",
			base:         []Node{a, b},
			deltas:       []Delta{Replace(c, n)},
			expected:     []string{"test.A", "test.B", "test.N"},
			warningCount: 1,
		},
		{
			name:     "operations apply in order",
			base:     []Node{a, b},
			deltas:   []Delta{Append(c), Remove(a), Replace(c, n)},
			expected: []string{"test.B", "test.N"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, warnings := ApplyDeltas(tt.base, tt.deltas)
			assert.Equal(t, tt.expected, ids(result))
			assert.Len(t, warnings, tt.warningCount)
			for _, w := range warnings {
				assert.ErrorIs(t, w, ErrUnknownShiftTarget)
			}
		})
	}
}

func TestApplyDeltas_DoesNotMutateBase(t *testing.T) {
	a := leaf("A", nil, []string{"x"})
	b := leaf("B", []string{"x"}, []string{"y"})
	n := leaf("N", nil, []string{"n"})
	base := []Node{a, b}

	_, _ = ApplyDeltas(base, []Delta{Replace(a, n), Append(n)})

	assert.Equal(t, []string{"test.A", "test.B"}, ids(base))
}

func TestDelta_Validate(t *testing.T) {
	a := leaf("A", nil, []string{"x"})

	require.NoError(t, Append(a).Validate())
	require.NoError(t, Remove(a).Validate())
	require.NoError(t, Replace(a, a).Validate())
	require.ErrorIs(t, Delta{Op: DeltaAppend}.Validate(), ErrInvalidDelta)
	require.ErrorIs(t, Delta{Op: DeltaReplace, Target: a}.Validate(), ErrInvalidDelta)
	require.ErrorIs(t, Delta{Op: DeltaOp(9)}.Validate(), ErrInvalidDelta)
	assert.Equal(t, "replace test.A with test.A", Replace(a, a).String())
}
