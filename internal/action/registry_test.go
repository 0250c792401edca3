package action

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batch-image-processor/internal/imagefile"
)

type stubAction struct {
	desc Descriptor
}

func (s stubAction) Describe() Descriptor { return s.desc }

func (s stubAction) Execute(*imagefile.Handle) (Verdict, error) {
	return Pass("stub"), nil
}

func stub(name string, def, visible bool) stubAction {
	return stubAction{desc: Descriptor{Name: name, Title: name, Status: "Stubbing", DefaultEnabled: def, Visible: visible}}
}

func names(actions []Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Describe().Name)
	}
	return out
}

func TestBuiltin_RegistrationOrder(t *testing.T) {
	assert.Equal(t,
		[]string{"compress_png", "check_power_of_2", "verify_pbr_values", "check_stripped_metadata"},
		names(Builtin().All()),
	)
}

func TestBuiltin_DefaultsMatchReference(t *testing.T) {
	assert.Equal(t, []string{"compress_png"}, names(Builtin().Select(nil)))
}

func TestNewRegistry_DedupesByName(t *testing.T) {
	first := stub("a", true, true)
	second := stubAction{desc: Descriptor{Name: "a", Title: "shadow", DefaultEnabled: true}}
	r := NewRegistry(first, stub("b", false, true), second)

	require.Len(t, r.All(), 2)
	a, ok := r.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "a", a.Describe().Title, "first registration wins")
	assert.Equal(t, []string{"a"}, names(r.Select(nil)))
}

func TestSelect(t *testing.T) {
	r := NewRegistry(
		stub("a", true, true),
		stub("b", false, true),
		stub("c", true, false),
		stub("d", false, false),
	)

	tests := []struct {
		name string
		ids  []string
		want []string
	}{
		{"no allow-list uses defaults", nil, []string{"a", "c"}},
		{"allow-list ignores defaults", []string{"b", "d"}, []string{"b", "d"}},
		{"empty allow-list selects nothing", []string{}, nil},
		{"unknown ids are ignored", []string{"zzz", "b"}, []string{"b"}},
		{"duplicates collapse", []string{"b", "b", "a"}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Select(tt.ids)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestVisible(t *testing.T) {
	r := NewRegistry(stub("a", true, true), stub("hidden", true, false))
	assert.Equal(t, []string{"a"}, names(r.Visible()))
}

func TestSelection_SeedsFromDefaults(t *testing.T) {
	r := NewRegistry(stub("a", true, true), stub("b", false, true), stub("required", true, false))
	s := NewSelection(r)

	assert.Equal(t, []string{"a", "required"}, s.IDs())
	assert.True(t, s.Enabled("required"))
	assert.False(t, s.Enabled("b"))
}

func TestSelection_SetEnabled(t *testing.T) {
	r := NewRegistry(stub("a", true, true), stub("b", false, true), stub("required", true, false))
	s := NewSelection(r)

	require.NoError(t, s.SetEnabled("b", true))
	require.NoError(t, s.SetEnabled("a", false))
	assert.Equal(t, []string{"b", "required"}, s.IDs())

	err := s.SetEnabled("nope", true)
	assert.True(t, errors.Is(err, ErrUnknownAction))

	err = s.SetEnabled("required", false)
	assert.True(t, errors.Is(err, ErrHiddenAction))
	assert.True(t, s.Enabled("required"))
}

func TestSelection_IDsNeverNil(t *testing.T) {
	s := NewSelection(NewRegistry(stub("a", false, true)))
	ids := s.IDs()
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
	assert.Empty(t, NewRegistry(stub("a", true, true)).Select(ids))
}
