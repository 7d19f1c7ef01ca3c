package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct{ A int }

type sampleConf struct {
	A int    `json:"a"`
	B string `json:"b"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sample]()
	if err := reg.Register("s", func(conf map[string]any) (*sample, error) {
		var c sampleConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sample{A: c.A}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"a": 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.A != 3 {
		t.Fatalf("expected 3 got %d", inst.A)
	}
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	_, err := reg.Create(ModuleConfig{Type: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[x]")
	assert.ErrorIs(t, err, ErrUnknownModule)
}

func TestRegistry_CreateAll(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("one", func(map[string]any) (int, error) { return 1, nil }))
	require.NoError(t, reg.Register("two", func(map[string]any) (int, error) { return 2, nil }))

	got, err := reg.CreateAll("sinks", []ModuleConfig{{Type: "two"}, {Type: "one"}})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, got)

	_, err = reg.CreateAll("sinks", []ModuleConfig{{Type: "one"}, {Type: "influxx"}})
	require.ErrorIs(t, err, ErrUnknownModule)
	assert.Contains(t, err.Error(), `sinks[1] (influxx)`)

	got, err = reg.CreateAll("sinks", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecode_WeakTypes(t *testing.T) {
	var c sampleConf
	require.NoError(t, Decode(map[string]any{"a": "7", "b": "v"}, &c))
	assert.Equal(t, sampleConf{A: 7, B: "v"}, c)
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry[int]()
	for _, n := range []string{"b", "a", "c"} {
		require.NoError(t, reg.Register(n, func(map[string]any) (int, error) { return 0, nil }))
	}
	assert.Equal(t, []string{"a", "b", "c"}, reg.Names())
}
