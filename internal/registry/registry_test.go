package registry

import (
	"errors"
	"testing"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// registryMock is a simple product for testing registry functionality.
type registryMock struct {
	size int
}

func sizeStrategy(method string) domain.Strategy {
	return domain.Strategy{
		Method: method,
		Params: map[string]domain.ParamSpec{
			"size": {Label: "Size", Type: domain.ParamInt, Default: 10, Min: domain.Bound(1)},
		},
	}
}

func sizeBuilder(params map[string]any) (*registryMock, error) {
	return &registryMock{size: domain.IntParam(params, "size")}, nil
}

func TestNew(t *testing.T) {
	r := New[*registryMock]("test")
	if r == nil {
		t.Fatal("New returned nil")
	}
	if len(r.entries) != 0 {
		t.Errorf("expected empty entries, got %d", len(r.entries))
	}
}

func TestRegistry_Register(t *testing.T) {
	r := New[*registryMock]("test")

	if err := r.Register(sizeStrategy("a"), sizeBuilder); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !r.Has("a") {
		t.Error("expected 'a' to be registered")
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := New[*registryMock]("test")

	if err := r.Register(sizeStrategy("a"), sizeBuilder); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(sizeStrategy("a"), sizeBuilder); err == nil {
		t.Error("expected error for duplicate method")
	}
}

func TestRegistry_Register_InvalidDefaults(t *testing.T) {
	r := New[*registryMock]("test")

	s := sizeStrategy("bad")
	s.Params["size"] = domain.ParamSpec{Type: domain.ParamInt, Default: 0, Min: domain.Bound(1)}

	if err := r.Register(s, sizeBuilder); err == nil {
		t.Error("expected error for defaults that fail validation")
	}
	if err := r.Register(domain.Strategy{}, sizeBuilder); err == nil {
		t.Error("expected error for empty method")
	}
}

func TestRegistry_Build_Success(t *testing.T) {
	r := New[*registryMock]("test")
	_ = r.Register(sizeStrategy("a"), sizeBuilder)

	inst, params, err := r.Build("a", map[string]any{"size": float64(42), "name": "custom"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if inst.size != 42 {
		t.Errorf("expected size 42, got %d", inst.size)
	}
	if params["name"] != "custom" {
		t.Errorf("expected name to pass through, got %v", params["name"])
	}
}

func TestRegistry_Build_Defaults(t *testing.T) {
	r := New[*registryMock]("test")
	_ = r.Register(sizeStrategy("a"), sizeBuilder)

	inst, _, err := r.Build("a", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if inst.size != 10 {
		t.Errorf("expected default size 10, got %d", inst.size)
	}
}

func TestRegistry_Build_UnknownMethod(t *testing.T) {
	r := New[*registryMock]("test")

	_, _, err := r.Build("unknown", nil)
	if !errors.Is(err, domain.ErrUnsupportedMethod) {
		t.Errorf("expected ErrUnsupportedMethod, got %v", err)
	}

	_, err = r.Schema("unknown")
	if !errors.Is(err, domain.ErrUnsupportedMethod) {
		t.Errorf("expected ErrUnsupportedMethod from Schema, got %v", err)
	}
}

func TestRegistry_Build_InvalidParams(t *testing.T) {
	r := New[*registryMock]("test")
	_ = r.Register(sizeStrategy("a"), sizeBuilder)

	_, _, err := r.Build("a", map[string]any{"size": 0})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestRegistry_Build_BuilderError(t *testing.T) {
	r := New[*registryMock]("test")
	boom := errors.New("boom")
	_ = r.Register(sizeStrategy("a"), func(map[string]any) (*registryMock, error) {
		return nil, boom
	})

	_, _, err := r.Build("a", nil)
	if !errors.Is(err, boom) {
		t.Errorf("expected builder error, got %v", err)
	}
}

func TestRegistry_Methods(t *testing.T) {
	r := New[*registryMock]("test")
	_ = r.Register(sizeStrategy("c"), sizeBuilder)
	_ = r.Register(sizeStrategy("a"), sizeBuilder)
	_ = r.Register(sizeStrategy("b"), sizeBuilder)

	methods := r.Methods()
	want := []string{"a", "b", "c"}
	if len(methods) != len(want) {
		t.Fatalf("expected %d methods, got %d", len(want), len(methods))
	}
	for i := range want {
		if methods[i] != want[i] {
			t.Errorf("methods[%d] = %q, want %q", i, methods[i], want[i])
		}
	}

	strategies := r.Strategies()
	if strategies[0].Method != "a" {
		t.Errorf("expected strategies sorted by method, got %q first", strategies[0].Method)
	}
}
