package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
)

// fakeSurface records surface calls for assertions.
type fakeSurface struct {
	registered   []string
	unregistered []string
	invokers     map[string]ToolInvoker
	registerErr  error
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{invokers: make(map[string]ToolInvoker)}
}

func (s *fakeSurface) RegisterTool(def ToolDefinition, invoke ToolInvoker) error {
	if s.registerErr != nil {
		return s.registerErr
	}
	s.registered = append(s.registered, def.Name)
	s.invokers[def.Name] = invoke
	return nil
}

func (s *fakeSurface) UnregisterTool(name string) {
	s.unregistered = append(s.unregistered, name)
	delete(s.invokers, name)
}

func echoTool(name string) ToolDefinition {
	return NewLegacyTool(name, "echoes its arguments", nil,
		func(_ context.Context, args map[string]any, _ AuthContext) (any, error) {
			return args, nil
		})
}

func TestRegisterAndGet(t *testing.T) {
	r := New(nil)

	r.Register(echoTool("echo"))

	def, ok := r.Get("echo")
	if !ok {
		t.Fatal("expected echo to be registered")
	}
	if def.Name != "echo" {
		t.Errorf("expected name echo, got %s", def.Name)
	}
	if r.Size() != 1 {
		t.Errorf("expected size 1, got %d", r.Size())
	}
}

func TestRegisterOverwriteKeepsOneEntry(t *testing.T) {
	r := New(nil)

	r.Register(NewLegacyTool("dup", "first", nil,
		func(context.Context, map[string]any, AuthContext) (any, error) {
			return "first", nil
		}))
	r.Register(NewLegacyTool("dup", "second", nil,
		func(context.Context, map[string]any, AuthContext) (any, error) {
			return "second", nil
		}))

	if r.Size() != 1 {
		t.Fatalf("expected size 1 after overwrite, got %d", r.Size())
	}
	result, err := r.Invoke(context.Background(), "dup", nil)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if result != "second" {
		t.Errorf("expected latest registration to win, got %v", result)
	}
}

func TestUnregisterUnknownIsNoOp(t *testing.T) {
	r := New(nil)
	r.Register(echoTool("keep"))

	r.Unregister("never-registered")

	if r.Size() != 1 {
		t.Errorf("expected size 1, got %d", r.Size())
	}
	if _, ok := r.Get("keep"); !ok {
		t.Error("unrelated tool should survive")
	}
}

func TestUnregisterForwardsUnknownToSurface(t *testing.T) {
	surface := newFakeSurface()
	r := New(nil, WithSurfaceProvider(func() CapabilitySurface { return surface }))

	r.Unregister("ghost")

	if len(surface.unregistered) != 1 || surface.unregistered[0] != "ghost" {
		t.Errorf("expected ghost removal forwarded to surface, got %v", surface.unregistered)
	}
}

func TestListReturnsAllNames(t *testing.T) {
	r := New(nil)
	r.Register(echoTool("a"))
	r.Register(echoTool("b"))
	r.Register(echoTool("c"))

	names := r.List()
	sort.Strings(names)
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestClearUnregistersEverythingIndividually(t *testing.T) {
	surface := newFakeSurface()
	r := New(nil, WithSurfaceProvider(func() CapabilitySurface { return surface }))
	r.Register(echoTool("one"))
	r.Register(echoTool("two"))
	r.Register(echoTool("three"))

	r.Clear()

	if r.Size() != 0 {
		t.Errorf("expected empty registry, got size %d", r.Size())
	}
	if len(surface.unregistered) != 3 {
		t.Errorf("expected 3 surface removals, got %d (%v)", len(surface.unregistered), surface.unregistered)
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	r := New(nil)

	_, err := r.Invoke(context.Background(), "missing", nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if err.Error() != "tool not registered: missing" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestSurfaceFailureDoesNotBlockLocalRegistration(t *testing.T) {
	surface := newFakeSurface()
	surface.registerErr = errors.New("surface rejected tool")
	r := New(nil, WithSurfaceProvider(func() CapabilitySurface { return surface }))

	r.Register(echoTool("local"))

	if _, ok := r.Get("local"); !ok {
		t.Error("tool should be registered locally despite surface failure")
	}
	result, err := r.Invoke(context.Background(), "local", map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("local invocation should work: %v", err)
	}
	if result == nil {
		t.Error("expected echoed args")
	}
}

func TestIsSupported(t *testing.T) {
	if New(nil).IsSupported() {
		t.Error("registry without provider should report unsupported")
	}

	r := New(nil, WithSurfaceProvider(func() CapabilitySurface { return nil }))
	if r.IsSupported() {
		t.Error("provider returning nil should report unsupported")
	}

	surface := newFakeSurface()
	r = New(nil, WithSurfaceProvider(func() CapabilitySurface { return surface }))
	if !r.IsSupported() {
		t.Error("reachable surface should report supported")
	}
}

func TestSurfaceResolvedPerOperation(t *testing.T) {
	surface := newFakeSurface()
	available := false
	r := New(nil, WithSurfaceProvider(func() CapabilitySurface {
		if !available {
			return nil
		}
		return surface
	}))

	r.Register(echoTool("early"))
	if len(surface.registered) != 0 {
		t.Fatal("surface should not be reached while unavailable")
	}

	available = true
	r.Register(echoTool("late"))
	if len(surface.registered) != 1 || surface.registered[0] != "late" {
		t.Errorf("expected late forwarded once available, got %v", surface.registered)
	}
}

func TestGetAuthContextReturnsIndependentCopy(t *testing.T) {
	r := New(nil)
	r.SetAuthContext(AuthContext{
		UserID: "u1",
		Roles:  []string{"admin"},
		Extra:  map[string]any{"tenant": "t1"},
	})

	got := r.GetAuthContext()
	got.UserID = "mutated"
	got.Roles[0] = "mutated"
	got.Extra["tenant"] = "mutated"

	fresh := r.GetAuthContext()
	if fresh.UserID != "u1" {
		t.Errorf("UserID mutated through copy: %s", fresh.UserID)
	}
	if fresh.Roles[0] != "admin" {
		t.Errorf("Roles mutated through copy: %v", fresh.Roles)
	}
	if fresh.Extra["tenant"] != "t1" {
		t.Errorf("Extra mutated through copy: %v", fresh.Extra)
	}
}

func TestSetAuthContextReplacesWhole(t *testing.T) {
	r := New(nil)
	r.SetAuthContext(AuthContext{UserID: "u1", Token: "tok"})
	r.SetAuthContext(AuthContext{SessionID: "s2"})

	got := r.GetAuthContext()
	if got.UserID != "" || got.Token != "" {
		t.Errorf("expected previous fields cleared, got %+v", got)
	}
	if got.SessionID != "s2" {
		t.Errorf("expected sessionId s2, got %s", got.SessionID)
	}
}

func TestInvokeReadsContextAtCallTime(t *testing.T) {
	r := New(nil)
	r.Register(NewLegacyTool("whoami", "reports the caller", nil,
		func(_ context.Context, _ map[string]any, auth AuthContext) (any, error) {
			return auth.UserID, nil
		}))

	r.SetAuthContext(AuthContext{UserID: "alice"})
	result, err := r.Invoke(context.Background(), "whoami", nil)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if result != "alice" {
		t.Errorf("expected alice, got %v", result)
	}

	r.SetAuthContext(AuthContext{UserID: "bob"})
	result, _ = r.Invoke(context.Background(), "whoami", nil)
	if result != "bob" {
		t.Errorf("expected bob after context update, got %v", result)
	}
}

func TestSurfaceInvokerSeesLiveState(t *testing.T) {
	surface := newFakeSurface()
	r := New(nil, WithSurfaceProvider(func() CapabilitySurface { return surface }))

	r.Register(NewLegacyTool("live", "v1", nil,
		func(context.Context, map[string]any, AuthContext) (any, error) {
			return "v1", nil
		}))
	invoke := surface.invokers["live"]

	// Re-register under the same name; the previously handed-out invoker must
	// route to the new body.
	r.Register(NewLegacyTool("live", "v2", nil,
		func(context.Context, map[string]any, AuthContext) (any, error) {
			return "v2", nil
		}))

	result, err := invoke(context.Background(), nil)
	if err != nil {
		t.Fatalf("invoker failed: %v", err)
	}
	if result != "v2" {
		t.Errorf("expected invoker to see replacement body, got %v", result)
	}

	r.Unregister("live")
	if _, err := invoke(context.Background(), nil); err == nil {
		t.Error("invoker should fail after unregistration")
	}
}

func TestInvokeAttachesCallerToContext(t *testing.T) {
	r := New(nil)
	r.SetAuthContext(AuthContext{Token: "tok-123"})
	r.Register(NewLegacyTool("ctx", "reads ctx", nil,
		func(ctx context.Context, _ map[string]any, _ AuthContext) (any, error) {
			auth, ok := CallerFromContext(ctx)
			if !ok {
				return nil, fmt.Errorf("caller context missing")
			}
			return auth.Token, nil
		}))

	result, err := r.Invoke(context.Background(), "ctx", nil)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if result != "tok-123" {
		t.Errorf("expected token from ctx, got %v", result)
	}
}
