package engine

import (
	"context"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    Engine
		wantErr bool
	}{
		{"modern", Modern, false},
		{"legacy", Legacy, false},
		{"", "", true},
		{"Modern", "", true},
		{"selenium", "", true},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %q", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

type stubLauncher struct{ launched int }

func (s *stubLauncher) Launch(context.Context) (Context, error) {
	s.launched++
	return nil, errors.New("stub")
}

func TestRegistry_UnknownEngine(t *testing.T) {
	r := NewRegistry()
	r.Register(Modern, &stubLauncher{})

	_, err := r.Launch(context.Background(), Legacy)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if resErr.Engine != Legacy {
		t.Errorf("ResolutionError.Engine = %q, want %q", resErr.Engine, Legacy)
	}
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()
	modern := &stubLauncher{}
	legacy := &stubLauncher{}
	r.Register(Modern, modern)
	r.Register(Legacy, legacy)

	_, _ = r.Launch(context.Background(), Legacy)
	if modern.launched != 0 || legacy.launched != 1 {
		t.Errorf("dispatch: modern=%d legacy=%d, want 0/1", modern.launched, legacy.launched)
	}
}

func TestLegacyLauncher_RequiresDebuggerURL(t *testing.T) {
	l := &LegacyLauncher{}
	if _, err := l.Launch(context.Background()); err == nil {
		t.Fatal("expected error for missing debugger URL")
	}
}
