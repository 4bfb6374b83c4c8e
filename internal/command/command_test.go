package command

import (
	"reflect"
	"testing"

	"arena3/internal/host"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`map q3dm17`, []string{"map", "q3dm17"}},
		{`say "hello there"`, []string{"say", "hello there"}},
		{`bind x "+forward; wait"`, []string{"bind", "x", "+forward; wait"}},
		{`set name value // trailing comment`, []string{"set", "name", "value"}},
		{`// whole line comment`, nil},
		{`{ "classname" "worldspawn" }`, []string{"{", "classname", "worldspawn", "}"}},
		{`a{b}c`, []string{"a", "{", "b", "}", "c"}},
		{`  spaced   out  `, []string{"spaced", "out"}},
		{``, nil},
		{`"unterminated quote`, []string{"unterminated quote"}},
	}
	for _, tt := range tests {
		if got := Tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"cmd1; cmd2\ncmd3", []string{"cmd1", "cmd2", "cmd3"}},
		{`say "a;b"`, []string{`say "a;b"`}},
		{"set x 1 // note; not a command\nset y 2", []string{"set x 1", "set y 2"}},
		{";;\n\n", nil},
	}
	for _, tt := range tests {
		if got := SplitLines(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitLines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDispatchRouting(t *testing.T) {
	con := &host.RecordingConsole{}
	s := NewSystem(con)

	var got []string
	s.Register("echo", func(args []string) { got = args })

	s.Dispatch(`ECHO one "two three"`)
	if !reflect.DeepEqual(got, []string{"ECHO", "one", "two three"}) {
		t.Fatalf("handler args = %q", got)
	}

	s.Dispatch("nosuchcmd")
	if len(con.Lines) != 1 {
		t.Fatalf("unknown command not reported: %v", con.Lines)
	}
}

func TestFallbackRouting(t *testing.T) {
	con := &host.RecordingConsole{}
	s := NewSystem(con)

	var fell [][]string
	s.Fallback = func(args []string) bool {
		fell = append(fell, args)
		return args[0] == "give"
	}

	s.Dispatch("give all")
	if len(fell) != 1 || len(con.Lines) != 0 {
		t.Fatal("fallback not consulted or unknown printed anyway")
	}

	s.Dispatch("bogus")
	if len(con.Lines) != 1 {
		t.Fatal("refused fallback did not report unknown command")
	}
}

func TestExecuteDrainsNestedAppends(t *testing.T) {
	s := NewSystem(&host.RecordingConsole{})

	var order []string
	s.Register("a", func(args []string) {
		order = append(order, "a")
		s.Append("b")
	})
	s.Register("b", func(args []string) { order = append(order, "b") })

	s.Append("a")
	s.Execute()
	if !reflect.DeepEqual(order, []string{"a", "b"}) {
		t.Fatalf("order = %v", order)
	}
}

func TestInsertRunsFirst(t *testing.T) {
	s := NewSystem(&host.RecordingConsole{})
	var order []string
	for _, name := range []string{"x", "y"} {
		name := name
		s.Register(name, func(args []string) { order = append(order, name) })
	}
	s.Append("x")
	s.Insert("y")
	s.Execute()
	if !reflect.DeepEqual(order, []string{"y", "x"}) {
		t.Fatalf("order = %v", order)
	}
}

func TestUnregister(t *testing.T) {
	s := NewSystem(&host.RecordingConsole{})
	s.Register("gone", func(args []string) {})
	if !s.Registered("gone") {
		t.Fatal("not registered")
	}
	s.Unregister("gone")
	if s.Registered("gone") {
		t.Fatal("still registered")
	}
}
