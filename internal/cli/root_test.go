package cli

import (
	"bytes"
	"testing"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	_, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	if formatFlag == nil {
		t.Fatal("expected --format flag to exist")
	}
	if formatFlag.DefValue != "text" {
		t.Errorf("expected --format default 'text', got %q", formatFlag.DefValue)
	}

	for _, name := range []string{"server", "data", "verbose"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s flag to exist", name)
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := executeCommand("version")
	if err != nil {
		t.Fatal(err)
	}
	if out != Version+"\n" {
		t.Errorf("output = %q", out)
	}
}

func TestArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"show without id", []string{"show"}},
		{"fav without id", []string{"fav"}},
		{"review missing text", []string{"review", "p1", "4"}},
		{"review bad rating", []string{"review", "p1", "9", "great"}},
		{"decide bad decision", []string{"decide", "a1", "maybe"}},
		{"advance bad step", []string{"application", "advance", "a1", "two"}},
		{"signup bad role", []string{"signup", "--email", "a@example.com", "--role", "admin"}},
		{"login without email", []string{"login"}},
		{"listing add without title", []string{"listing", "add"}},
		{"apply bad field", []string{"apply", "p1", "--set", "nosection"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(tt.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseSections(t *testing.T) {
	s, err := parseSections([]string{"personal.name=Rita", "employment.employer=Acme", "personal.phone=555"})
	if err != nil {
		t.Fatal(err)
	}
	if s.PersonalInfo["name"] != "Rita" || s.PersonalInfo["phone"] != "555" || s.Employment["employer"] != "Acme" {
		t.Errorf("sections = %+v", s)
	}
	if s.References != nil {
		t.Error("unset section should stay nil")
	}

	for _, bad := range []string{"personal", "personal.=x", "pets.dog=yes"} {
		if _, err := parseSections([]string{bad}); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestFormatRating(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "★☆☆☆☆"},
		{3, "★★★☆☆"},
		{7, "★★★★★"},
	}
	for _, tt := range tests {
		if got := formatRating(tt.in); got != tt.want {
			t.Errorf("formatRating(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReadPasswordFromPipe(t *testing.T) {
	in := bytes.NewBufferString("first\r\nsecond\n")
	var prompt bytes.Buffer

	a, err := readPassword(in, &prompt, "Password: ")
	if err != nil {
		t.Fatal(err)
	}
	b, err := readPassword(in, &prompt, "Confirm: ")
	if err != nil {
		t.Fatal(err)
	}
	if a != "first" || b != "second" {
		t.Errorf("got %q, %q", a, b)
	}
	if prompt.String() != "Password: Confirm: " {
		t.Errorf("prompt = %q", prompt.String())
	}
	if _, err := readPassword(in, &prompt, ""); err == nil {
		t.Error("expected error at end of input")
	}
}
