package jsonio

import "testing"

func TestParseScalarsAndContainers(t *testing.T) {
	cases := map[string]string{
		`null`:                 "null",
		`true`:                 "true",
		`42`:                   "42",
		`-3.5`:                 "-3.5",
		`"hi"`:                 `"hi"`,
		`[]`:                   "[]",
		`{}`:                   "{}",
		`[1,2,3]`:               "[1,2,3]",
		`{"a":1,"b":"x"}`:       `{"a":1,"b":"x"}`,
		`{"a":{"b":[1,2]},"c":null}`: `{"a":{"b":[1,2]},"c":null}`,
	}
	for in, want := range cases {
		v, err := Parse(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		got, err := Write(v)
		if err != nil {
			t.Fatalf("write %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse/write %q: got %q want %q", in, got, want)
		}
	}
}

func TestParseIncompleteVsInvalid(t *testing.T) {
	if _, err := Parse(`{"a":`); !IsIncomplete(err) {
		t.Fatalf("expected incomplete error, got %v", err)
	}
	if _, err := Parse(`{"a":1,}`); err == nil {
		t.Fatalf("expected an error for trailing comma before close")
	}
	if _, err := Parse(`not json`); err == nil {
		t.Fatalf("expected invalid input error")
	}
}

func TestParseEscapes(t *testing.T) {
	v, err := Parse(`"line\nbreak A"`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.AsString() != "line\nbreak A" {
		t.Fatalf("unexpected unescaped string: %q", v.AsString())
	}
}
