// ==============================================================================================
// FILE: internal/token/token_test.go
// PURPOSE: Validates the keyword table — reserved words must resolve to
//          their Kind and anything else must fall back to IDENT.
// ==============================================================================================

package token

import "testing"

func TestLookupIdent(t *testing.T) {
	cases := []struct {
		literal string
		want    Kind
	}{
		{"module", MODULE},
		{"fn", FN},
		{"function", FN},
		{"type", TYPE},
		{"effect", EFFECT},
		{"import", IMPORT},
		{"uses", USES},
		{"let", LET},
		{"if", IF},
		{"else", ELSE},
		{"match", MATCH},
		{"api", API},
		{"Int", KW_INT},
		{"Bool", KW_BOOL},
		{"String", KW_STRING},
		{"Unit", KW_UNIT},
		{"true", BOOL},
		{"false", BOOL},
		{"myVariable", IDENT},
		{"Option", IDENT},
	}
	for _, c := range cases {
		if got := LookupIdent(c.literal); got != c.want {
			t.Errorf("LookupIdent(%q) = %s, want %s", c.literal, got, c.want)
		}
	}
}

func TestHTTPMethods(t *testing.T) {
	for _, m := range []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"} {
		if !HTTPMethods[m] {
			t.Errorf("expected %s to be a recognized HTTP method", m)
		}
	}
	if HTTPMethods["TRACE"] {
		t.Errorf("TRACE must not be a recognized method")
	}
}
