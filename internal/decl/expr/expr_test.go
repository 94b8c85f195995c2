package expr

import "testing"

func evalBoolT(t *testing.T, s string, scope map[string]any) bool {
	t.Helper()
	v, err := EvalBool(s, scope)
	if err != nil {
		t.Fatalf("EvalBool(%q): %v", s, err)
	}
	return v
}

func TestEvalBoolComparisons(t *testing.T) {
	scope := map[string]any{"len": uint8(3), "flag": uint8(0)}

	cases := []struct {
		expr string
		want bool
	}{
		{"len==3", true},
		{"len!=3", false},
		{"len<4", true},
		{"len<=3", true},
		{"len>2", true},
		{"len>=4", false},
		{"flag!=0", false},
		{"flag==0", true},
		{"len==3 && flag==0", true},
		{"len==9 || flag==0", true},
		{"!(flag!=0)", true},
	}
	for _, c := range cases {
		if got := evalBoolT(t, c.expr, scope); got != c.want {
			t.Errorf("EvalBool(%q) = %v, want %v", c.expr, got, c.want)
		}
	}
}

func TestEvalIntArithmeticPrecedence(t *testing.T) {
	v, err := EvalInt("2+3*4", nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != 14 {
		t.Errorf("got %d, want 14", v)
	}

	v, err = EvalInt("(2+3)*4", nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != 20 {
		t.Errorf("got %d, want 20", v)
	}
}

func TestEvalIntHexLiteral(t *testing.T) {
	v, err := EvalInt("0xDEAD", nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xDEAD {
		t.Errorf("got %#x, want 0xdead", v)
	}
}

func TestEvalUndefinedIdentifierErrors(t *testing.T) {
	if _, err := EvalInt("missing", map[string]any{}); err == nil {
		t.Fatal("expected an error for an undefined identifier")
	}
}

func TestEvalDivisionByZeroErrors(t *testing.T) {
	if _, err := EvalInt("1/0", nil); err == nil {
		t.Fatal("expected an error for division by zero")
	}
}

func TestEvalTrailingInputErrors(t *testing.T) {
	if _, err := Parse("1 + 1 )"); err == nil {
		t.Fatal("expected a trailing-input error")
	}
}

func TestEvalAnyReturnsUnderlyingType(t *testing.T) {
	v, err := EvalAny("last==0", map[string]any{"last": uint8(0)})
	if err != nil {
		t.Fatal(err)
	}
	b, ok := v.(bool)
	if !ok || !b {
		t.Fatalf("got %v (%T), want true", v, v)
	}
}

func TestEvalBoolCoercesIntToBool(t *testing.T) {
	v, err := EvalBool("!3", nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != false {
		t.Errorf("!3 = %v, want false (3 is truthy)", v)
	}
}
