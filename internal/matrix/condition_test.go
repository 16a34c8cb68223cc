package matrix

import "testing"

func TestParseCondition_Variants(t *testing.T) {
	c, err := parseCondition("framework", "react")
	if err != nil {
		t.Fatalf("exact: %v", err)
	}
	if c.Exact != "react" || c.Members != nil || c.Op != "" {
		t.Errorf("exact variant: %+v", c)
	}

	c, err = parseCondition("auth_type", []any{"sso", "mfa"})
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(c.Members) != 2 {
		t.Errorf("members variant: %+v", c)
	}

	c, err = parseCondition("iframe_depth", ">= 3")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if c.Op != OpGE || c.Threshold != 3 {
		t.Errorf("compare variant: %+v", c)
	}
}

func TestParseCondition_TwoCharOpsFirst(t *testing.T) {
	c, err := parseCondition("depth", "<=2")
	if err != nil {
		t.Fatalf("parseCondition: %v", err)
	}
	if c.Op != OpLE || c.Threshold != 2 {
		t.Errorf("got op=%q threshold=%v", c.Op, c.Threshold)
	}
}

func TestParseCondition_BadComparisonOperand(t *testing.T) {
	if _, err := parseCondition("depth", ">= many"); err == nil {
		t.Fatal("expected error for non-numeric comparison operand")
	}
}

func TestParseCondition_EmptyListFails(t *testing.T) {
	if _, err := parseCondition("auth_type", []any{}); err == nil {
		t.Fatal("expected error for empty membership list")
	}
}

func TestCondition_Match_NumberRepresentations(t *testing.T) {
	c, _ := parseCondition("iframe_depth", ">= 3")
	// YAML yields int, JSON yields float64; both must satisfy the comparison.
	if !c.Match(3, true) {
		t.Error("int 3 should match >= 3")
	}
	if !c.Match(float64(4), true) {
		t.Error("float64 4 should match >= 3")
	}
	if c.Match("3", true) {
		t.Error("numeric strings are not coerced")
	}
}

func TestCondition_Match_ExactAgainstListField(t *testing.T) {
	c, _ := parseCondition("markers", "regression")
	if !c.Match([]string{"smoke", "regression"}, true) {
		t.Error("scalar condition should match a list field containing it")
	}
	if c.Match([]string{"smoke"}, true) {
		t.Error("list without the scalar should not match")
	}
}

func TestCondition_Match_MixedNumericEquality(t *testing.T) {
	c, _ := parseCondition("retries", 2)
	if !c.Match(float64(2), true) {
		t.Error("int condition should equal float64 field value")
	}
	if c.Match(3, true) {
		t.Error("3 should not equal 2")
	}
}
