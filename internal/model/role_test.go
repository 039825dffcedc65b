package model

import "testing"

func TestRoleSeniorityOrder(t *testing.T) {
	for i := 1; i < len(AllRoles); i++ {
		lower, higher := AllRoles[i-1], AllRoles[i]
		if !higher.AtLeast(lower) {
			t.Errorf("%s should rank at least %s", higher, lower)
		}
		if lower.AtLeast(higher) {
			t.Errorf("%s should not rank at least %s", lower, higher)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles {
		got, err := ParseRole(string(r))
		if err != nil {
			t.Errorf("ParseRole(%q): %v", r, err)
		}
		if got != r {
			t.Errorf("ParseRole(%q) = %q", r, got)
		}
	}
	if _, err := ParseRole("manager"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestUnknownRoleNeverSatisfies(t *testing.T) {
	r := Role("intern")
	if r.Valid() {
		t.Error("intern should not be valid")
	}
	if r.AtLeast(RoleAgent) {
		t.Error("unknown role should not satisfy agent")
	}
	if r.Rank() != -1 {
		t.Errorf("rank = %d, want -1", r.Rank())
	}
}

func TestParseAssigneeType(t *testing.T) {
	for _, s := range []string{"user", "team"} {
		if _, err := ParseAssigneeType(s); err != nil {
			t.Errorf("ParseAssigneeType(%q): %v", s, err)
		}
	}
	if _, err := ParseAssigneeType("group"); err == nil {
		t.Error("expected error for unknown assignee type")
	}
}
