package validator

import (
	"strings"
	"testing"
)

func TestValidateRegister(t *testing.T) {
	cases := []struct {
		username string
		email    string
		password string
		field    string
	}{
		{"alice", "alice@x.com", "pw1", ""},
		{"", "alice@x.com", "pw1", "username"},
		{"jo", "alice@x.com", "pw1", ""},
		{"john.doe", "alice@x.com", "pw1", ""},
		{strings.Repeat("a", 51), "alice@x.com", "pw1", "username"},
		{"al ice", "alice@x.com", "pw1", "username"},
		{"alice", "", "pw1", "email"},
		{"alice", "not-an-email", "pw1", "email"},
		{"alice", "Mallory <alice@x.com>", "pw1", "email"},
		{"alice", "<alice@x.com>", "pw1", "email"},
		{"alice", "  alice@x.com  ", "pw1", ""},
		{"alice", "alice@x.com", "", "password"},
		{"alice", "alice@x.com", strings.Repeat("p", 73), "password"},
	}
	for i, c := range cases {
		errs := ValidateRegister(c.username, c.email, c.password)
		if c.field == "" {
			if errs.HasErrors() {
				t.Fatalf("case %d expected ok, got %v", i, errs)
			}
			continue
		}
		if _, ok := errs[c.field]; !ok {
			t.Fatalf("case %d expected error on %q, got %v", i, c.field, errs)
		}
	}
}

func TestValidateText(t *testing.T) {
	if ValidatePost("hello").HasErrors() {
		t.Fatal("plain post should be valid")
	}
	if !ValidatePost("   ").HasErrors() {
		t.Fatal("blank post should be invalid")
	}
	if !ValidateComment(strings.Repeat("c", MaxCommentLength+1)).HasErrors() {
		t.Fatal("oversized comment should be invalid")
	}
}

func TestValidateProfile(t *testing.T) {
	str := func(s string) *string { return &s }

	if ValidateProfile(nil, nil).HasErrors() {
		t.Fatal("empty update should be valid")
	}
	if ValidateProfile(str(strings.Repeat("é", 280)), nil).HasErrors() {
		t.Fatal("280 runes should be accepted")
	}
	if !ValidateProfile(str(strings.Repeat("b", 281)), nil).HasErrors() {
		t.Fatal("281 characters should be rejected")
	}
	if ValidateProfile(nil, str("")).HasErrors() {
		t.Fatal("empty picture resets to default and is valid")
	}
	if !ValidateProfile(nil, str("javascript:alert(1)")).HasErrors() {
		t.Fatal("non-http picture should be rejected")
	}
	if ValidateProfile(nil, str("https://cdn.example.com/a.png")).HasErrors() {
		t.Fatal("https picture should be valid")
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{"username": "bad", "email": "worse"}
	if got := errs.Error(); got != "email: worse; username: bad" {
		t.Fatalf("Error() = %q", got)
	}
}
