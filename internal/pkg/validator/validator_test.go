package validator

import (
	"testing"

	"github.com/mcash/mcash-api/internal/pkg/money"
)

type transferRequest struct {
	Phone  string       `json:"receiver_phone" validate:"required,bdphone"`
	Amount money.Amount `json:"amount" validate:"money_min=10,money_max=25000"`
}

type signupRequest struct {
	Role string `json:"role" validate:"signup_role"`
}

func TestCustomValidations(t *testing.T) {
	ok := transferRequest{Phone: "+8801712345678", Amount: money.Units(10)}
	if errs := Validate(ok); errs != nil {
		t.Fatalf("expected valid request, got %v", errs)
	}

	bad := transferRequest{Phone: "01212345678", Amount: money.MustParse("9.99")}
	errs := Validate(bad)
	if errs["receiver_phone"] == "" {
		t.Fatalf("expected phone error, got %v", errs)
	}
	if errs["amount"] != "Minimum amount is 10" {
		t.Fatalf("expected minimum amount error, got %v", errs)
	}

	tooMuch := transferRequest{Phone: "01812345678", Amount: money.MustParse("25000.01")}
	if errs := Validate(tooMuch); errs["amount"] != "Maximum amount is 25000" {
		t.Fatalf("expected maximum amount error, got %v", errs)
	}
}

func TestSignupRole(t *testing.T) {
	for _, role := range []string{"", "USER", "AGENT"} {
		if errs := Validate(signupRequest{Role: role}); errs != nil {
			t.Fatalf("role %q should be allowed: %v", role, errs)
		}
	}
	if errs := Validate(signupRequest{Role: "SUPER_ADMIN"}); errs["role"] == "" {
		t.Fatalf("admin roles must be rejected at signup")
	}
}
