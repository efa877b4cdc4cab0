package validator

import "testing"

func TestValidateVar(t *testing.T) {
	if err := ValidateVar("8f2c2d3e-5d0a-4c8e-9a43-3f5b7f0e2a11", "uuid"); err != nil {
		t.Fatalf("expected uuid to validate, got %v", err)
	}

	err := ValidateVar("42", "uuid")
	vErrs, ok := err.(ValidationErrors)
	if !ok || len(vErrs) != 1 {
		t.Fatalf("expected a single validation error, got %v", err)
	}
	if vErrs[0].Tag != "uuid" {
		t.Fatalf("expected uuid tag, got %q", vErrs[0].Tag)
	}
}

func TestValidateVarRequired(t *testing.T) {
	err := ValidateVar("", "required,uuid")
	vErrs, ok := err.(ValidationErrors)
	if !ok || len(vErrs) != 1 {
		t.Fatalf("expected a single validation error, got %v", err)
	}
	if vErrs[0].Tag != "required" {
		t.Fatalf("expected required tag, got %q", vErrs[0].Tag)
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{{Field: "id", Tag: "uuid"}, {Field: "page", Tag: "gte", Param: "1"}}
	if got := errs.Error(); got != "id failed on uuid; page failed on gte=1" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := (ValidationErrors{}).Error(); got != "validation failed" {
		t.Fatalf("unexpected empty message %q", got)
	}
}
