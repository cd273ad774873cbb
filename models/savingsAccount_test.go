package models

import "testing"

func TestNextAccountNumber(t *testing.T) {
	if got := NextAccountNumber("BR01", 42, 1); got != "SAV-BR01-42-1" {
		t.Fatalf("account number = %q", got)
	}
	if got := NextAccountNumber("HQ", 7, 3); got != "SAV-HQ-7-3" {
		t.Fatalf("account number = %q", got)
	}
}
