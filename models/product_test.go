package models

import "testing"

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.005, 1.01},
		{3.333333, 3.33},
		{-2.675, -2.68},
		{117.5, 117.5},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUnitPriceFrom(t *testing.T) {
	if got := UnitPriceFrom(10, 3); got != 3.33 {
		t.Fatalf("UnitPriceFrom(10, 3) = %v, want 3.33", got)
	}
	if got := UnitPriceFrom(10, 0); got != 0 {
		t.Fatalf("zero quantity must yield 0, got %v", got)
	}
	if got := UnitPriceFrom(65, 10); got != 6.5 {
		t.Fatalf("UnitPriceFrom(65, 10) = %v, want 6.5", got)
	}
}

func TestProductRecalc(t *testing.T) {
	p := Product{Quantity: 3, UnitPrice: 3.33, LineTotal: 999}
	p.Recalc()
	if p.LineTotal != 9.99 {
		t.Fatalf("LineTotal = %v, want 9.99", p.LineTotal)
	}
}

func TestNextPaymentStatus(t *testing.T) {
	tests := []struct {
		current, next string
		ok            bool
	}{
		{PaymentUnpaid, PaymentPending, true},
		{PaymentUnpaid, PaymentPaid, true},
		{PaymentPending, PaymentPaid, true},
		{PaymentPending, PaymentUnpaid, false},
		{PaymentPaid, PaymentUnpaid, false},
		{PaymentPaid, PaymentPending, false},
		{PaymentUnpaid, "void", false},
		{"", PaymentPaid, false},
	}
	for _, tt := range tests {
		if got := NextPaymentStatus(tt.current, tt.next); got != tt.ok {
			t.Errorf("NextPaymentStatus(%q, %q) = %v, want %v", tt.current, tt.next, got, tt.ok)
		}
	}
}
