package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuantize2_RoundsHalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"33.333", "33.33"},
		{"33.335", "33.34"},
		{"33.334999", "33.33"},
		{"0.005", "0.01"},
		{"-0.005", "-0.01"},
		{"100", "100"},
		{"1.1", "1.1"},
	}
	for _, c := range cases {
		in := decimal.RequireFromString(c.in)
		want := decimal.RequireFromString(c.want)
		if got := Quantize2(in); !got.Equal(want) {
			t.Errorf("Quantize2(%s) = %s, want %s", c.in, got, want)
		}
	}
}

func TestSumAmounts(t *testing.T) {
	amounts := []decimal.Decimal{
		decimal.RequireFromString("10.10"),
		decimal.RequireFromString("0.90"),
		decimal.RequireFromString("-3.00"),
	}
	want := decimal.RequireFromString("8.00")
	if got := SumAmounts(amounts); !got.Equal(want) {
		t.Fatalf("SumAmounts = %s, want %s", got, want)
	}

	if got := SumAmounts(nil); !got.IsZero() {
		t.Fatalf("SumAmounts(nil) = %s, want 0", got)
	}
}
