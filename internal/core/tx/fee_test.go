package tx

import "testing"

func TestTradeFee(t *testing.T) {
	tests := []struct {
		name    string
		amount  uint64
		rateBps uint64
		want    uint64
	}{
		{"zero amount", 0, 10, 0},
		{"zero rate", 1_000_000, 0, 0},
		{"ten bps of a billion", 1_000_000_000, 10, 1_000_000},
		{"floors the remainder", 999, 10, 0},
		{"one above the floor boundary", 1000, 10, 1},
		{"full rate returns everything", 12345, 10000, 12345},
		{"half rate", 12345, 5000, 6172},
		{"max uint64 does not overflow", ^uint64(0), 10000, ^uint64(0)},
		{"near max with small rate", ^uint64(0), 1, ^uint64(0) / 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TradeFee(tt.amount, tt.rateBps); got != tt.want {
				t.Errorf("TradeFee(%d, %d) = %d, want %d", tt.amount, tt.rateBps, got, tt.want)
			}
		})
	}
}

func TestTradeFeeNeverExceedsAmount(t *testing.T) {
	amounts := []uint64{1, 999, 1000, 1_000_000_000, ^uint64(0)}
	rates := []uint64{0, 1, 10, 250, 9999, 10000}
	for _, a := range amounts {
		for _, r := range rates {
			if fee := TradeFee(a, r); fee > a {
				t.Errorf("TradeFee(%d, %d) = %d exceeds amount", a, r, fee)
			}
		}
	}
}
