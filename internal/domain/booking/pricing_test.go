package booking

import (
	"testing"
	"time"
)

func TestComputePricingBreakdown(t *testing.T) {
	// Two hours at $120/hr with a $50/hr engineer and a 10% service fee.
	p := ComputePricing(12000, 5000, 2, 10, 0)

	if p.StoodioCost != 24000 {
		t.Errorf("stoodio cost = %d, want 24000", p.StoodioCost)
	}
	if p.EngineerFee != 10000 {
		t.Errorf("engineer fee = %d, want 10000", p.EngineerFee)
	}
	if p.ServiceFee != 2400 {
		t.Errorf("service fee = %d, want 2400", p.ServiceFee)
	}
	if p.Total != 36400 {
		t.Errorf("total = %d, want 36400", p.Total)
	}
}

func TestComputePricingServiceFeeOnStoodioOnly(t *testing.T) {
	p := ComputePricing(10000, 8000, 3, 10, 0)
	if p.ServiceFee != 3000 {
		t.Errorf("service fee = %d, want 3000 (10%% of stoodio cost only)", p.ServiceFee)
	}
}

func TestComputePricingNoEngineer(t *testing.T) {
	p := ComputePricing(12000, 0, 2, 10, 0)
	if p.EngineerFee != 0 {
		t.Errorf("engineer fee = %d, want 0", p.EngineerFee)
	}
	if p.Total != 26400 {
		t.Errorf("total = %d, want 26400", p.Total)
	}
}

func TestComputePricingPullUpFee(t *testing.T) {
	p := ComputePricing(12000, 5000, 2, 10, 1500)
	if p.Total != 37900 {
		t.Errorf("total = %d, want 37900", p.Total)
	}
	if p.ServiceFee != 2400 {
		t.Errorf("service fee = %d, want 2400 (pull up fee excluded)", p.ServiceFee)
	}
}

func TestRefundPercentTiers(t *testing.T) {
	cases := []struct {
		until time.Duration
		want  int
	}{
		{72 * time.Hour, 100},
		{49 * time.Hour, 100},
		{48 * time.Hour, 50},
		{30 * time.Hour, 50},
		{24 * time.Hour, 0},
		{5 * time.Hour, 0},
		{-time.Hour, 0},
	}
	for _, tc := range cases {
		if got := RefundPercent(tc.until); got != tc.want {
			t.Errorf("RefundPercent(%v) = %d, want %d", tc.until, got, tc.want)
		}
	}
}

func TestRefundAmount(t *testing.T) {
	b := &Booking{TotalCost: 36400}
	if got := b.RefundAmount(72 * time.Hour); got != 36400 {
		t.Errorf("72h refund = %d, want 36400", got)
	}
	if got := b.RefundAmount(30 * time.Hour); got != 18200 {
		t.Errorf("30h refund = %d, want 18200", got)
	}
	if got := b.RefundAmount(5 * time.Hour); got != 0 {
		t.Errorf("5h refund = %d, want 0", got)
	}
}
