package booking

// Pricing is the cent breakdown the factory fixes at creation time.
// StoodioCost and EngineerFee are rate times whole hours, ServiceFee is a
// percentage of the stoodio cost only, Total is the sum of every line.
type Pricing struct {
	StoodioCost int64
	EngineerFee int64
	ServiceFee  int64
	PullUpFee   int64
	Total       int64
}

// ComputePricing derives the full breakdown. engineerRate must already be
// zero for bring-your-own sessions; the engineer line simply drops out.
func ComputePricing(stoodioRate, engineerRate int64, hours int, feePercent int, pullUpFee int64) Pricing {
	p := Pricing{
		StoodioCost: stoodioRate * int64(hours),
		EngineerFee: engineerRate * int64(hours),
		PullUpFee:   pullUpFee,
	}
	p.ServiceFee = p.StoodioCost * int64(feePercent) / 100
	p.Total = p.StoodioCost + p.EngineerFee + p.ServiceFee + p.PullUpFee
	return p
}
