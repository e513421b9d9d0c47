package forecast

// PressureAssessment is a deterministic read of the day's pressure curve.
type PressureAssessment struct {
	Level    int    // 0 calm, 1 mild, 2 large
	Label    string // 穏やか / やや変化 / 変化大
	DayRange int    // max-min over the sampled hours, hPa
	Delta    int    // 24h value minus base, hPa
}

// ClassifyPressure scores the base / +12h / +18h / +24h pressure readings.
func ClassifyPressure(base, h12, h18, h24 int) PressureAssessment {
	lo, hi := base, base
	for _, v := range []int{h12, h18, h24} {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	a := PressureAssessment{DayRange: hi - lo, Delta: h24 - base}
	abs := a.Delta
	if abs < 0 {
		abs = -abs
	}
	switch {
	case a.DayRange >= 8 || abs >= 7:
		a.Level, a.Label = 2, "変化大"
	case a.DayRange >= 5 || abs >= 4:
		a.Level, a.Label = 1, "やや変化"
	default:
		a.Level, a.Label = 0, "穏やか"
	}
	return a
}

// AmplifierScore adds one point each for a wide temperature swing and a
// muggy dew point, both of which aggravate pressure-linked symptoms.
func AmplifierScore(tempRange, dewMax int) int {
	score := 0
	if tempRange >= 7 {
		score++
	}
	if dewMax >= 16 {
		score++
	}
	return score
}

// ClosingStyle picks the tone of the forecast's closing line from the
// combined pressure level and amplifier score.
func ClosingStyle(totalLevel int) string {
	switch {
	case totalLevel <= 1:
		return "安心"
	case totalLevel <= 3:
		return "軽い注意"
	default:
		return "注意喚起"
	}
}

// Material bundles everything the body composer needs.
type Material struct {
	PressureLabel string
	DayRange      int
	Delta         int
	TempRange     int
	DewMax        int
	TotalLevel    int
}
