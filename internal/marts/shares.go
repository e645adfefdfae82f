package marts

// Division helpers shared across marts. A zero denominator always yields
// nil, never an error or infinity.

func divide(a, b float64) *float64 {
	if b == 0 {
		return nil
	}
	v := a / b
	return &v
}

func ratioPct(part, whole int) *float64 {
	return divide(float64(part)*100, float64(whole))
}

func sharePct(part, whole float64) *float64 {
	return divide(part*100, whole)
}

func ptr(v float64) *float64 { return &v }
