package services

// Grade maps the summed category scores to a letter:
// D for 0-4, C for 5-14, B for 15-24, A from 25.
func Grade(macro, disease, goal int) string {
	total := macro + disease + goal
	switch {
	case total <= 4:
		return "D"
	case total <= 14:
		return "C"
	case total <= 24:
		return "B"
	default:
		return "A"
	}
}
