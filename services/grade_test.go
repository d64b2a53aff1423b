package services

import "testing"

func TestGradeBoundaries(t *testing.T) {
	cases := []struct {
		m, d, g int
		want    string
	}{
		{0, 0, 0, "D"},
		{2, 1, 1, "D"},
		{2, 2, 1, "C"},
		{5, 5, 4, "C"},
		{5, 5, 5, "B"},
		{8, 8, 8, "B"},
		{9, 8, 8, "A"},
		{10, 10, 10, "A"},
	}
	for _, tc := range cases {
		if got := Grade(tc.m, tc.d, tc.g); got != tc.want {
			t.Errorf("Grade(%d,%d,%d) = %s, want %s", tc.m, tc.d, tc.g, got, tc.want)
		}
	}
}

func TestGradeAllTriples(t *testing.T) {
	for a := 0; a <= 10; a++ {
		for b := 0; b <= 10; b++ {
			for c := 0; c <= 10; c++ {
				sum := a + b + c
				var want string
				switch {
				case sum <= 4:
					want = "D"
				case sum <= 14:
					want = "C"
				case sum <= 24:
					want = "B"
				default:
					want = "A"
				}
				if got := Grade(a, b, c); got != want {
					t.Fatalf("Grade(%d,%d,%d) = %s, want %s", a, b, c, got, want)
				}
			}
		}
	}
}
