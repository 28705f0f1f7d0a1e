package money

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		err  error
	}{
		{"1500", 1500, nil},
		{" 20 ", 20, nil},
		{"100.00", 100, nil},
		{"1.5", 0, ErrFractionalUnit},
		{"1e3", 0, ErrFractionalUnit},
		{"0", 0, ErrInvalidAmount},
		{"-5", 0, ErrInvalidAmount},
		{"+5", 0, ErrInvalidAmount},
		{"abc", 0, ErrInvalidAmount},
		{"", 0, ErrInvalidAmount},
		{"99999999999999999999", 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if err != tc.err {
			t.Fatalf("ParseAmount(%q) error = %v, want %v", tc.in, err, tc.err)
		}
		if got != tc.want {
			t.Fatalf("ParseAmount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := Format(20000, "$"); got != "$20,000" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := Format(150, "€"); got != "€150" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := Format(-1500, "$"); got != "-$1,500" {
		t.Fatalf("unexpected format: %s", got)
	}
}
