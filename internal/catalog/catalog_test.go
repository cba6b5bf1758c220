package catalog

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Plumbing", "plumbing"},
		{"Painting & Decorating", "painting-and-decorating"},
		{"Flat Pack Assembly", "flat-pack-assembly"},
		{"  Gutter  Cleaning  ", "gutter-cleaning"},
		{"TV Mounting / Wall Fixing", "tv-mounting-wall-fixing"},
		{"Handyman's Odd Jobs", "handymans-odd-jobs"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
