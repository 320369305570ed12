//go:build go1.18

package domain

import "testing"

// FuzzParsePolicyID checks that parsing arbitrary input never panics and
// that every accepted value round-trips through String.
func FuzzParsePolicyID(f *testing.F) {
	f.Add("")
	f.Add("1")
	f.Add("18446744073709551615")
	f.Add("18446744073709551616")
	f.Add("-1")
	f.Add("0x10")
	f.Add("'; DROP TABLE policies;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParsePolicyID(input)
		if err != nil {
			return
		}
		round, err := ParsePolicyID(id.String())
		if err != nil {
			t.Fatalf("accepted value %q failed to round-trip: %v", input, err)
		}
		if round != id {
			t.Fatalf("round-trip mismatch: %v != %v", round, id)
		}
	})
}
