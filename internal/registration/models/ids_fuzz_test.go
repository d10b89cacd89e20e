package models

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// FuzzParseRegistrationID checks that parsing never panics and that anything
// accepted round-trips to its lowercase form.
func FuzzParseRegistrationID(f *testing.F) {
	f.Add("")
	f.Add("461bb3e0-a02d-493c-8c2e-544a9f776d41")
	f.Add("461BB3E0-A02D-493C-8C2E-544A9F776D41")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE users;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("461bb3e0-a02d-493c-8c2e-544a9f776d41\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseRegistrationID(input)
		if err != nil {
			return
		}

		if id.String() != strings.ToLower(input) {
			t.Errorf("accepted %q but rendered %q", input, id.String())
		}

		roundTrip, err := ParseRegistrationID(id.String())
		if err != nil {
			t.Errorf("valid id failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed id value")
		}

		if !utf8.ValidString(input) {
			t.Error("non-UTF8 input was accepted")
		}
	})
}
