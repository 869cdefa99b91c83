package testutil

import "testing"

func TestSamplesAreCopies(t *testing.T) {
	for _, get := range []func() []String8Sample{WesternSamples, AsianSamples} {
		a := get()
		a[0].Encoded[0] ^= 0xFF
		b := get()
		if b[0].Encoded[0] == a[0].Encoded[0] {
			t.Errorf("%s: mutation leaked into a later call", a[0].Name)
		}
	}
}
