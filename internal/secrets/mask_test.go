package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		kind  Kind
		input string
		want  string
	}{
		{name: "national id 12 digits", kind: KindNationalID, input: "123456789012", want: "XXXX-XXXX-9012"},
		{name: "national id odd length", kind: KindNationalID, input: "12345678", want: "XXXX5678"},
		{name: "national id with letters", kind: KindNationalID, input: "1234abcd9012", want: "XXXX9012"},
		{name: "bank account", kind: KindBankAccount, input: "001234567890", want: "XXXXX7890"},
		{name: "phone", kind: KindPhone, input: "9876543210", want: "987XXXXX10"},
		{name: "short phone falls back", kind: KindPhone, input: "12345", want: "XXXX2345"},
		{name: "generic", kind: KindGeneric, input: "abcdefgh", want: "XXXXefgh"},
		{name: "four chars", kind: KindBankAccount, input: "1234", want: "XXXX"},
		{name: "one char", kind: KindGeneric, input: "7", want: "XXXX"},
		{name: "empty", kind: KindNationalID, input: "", want: ""},
		{name: "surrounding space", kind: KindNationalID, input: " 123456789012 ", want: "XXXX-XXXX-9012"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Mask(tt.kind, tt.input))
		})
	}
}

func TestMask_DeterministicAndNeverFull(t *testing.T) {
	t.Parallel()

	inputs := []string{"12345", "123456789012", "9876543210", "HDFC000123456789", "ab", "XXXX1", "XXXXX7890", "XX", "****"}
	kinds := []Kind{KindGeneric, KindNationalID, KindBankAccount, KindPhone}

	for _, in := range inputs {
		for _, k := range kinds {
			a := Mask(k, in)
			b := Mask(k, in)
			assert.Equal(t, a, b)
			assert.NotContains(t, a, in)
		}
	}
}

func TestMask_PlaceholderLookalikes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		kind  Kind
		input string
		want  string
	}{
		{name: "generic x prefix", kind: KindGeneric, input: "XXXX1", want: "XXXX"},
		{name: "bank x prefix", kind: KindBankAccount, input: "XXXX1", want: "XXXX"},
		{name: "already masked bank", kind: KindBankAccount, input: "XXXXX7890", want: "XXXX"},
		{name: "all x short", kind: KindGeneric, input: "XXX", want: "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Mask(tt.kind, tt.input)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, tt.input)
		})
	}
}

// Masking does not involve the key: two codecs with different keys agree.
func TestMasked_KeyIndependent(t *testing.T) {
	t.Parallel()

	c1 := newCodec(t)
	c2 := newCodec(t)

	ct1, err := c1.Encode("001234567890")
	if err != nil {
		t.Fatal(err)
	}
	ct2, err := c2.Encode("001234567890")
	if err != nil {
		t.Fatal(err)
	}

	m1 := c1.Masked(KindBankAccount, ct1)
	m2 := c2.Masked(KindBankAccount, ct2)
	if assert.NotNil(t, m1) && assert.NotNil(t, m2) {
		assert.Equal(t, *m1, *m2)
	}
}
