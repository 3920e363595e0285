package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerify(t *testing.T) {
	secret := "webhook-secret"
	body := []byte(`{"loan_reference":"LN-20250610-A1B2C","amount":"250.00"}`)

	tests := []struct {
		name     string
		body     []byte
		provided string
		secret   string
		valid    bool
	}{
		{
			name:     "Valid signature",
			body:     body,
			provided: Compute(body, secret),
			secret:   secret,
			valid:    true,
		},
		{
			name:     "Tampered body",
			body:     []byte(`{"loan_reference":"LN-20250610-A1B2C","amount":"9250.00"}`),
			provided: Compute(body, secret),
			secret:   secret,
			valid:    false,
		},
		{
			name:     "Wrong secret",
			body:     body,
			provided: Compute(body, "other-secret"),
			secret:   secret,
			valid:    false,
		},
		{
			name:     "Missing signature fails closed",
			body:     body,
			provided: "",
			secret:   secret,
			valid:    false,
		},
		{
			name:     "Unconfigured secret fails closed",
			body:     body,
			provided: Compute(body, secret),
			secret:   "",
			valid:    false,
		},
		{
			name:     "Garbage signature",
			body:     body,
			provided: "not-a-hex-digest",
			secret:   secret,
			valid:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Verify(tt.body, tt.provided, tt.secret))
		})
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	body := []byte("payload")
	assert.Equal(t, Compute(body, "s"), Compute(body, "s"))
	assert.NotEqual(t, Compute(body, "s"), Compute(body, "t"))
	assert.Len(t, Compute(body, "s"), 64)
}
