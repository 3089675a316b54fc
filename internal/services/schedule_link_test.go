package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleLinkRoundTrip(t *testing.T) {
	signer := NewScheduleLinkSigner("secret", "https://machcare.test", time.Hour)

	link, err := signer.SignedURL("MC-1001")
	require.NoError(t, err)
	assert.Contains(t, link, "https://machcare.test/schedule?token=")

	token := link[len("https://machcare.test/schedule?token="):]
	serial, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "MC-1001", serial)
}

func TestScheduleLinkRejectsWrongSecret(t *testing.T) {
	signer := NewScheduleLinkSigner("secret", "https://machcare.test", time.Hour)
	other := NewScheduleLinkSigner("different", "https://machcare.test", time.Hour)

	link, err := signer.SignedURL("MC-1001")
	require.NoError(t, err)
	token := link[len("https://machcare.test/schedule?token="):]

	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestScheduleLinkExpires(t *testing.T) {
	signer := NewScheduleLinkSigner("secret", "https://machcare.test", -time.Minute)

	link, err := signer.SignedURL("MC-1001")
	require.NoError(t, err)
	token := link[len("https://machcare.test/schedule?token="):]

	_, err = signer.Verify(token)
	assert.Error(t, err, "expired tokens must be rejected")
}

func TestScheduleLinkRejectsGarbage(t *testing.T) {
	signer := NewScheduleLinkSigner("secret", "https://machcare.test", time.Hour)
	_, err := signer.Verify("not-a-token")
	assert.Error(t, err)
}
