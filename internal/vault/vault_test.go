package vault

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestNewRejectsWrongKeyLength(t *testing.T) {
	_, err := New([]byte("short"))
	require.Error(t, err)

	_, err = New(append(testKey, 'x'))
	require.Error(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v, err := New(testKey)
	require.NoError(t, err)

	ct, iv, err := v.Encrypt("dckr_pat_abc123")
	require.NoError(t, err)
	require.NotEmpty(t, ct)
	require.NotEmpty(t, iv)

	got, err := v.Decrypt(ct, iv)
	require.NoError(t, err)
	require.Equal(t, "dckr_pat_abc123", got)
}

func TestEncryptProducesFreshNonces(t *testing.T) {
	v, _ := New(testKey)
	ct1, iv1, err := v.Encrypt("secret")
	require.NoError(t, err)
	ct2, iv2, err := v.Encrypt("secret")
	require.NoError(t, err)
	require.NotEqual(t, iv1, iv2)
	require.NotEqual(t, ct1, ct2)
}

func TestDecryptFailsWithWrongKey(t *testing.T) {
	v1, _ := New(testKey)
	v2, _ := New([]byte(strings.Repeat("k", 32)))

	ct, iv, err := v1.Encrypt("secret")
	require.NoError(t, err)

	_, err = v2.Decrypt(ct, iv)
	require.Error(t, err)
}

func TestDecryptFailsOnTamperedCiphertext(t *testing.T) {
	v, _ := New(testKey)
	ct, iv, err := v.Encrypt("secret")
	require.NoError(t, err)

	tampered := "00" + ct[2:]
	if tampered == ct {
		tampered = "11" + ct[2:]
	}
	_, err = v.Decrypt(tampered, iv)
	require.Error(t, err)
}

func TestDecryptFailsOnBadEncoding(t *testing.T) {
	v, _ := New(testKey)
	_, err := v.Decrypt("not-hex", "also-not-hex")
	require.Error(t, err)
}
