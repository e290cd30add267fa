package qrtoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	svc := New("test-secret")

	token, hash, err := svc.Issue()
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Len(t, hash, 64)

	assert.True(t, svc.Verify(token, hash))
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	svc := New("test-secret")
	token, hash, err := svc.Issue()
	require.NoError(t, err)

	tampered := "0" + token[1:]
	if tampered == token {
		tampered = "1" + token[1:]
	}
	assert.False(t, svc.Verify(tampered, hash))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	svc := New("test-secret")
	other := New("other-secret")
	token, hash, err := svc.Issue()
	require.NoError(t, err)

	assert.False(t, other.Verify(token, hash))
}

func TestVerifyGarbledInputIsFalseNotPanic(t *testing.T) {
	svc := New("test-secret")
	assert.False(t, svc.Verify("", ""))
	assert.False(t, svc.Verify("not-a-token", "zz-not-hex"))
}

func TestTokensAreUnique(t *testing.T) {
	svc := New("test-secret")
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token, _, err := svc.Issue()
		require.NoError(t, err)
		require.False(t, seen[token])
		seen[token] = true
	}
}
