package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParse(t *testing.T) {
	m := NewManager("0123456789abcdef", time.Hour)
	tok, err := m.Issue(123456)
	require.NoError(t, err)

	id, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(123456), id)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := NewManager("0123456789abcdef", time.Hour).Issue(1)
	require.NoError(t, err)

	_, err = NewManager("fedcba9876543210", time.Hour).Parse(tok)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestParse_Expired(t *testing.T) {
	m := NewManager("0123456789abcdef", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }
	tok, err := m.Issue(1)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(tok)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestParse_Garbage(t *testing.T) {
	m := NewManager("0123456789abcdef", time.Hour)
	for _, tok := range []string{"", "abc", "a.b.c", "42"} {
		_, err := m.Parse(tok)
		assert.True(t, errors.Is(err, ErrInvalid), tok)
	}
}
