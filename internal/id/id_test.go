package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New()
	b := New()
	assert.NotEqual(t, a, b)

	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestRef(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"2025-10-11", "美团"}, "2025-10-11_美团"},
		{[]string{"2025-10-11", "", "美团", " "}, "2025-10-11_美团"},
		{[]string{"ID_WALLET"}, "ID_WALLET"},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Ref(tt.parts...), "Ref(%q)", tt.parts)
	}
}

func TestShort(t *testing.T) {
	assert.Equal(t, "abc", Short("abc"))
	assert.Equal(t, "01234567", Short("0123456789"))
}
