package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateID_IsValidObjectID(t *testing.T) {
	id := GenerateID()
	assert.Len(t, id, 24)
	assert.True(t, ValidateObjectID(id))
	assert.NotEqual(t, id, GenerateID())
}

func TestValidateObjectID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"654bb7b8ab915398b4cb35e6", true},
		{"invalid-id", false},
		{"", false},
		{"654bb7b8ab915398b4cb35e", false},
		{"654bb7b8ab915398b4cb35zz", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateObjectID(tt.id), tt.id)
	}
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := h.Hash("Password123")
	require.NoError(t, err)
	assert.NotEqual(t, "Password123", hash)

	assert.True(t, h.Verify("Password123", hash))
	assert.False(t, h.Verify("Password124", hash))
	assert.False(t, h.Verify("Password123", "not-a-hash"))
}

func TestPasswordHasher_CostIsApplied(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost + 1)
	require.NoError(t, err)

	hash, err := h.Hash("Password123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}

func TestNewPasswordHasher_RejectsOutOfRangeCost(t *testing.T) {
	_, err := NewPasswordHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
	_, err = NewPasswordHasher(0)
	assert.Error(t, err)
}

func TestParsePositiveInt(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"", 10},
		{"abc", 10},
		{"0", 10},
		{"-3", 10},
		{"2.5", 10},
		{"5", 5},
		{" 7 ", 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParsePositiveInt(tt.raw, 10), "raw=%q", tt.raw)
	}
}
