package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleSatisfies(t *testing.T) {
	tests := []struct {
		name     string
		caller   Role
		required Role
		want     bool
	}{
		{"passenger passes passenger gate", RolePassenger, RolePassenger, true},
		{"passenger fails driver gate", RolePassenger, RoleDriver, false},
		{"driver passes driver gate", RoleDriver, RoleDriver, true},
		{"driver fails passenger gate", RoleDriver, RolePassenger, false},
		{"both passes driver gate", RoleBoth, RoleDriver, true},
		{"both passes passenger gate", RoleBoth, RolePassenger, true},
		{"both passes both gate", RoleBoth, RoleBoth, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.caller.Satisfies(tt.required))
		})
	}
}

func TestRoleDriverCapable(t *testing.T) {
	assert.False(t, RolePassenger.DriverCapable())
	assert.True(t, RoleDriver.DriverCapable())
	assert.True(t, RoleBoth.DriverCapable())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RolePassenger.Valid())
	assert.True(t, RoleDriver.Valid())
	assert.True(t, RoleBoth.Valid())
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
}

func TestUserJSONNeverLeaksPasswordHash(t *testing.T) {
	u := User{
		ID:       "u1",
		Email:    "ana@uni.edu",
		Password: "$2a$10$secret-hash",
		Role:     RolePassenger,
	}

	raw, err := json.Marshal(&u)
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-hash")
	assert.NotContains(t, string(raw), "password")
}
