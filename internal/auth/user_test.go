package auth_test

import (
	"testing"

	. "github.com/poorlydb/poorlydb/internal/auth"
	"gotest.tools/assert"
)

func TestValidateUser(t *testing.T) {
	u := NewUser("root", "hunter2")

	assert.Assert(t, u.Id != "")
	assert.Assert(t, u.ValidateUser("hunter2"))
	assert.Assert(t, !u.ValidateUser("wrong"))
	assert.Assert(t, string(u.Password) != "hunter2", "password must not be stored in the clear")
}
