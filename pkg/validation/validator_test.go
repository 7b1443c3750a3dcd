package validation

import (
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,pwd"`
	Roles    []int64 `json:"roles" binding:"omitempty,dive,gt=0"`
}

func TestToDetails(t *testing.T) {
	Init()

	err := binding.Validator.ValidateStruct(&sample{Email: "nope", Password: "short", Roles: []int64{1, 0}})
	details := ToDetails(err)

	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be at least 8 characters long", details["password"])
	assert.Equal(t, "must be greater than 0", details["roles[1]"])
}

func TestToDetailsPassesValidStruct(t *testing.T) {
	Init()
	err := binding.Validator.ValidateStruct(&sample{Name: "a", Email: "a@x.com", Password: "password1"})
	assert.Nil(t, ToDetails(err))
}

func TestToDetailsJSONErrors(t *testing.T) {
	var v sample
	err := json.Unmarshal([]byte(`{"name":`), &v)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
}
