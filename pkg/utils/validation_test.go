package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type exportRequest struct {
	Format string `validate:"required,oneof=csv xlsx"`
	Limit  int    `validate:"min=0,max=10"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(exportRequest{Format: "csv"}))

	err := ValidateStruct(exportRequest{Format: "pdf", Limit: 11})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "format must be one of: csv xlsx")
	assert.Contains(t, err.Error(), "limit must be at most 10")

	err = ValidateStruct(exportRequest{})
	assert.EqualError(t, err, "format is required")
}
