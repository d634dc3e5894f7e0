package httpmetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/api/login", "/api/login"},
		{"/api/users/7a4e0c39-2c57-4f4a-9a0f-3e0b4ad7a6f1", "/api/users/{id}"},
		{"/api/items/42/edit", "/api/items/{param}/edit"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePath(tt.in))
		})
	}
}
