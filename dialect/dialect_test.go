package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"mysql", MySQL},
		{"sqlite3", SQLite},
		{"postgresql", Postgres},
		{" Postgres ", Postgres},
		{"oracle", "oracle"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(MySQL))
	assert.True(t, Supported(SQLite))
	assert.True(t, Supported(Postgres))
	assert.False(t, Supported("oracle"))
	assert.False(t, Supported(""))
}
