package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptLine(t *testing.T) {
	assert.Equal(t, "name? ", promptLine("name? ", nil))
	assert.Equal(t, "continue? [N/y]: ", promptLine("continue?", []string{No, Yes}))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		response string
		expected string
	}{
		{"", No},
		{"y", Yes},
		{" Y ", Yes},
		{"n", No},
		{"yes please", No},
	}
	for _, tt := range tests {
		t.Run(tt.response, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalize(tt.response, []string{No, Yes}))
		})
	}
	assert.Equal(t, "free text", normalize("free text", nil))
}
