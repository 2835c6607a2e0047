package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{"ten digits", "5551234567", "5551XXX67"},
		{"six digits", "555123", "5551XXX23"},
		{"too short passes through", "55512", "55512"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, MaskPhone(tt.phone))
		})
	}
}
