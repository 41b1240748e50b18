package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampler(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		want  string
	}{
		{"keep all", 1, "AlwaysOnSampler"},
		{"above one", 2.5, "AlwaysOnSampler"},
		{"drop all", 0, "AlwaysOffSampler"},
		{"negative", -1, "AlwaysOffSampler"},
		{"fraction", 0.25, "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := Sampler(tt.ratio).Description()
			assert.Contains(t, desc, "ParentBased")
			assert.Contains(t, desc, "root:"+tt.want)
		})
	}
}
