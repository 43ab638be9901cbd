package search

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.NoError(t, p.Validate())
	assert.Equal(t, 0.30, p.LexicalThreshold)
	assert.Equal(t, 0.60, p.SemanticThreshold)
	assert.Equal(t, 2, p.MaxEdits)
	assert.Equal(t, 10, p.TopK)
	assert.Equal(t, 5*time.Second, p.ExternalTimeout)
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Policy)
	}{
		{"negative lexical threshold", func(p *Policy) { p.LexicalThreshold = -0.1 }},
		{"lexical threshold of one", func(p *Policy) { p.LexicalThreshold = 1 }},
		{"semantic threshold above one", func(p *Policy) { p.SemanticThreshold = 1.5 }},
		{"negative edit budget", func(p *Policy) { p.MaxEdits = -1 }},
		{"zero top-k", func(p *Policy) { p.TopK = 0 }},
		{"zero external timeout", func(p *Policy) { p.ExternalTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.modify(&p)
			assert.True(t, errors.Is(p.Validate(), ErrInvalidPolicy))
		})
	}

	t.Run("timeout ignored when external disabled", func(t *testing.T) {
		p := DefaultPolicy()
		p.EnableExternal = false
		p.ExternalTimeout = 0
		assert.NoError(t, p.Validate())
	})
}
