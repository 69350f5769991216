package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolErrorMessage(t *testing.T) {
	err := NewTool("remote reported status FAIL")
	assert.Equal(t, "TOOL: remote reported status FAIL", err.Error())

	cause := fmt.Errorf("connection refused")
	err = NewTransport("request failed", cause)
	assert.Equal(t, "TRANSPORT: request failed: connection refused", err.Error())
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		want bool
	}{
		{"transport matches", NewTransport("x", nil), KindTransport, true},
		{"decode mismatch", NewDecode("x", nil), KindTool, false},
		{"validation matches", NewValidation("x"), KindValidation, true},
		{"plain error", fmt.Errorf("boom"), KindTransport, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsKind(tt.err, tt.kind))
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("eof")
	err := NewDecode("bad json", cause)
	assert.True(t, errors.Is(err, cause))
}
