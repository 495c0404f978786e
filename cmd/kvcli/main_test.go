package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"PING", []string{"PING"}},
		{"SET  key   value", []string{"SET", "key", "value"}},
		{`SET key "hello world"`, []string{"SET", "key", "hello world"}},
		{`SET key ""`, []string{"SET", "key", ""}},
		{`ECHO "a\r\nb"`, []string{"ECHO", "a\r\nb"}},
		{`ECHO "say \"hi\""`, []string{"ECHO", `say "hi"`}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitArgs(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := splitArgs(`ECHO "open`)
	assert.Error(t, err)
}
