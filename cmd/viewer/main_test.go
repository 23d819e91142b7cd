package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewerIdentity(t *testing.T) {
	env := func(user string) func(string) string {
		return func(key string) string {
			if key == "USER" {
				return user
			}
			return ""
		}
	}

	tests := []struct {
		name string
		flag string
		user string
		want string
	}{
		{"flag wins", "bob", "carol", "terminal:bob"},
		{"falls back to USER", "", "carol", "terminal:carol"},
		{"no identity", "", "", "terminal:anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, viewerIdentity(tt.flag, env(tt.user)))
		})
	}
}
