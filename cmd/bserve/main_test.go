package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutesCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"routes"})

	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, []string{"METHOD", "PATTERN", "NAME"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"GET", "/users/:id", "user"}, strings.Fields(lines[3]))
	assert.Equal(t, []string{"POST", "/users", "create-user"}, strings.Fields(lines[4]))
	assert.Equal(t, []string{"GET", "/relay/*", "relay"}, strings.Fields(lines[6]))
}

func TestRoutesCommandRejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"routes", "extra"})

	assert.Error(t, cmd.Execute())
}
