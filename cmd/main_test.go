package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cone-steer/config"
)

func TestRun_InvalidArgsPrintUsage(t *testing.T) {
	err := run([]string{"cone-steer", "--cid=300", "--name=img", "--width=640", "--height=480"})
	require.Error(t, err)
	require.Contains(t, err.Error(), config.Usage("cone-steer"))
}
