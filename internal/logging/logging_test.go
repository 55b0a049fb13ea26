// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_ConsoleAndFile(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "inkling.log")

	closer, err := Setup("warn", file, &console)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("display", "kitchen").Msg("push failed")
	require.NoError(t, closer.Close())

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "push failed")
	assert.Contains(t, console.String(), "display=kitchen")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"push failed"`)
}

func TestSetup_InvalidLevel(t *testing.T) {
	_, err := Setup("loud", "", &bytes.Buffer{})
	assert.ErrorContains(t, err, `invalid log level "loud"`)
}
