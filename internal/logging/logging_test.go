// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/intel-engine/pkg/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.LogConfig
		level   zapcore.Level
		wantErr bool
	}{
		{name: "defaults", cfg: types.LogConfig{}, level: zapcore.InfoLevel},
		{name: "console debug", cfg: types.LogConfig{Level: "debug", Format: "console"}, level: zapcore.DebugLevel},
		{name: "json warn", cfg: types.LogConfig{Level: "WARN", Format: "json"}, level: zapcore.WarnLevel},
		{name: "bad level", cfg: types.LogConfig{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: types.LogConfig{Format: "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level))
			assert.False(t, logger.Core().Enabled(tt.level-1))
		})
	}
}
