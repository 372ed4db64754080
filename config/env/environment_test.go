package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golangid/meshserve/codebase/factory/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefault(t *testing.T) {
	e, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "meshserve", e.ServiceName)
	assert.Equal(t, "http", e.Server.Protocol)
	assert.Equal(t, "0.0.0.0", e.Server.Host)
	assert.Equal(t, 4000, e.Server.Port)
	assert.Equal(t, 30*time.Second, e.Server.ShutdownTimeout)
	assert.Equal(t, "/graphql", e.Server.GraphQLPath)
	assert.Equal(t, "http://0.0.0.0:4000", e.URL())
	assert.False(t, e.Server.UseSSL())
}

func TestParseError(t *testing.T) {
	testCase := map[string]struct {
		envs    map[string]string
		wantErr string
	}{
		"Test #1 invalid protocol": {
			envs:    map[string]string{"SERVER_PROTOCOL": "ftp"},
			wantErr: "Env.Server.Protocol",
		},
		"Test #2 https without credentials": {
			envs:    map[string]string{"SERVER_PROTOCOL": "https"},
			wantErr: "SERVER_PROTOCOL",
		},
		"Test #3 port out of range": {
			envs:    map[string]string{"SERVER_PORT": "70000"},
			wantErr: "Env.Server.Port",
		},
		"Test #4 unknown broker": {
			envs:    map[string]string{"PUBSUB_BROKERS": "kafka,pulsar", "KAFKA_BROKERS": "localhost:9092"},
			wantErr: "unknown broker 'pulsar'",
		},
		"Test #5 active broker without address": {
			envs:    map[string]string{"PUBSUB_BROKERS": "nats"},
			wantErr: "missing NATS_URL",
		},
		"Test #6 invalid duration": {
			envs:    map[string]string{"SHUTDOWN_TIMEOUT": "soon"},
			wantErr: "error getting env configs",
		},
	}

	for name, tc := range testCase {
		t.Run(name, func(t *testing.T) {
			for k, v := range tc.envs {
				t.Setenv(k, v)
			}
			_, err := Parse()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	dotEnv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotEnv, []byte("SERVER_PORT=8088\nPUBSUB_BROKERS=redis\nREDIS_DSN=redis://localhost:6379\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("PUBSUB_BROKERS")
		os.Unsetenv("REDIS_DSN")
	})

	e, err := Load(dotEnv)
	require.NoError(t, err)
	assert.Equal(t, 8088, e.Server.Port)
	assert.Equal(t, []types.Broker{types.Redis}, e.Brokers())
}

func TestLoadMissingDotEnv(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}
