package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/medifly/internal/core/drone"
	"github.com/samirrijal/medifly/internal/core/ranking"
	"github.com/samirrijal/medifly/internal/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("medifly-test")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "medifly-test", cfg.Telemetry.ServiceName)
	assert.Equal(t, ranking.DefaultConfig(), cfg.Search)
	assert.Equal(t, drone.DefaultConfig(), cfg.Drone.Config)
	assert.Equal(t, 30*time.Second, cfg.Drone.TickInterval)
	assert.Equal(t, "PGTESTPAYUAT", cfg.PhonePe.MerchantID)
	assert.Equal(t, "1", cfg.PhonePe.SaltIndex)
	assert.Equal(t, "fulfillment-queue", cfg.Temporal.TaskQueue)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MEDIFLY_SERVER_PORT", "9090")
	t.Setenv("MEDIFLY_SEARCH_NOISE_THRESHOLD", "40")
	t.Setenv("MEDIFLY_DRONE_TICK_INTERVAL", "5s")
	t.Setenv("MEDIFLY_LOCATION_SECRET", "s3cret")

	cfg, err := config.Load("medifly-test")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 40, cfg.Search.NoiseThreshold, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.Drone.TickInterval)
	assert.Equal(t, "s3cret", cfg.Location.Secret)
}

func TestLoadRejectsBadWeights(t *testing.T) {
	t.Setenv("MEDIFLY_SEARCH_WEIGHTS_NAME", "0.9")

	_, err := config.Load("medifly-test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.weights must sum to 1")
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg, err := config.Load("medifly-test")
	require.NoError(t, err)

	cfg.Server.Port = 0
	cfg.Database.Host = ""
	cfg.Drone.MoveRatio = 1.5

	err = cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, strings.Contains(msg, "server.port"))
	assert.True(t, strings.Contains(msg, "database.host"))
	assert.True(t, strings.Contains(msg, "drone.move_ratio"))
}

func TestDSN(t *testing.T) {
	d := config.DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5432, DBName: "medifly", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/medifly?sslmode=disable", d.DSN())
}
