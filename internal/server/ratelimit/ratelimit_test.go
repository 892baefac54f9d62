package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strictConfig() *Config {
	return &Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{},
		Blacklist:     map[string]bool{},
		Endpoints: []EndpointConfig{
			{Path: "/api/resume/run", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		},
	}
}

func TestAllow_BurstThenLimited(t *testing.T) {
	l := NewLimiter(strictConfig())
	defer l.Stop()

	allowed, _ := l.Allow("1.2.3.4", "/api/resume/run", "POST")
	assert.True(t, allowed)
	allowed, _ = l.Allow("1.2.3.4", "/api/resume/run", "POST")
	assert.True(t, allowed)

	allowed, info := l.Allow("1.2.3.4", "/api/resume/run", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 10, info.Limit)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
}

func TestAllow_ClientsAreIndependent(t *testing.T) {
	l := NewLimiter(strictConfig())
	defer l.Stop()

	for i := 0; i < 2; i++ {
		allowed, _ := l.Allow("1.1.1.1", "/api/resume/run", "POST")
		require.True(t, allowed)
	}
	allowed, _ := l.Allow("1.1.1.1", "/api/resume/run", "POST")
	assert.False(t, allowed)

	allowed, _ = l.Allow("2.2.2.2", "/api/resume/run", "POST")
	assert.True(t, allowed)
}

func TestAllow_HealthUnlimited(t *testing.T) {
	l := NewLimiter(strictConfig())
	defer l.Stop()

	for i := 0; i < 50; i++ {
		allowed, _ := l.Allow("1.2.3.4", "/health", "GET")
		require.True(t, allowed)
	}
}

func TestAllow_Disabled(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false})
	defer l.Stop()

	for i := 0; i < 50; i++ {
		allowed, _ := l.Allow("1.2.3.4", "/api/resume/run", "POST")
		require.True(t, allowed)
	}
}

func TestAllow_WhitelistAndBlacklist(t *testing.T) {
	cfg := strictConfig()
	cfg.Whitelist["9.9.9.9"] = true
	cfg.Blacklist["6.6.6.6"] = true
	l := NewLimiter(cfg)
	defer l.Stop()

	for i := 0; i < 10; i++ {
		allowed, _ := l.Allow("9.9.9.9", "/api/resume/run", "POST")
		require.True(t, allowed)
	}

	allowed, _ := l.Allow("6.6.6.6", "/api/resume/run", "POST")
	assert.False(t, allowed)
}

func TestMatchEndpoint_PrefixMatch(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/api/profiles/", Method: "DELETE", Limit: 100, Window: time.Minute},
	}

	match := matchEndpoint("/api/profiles/123", "DELETE", configs)
	require.NotNil(t, match)
	assert.Equal(t, 100, match.Limit)

	assert.Nil(t, matchEndpoint("/api/profiles/123", "GET", configs))
}
