package pkg

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPIsLocal(t *testing.T) {
	assert.True(t, IPIsLocal("127.0.0.1:8080"))
	assert.True(t, IPIsLocal("172.17.0.1:45678"))
	assert.False(t, IPIsLocal("85.164.23.11:443"))
}

func TestReadUserIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/leaderboard", nil)
	req.RemoteAddr = "85.164.23.11:58890"

	ip, err := ReadUserIP(req)
	require.NoError(t, err)
	assert.Equal(t, "85.164.23.11", ip)

	req.Header.Set("X-Real-Ip", "2.44.12.66")
	ip, err = ReadUserIP(req)
	require.NoError(t, err)
	assert.Equal(t, "2.44.12.66", ip)

	req.Header.Set("X-Real-Ip", "not-an-ip")
	_, err = ReadUserIP(req)
	assert.Error(t, err)
}
