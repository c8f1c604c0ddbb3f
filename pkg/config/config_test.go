package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/livekit/livekit-callcore/pkg/config/configtest"
)

func TestConfig_Defaults(t *testing.T) {
	conf, err := NewConfig("", true, nil, nil)
	require.NoError(t, err)

	require.Equal(t, 60*time.Second, conf.Call.ResponseTimeout)
	require.Equal(t, 90*time.Second, conf.Call.StaleThreshold)
	require.Equal(t, 2, conf.Call.StillOngoingMinRemaining)
	require.Equal(t, 30*time.Second, conf.Transport.DirectConnectTimeout)
	require.Equal(t, 7, conf.Transport.MaxReconnectAttempts)
	require.Equal(t, -40.0, conf.Roster.SpeakerThresholdDB)
	require.Equal(t, "error", conf.Logging.ComponentLevels["pion"])
}

func TestConfig_DefaultsKept(t *testing.T) {
	const content = `call:
  response_timeout: 45s
self:
  user_id: alice
  client_id: phone`
	conf, err := NewConfig(content, true, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 45*time.Second, conf.Call.ResponseTimeout)
	require.Equal(t, 60*time.Second, conf.Call.ConnectTimeout)
	require.Equal(t, "alice", string(conf.Self.MemberInfo().UserID))
}

func TestConfig_UnknownKeys(t *testing.T) {
	const content = `unknown: 10
call:
  response_timeout: 10s`
	_, err := NewConfig(content, true, nil, nil)
	require.Error(t, err)

	_, err = NewConfig(content, false, nil, nil)
	require.NoError(t, err)
}

func TestConfig_Validate(t *testing.T) {
	conf, err := NewConfig("", true, nil, nil)
	require.NoError(t, err)
	require.ErrorIs(t, conf.Validate(), ErrSelfNotSet)

	conf.Self = SelfConfig{UserID: "alice", ClientID: "phone"}
	require.ErrorIs(t, conf.Validate(), ErrSignalURLNotSet)

	conf.Signal.URL = "wss://example.com/conversations"
	require.NoError(t, conf.Validate())

	conf.Call.StillOngoingMinRemaining = 0
	require.Error(t, conf.Validate())
}

func TestConfig_SignalToken(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "token")

	require.NoError(t, os.WriteFile(file, []byte("secret\n"), 0o644))
	conf := &Config{Signal: SignalConfig{TokenFile: file}}
	require.ErrorIs(t, conf.LoadSignalToken(), ErrTokenFileIncorrectPermission)

	require.NoError(t, os.Chmod(file, 0o600))
	require.NoError(t, conf.LoadSignalToken())
	require.Equal(t, "secret", conf.Signal.Token)
}

func TestConfig_YAMLTags(t *testing.T) {
	require.NoError(t, configtest.CheckYAMLTags(Config{}))
}

func TestGeneratedFlags(t *testing.T) {
	baseFlags := []cli.Flag{
		&cli.BoolFlag{Name: "dev"},
		&cli.StringFlag{Name: "user-id"},
	}
	generatedFlags, err := GenerateCLIFlags(baseFlags, false)
	require.NoError(t, err)

	app := cli.NewApp()
	app.Flags = append(baseFlags, generatedFlags...)

	set := flag.NewFlagSet("test", 0)
	set.Bool("dev", false, "")
	set.String("user-id", "", "")
	set.Uint64("prometheus_port", 0, "")
	set.Duration("call.response_timeout", 0, "")
	set.String("transport.relay_url", "", "")
	require.NoError(t, set.Parse([]string{
		"--dev",
		"--user-id=alice",
		"--prometheus_port=9999",
		"--call.response_timeout=15s",
		"--transport.relay_url=wss://relay.example.com",
	}))

	c := cli.NewContext(app, set, nil)
	conf, err := NewConfig("", true, c, baseFlags)
	require.NoError(t, err)

	require.True(t, conf.Development)
	require.Equal(t, "debug", conf.Logging.Level)
	require.Equal(t, "alice", conf.Self.UserID)
	require.Equal(t, uint32(9999), conf.PrometheusPort)
	require.Equal(t, 15*time.Second, conf.Call.ResponseTimeout)
	require.Equal(t, "wss://relay.example.com", conf.Capabilities().RelayURL)
}
