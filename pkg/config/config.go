// Copyright 2023 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/protocol/logger"
)

const (
	generatedCLIFlagUsage = "generated"
)

var (
	ErrTokenFileIncorrectPermission = errors.New("token file others permissions must be set to 0")
	ErrSelfNotSet                   = errors.New("self user_id and client_id must be provided")
	ErrSignalURLNotSet              = errors.New("signal url must be provided")
)

type Config struct {
	Self           SelfConfig      `yaml:"self,omitempty"`
	Call           CallConfig      `yaml:"call,omitempty"`
	Roster         RosterConfig    `yaml:"roster,omitempty"`
	Transport      TransportConfig `yaml:"transport,omitempty"`
	Signal         SignalConfig    `yaml:"signal,omitempty"`
	PrometheusPort uint32          `yaml:"prometheus_port,omitempty"`
	Logging        LoggingConfig   `yaml:"logging,omitempty"`

	Development bool `yaml:"development,omitempty"`
}

type SelfConfig struct {
	UserID   string `yaml:"user_id,omitempty"`
	ClientID string `yaml:"client_id,omitempty"`
	Name     string `yaml:"name,omitempty"`
}

func (s SelfConfig) MemberInfo() types.MemberInfo {
	return types.MemberInfo{UserID: types.UserID(s.UserID), ClientID: types.ClientID(s.ClientID)}
}

type CallConfig struct {
	// no answer to an outgoing start
	ResponseTimeout time.Duration `yaml:"response_timeout,omitempty"`
	// answered but media never established
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"`
	// incoming call rings unanswered
	IncomingTimeout time.Duration `yaml:"incoming_timeout,omitempty"`
	// signals older than this on receipt are not acted upon
	StaleThreshold time.Duration `yaml:"stale_threshold,omitempty"`
	// other members that must remain for a group call left locally to stay joinable
	StillOngoingMinRemaining int `yaml:"still_ongoing_min_remaining,omitempty"`
	DedupeCacheSize          int `yaml:"dedupe_cache_size,omitempty"`
}

type RosterConfig struct {
	MemberConnectTimeout time.Duration `yaml:"member_connect_timeout,omitempty"`
	SpeakerThresholdDB   float64       `yaml:"speaker_threshold_db,omitempty"`
	SpeakerResignWindow  time.Duration `yaml:"speaker_resign_window,omitempty"`
	SpeakersDebounce     time.Duration `yaml:"speakers_debounce,omitempty"`
}

type TransportConfig struct {
	DirectConnectTimeout     time.Duration     `yaml:"direct_connect_timeout,omitempty"`
	RequestTimeout           time.Duration     `yaml:"request_timeout,omitempty"`
	MaxReconnectAttempts     int               `yaml:"max_reconnect_attempts,omitempty"`
	InitialReconnectInterval time.Duration     `yaml:"initial_reconnect_interval,omitempty"`
	MaxReconnectInterval     time.Duration     `yaml:"max_reconnect_interval,omitempty"`
	CapabilitiesURL          string            `yaml:"capabilities_url,omitempty"`
	RelayURL                 string            `yaml:"relay_url,omitempty"`
	ICEServers               []types.ICEServer `yaml:"ice_servers,omitempty"`
}

type SignalConfig struct {
	URL       string `yaml:"url,omitempty"`
	TokenFile string `yaml:"token_file,omitempty"`
	Token     string `yaml:"token,omitempty"`
}

type LoggingConfig struct {
	logger.Config `yaml:",inline"`
	PionLevel     string `yaml:"pion_level,omitempty"`
}

var DefaultConfig = Config{
	Call: CallConfig{
		ResponseTimeout:          60 * time.Second,
		ConnectTimeout:           60 * time.Second,
		IncomingTimeout:          60 * time.Second,
		StaleThreshold:           90 * time.Second,
		StillOngoingMinRemaining: 2,
		DedupeCacheSize:          512,
	},
	Roster: RosterConfig{
		MemberConnectTimeout: 60 * time.Second,
		SpeakerThresholdDB:   -40,
		SpeakerResignWindow:  10 * time.Second,
		SpeakersDebounce:     200 * time.Millisecond,
	},
	Transport: TransportConfig{
		DirectConnectTimeout:     30 * time.Second,
		RequestTimeout:           10 * time.Second,
		MaxReconnectAttempts:     7,
		InitialReconnectInterval: 300 * time.Millisecond,
		MaxReconnectInterval:     10 * time.Second,
		ICEServers: []types.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	},
	Logging: LoggingConfig{
		PionLevel: "error",
	},
}

func NewConfig(confString string, strictMode bool, c *cli.Context, baseFlags []cli.Flag) (*Config, error) {
	// start with defaults
	marshalled, err := yaml.Marshal(&DefaultConfig)
	if err != nil {
		return nil, err
	}

	var conf Config
	err = yaml.Unmarshal(marshalled, &conf)
	if err != nil {
		return nil, err
	}

	if confString != "" {
		decoder := yaml.NewDecoder(strings.NewReader(confString))
		decoder.KnownFields(strictMode)
		if err := decoder.Decode(&conf); err != nil {
			return nil, fmt.Errorf("could not parse config: %v", err)
		}
	}

	if c != nil {
		if err := conf.updateFromCLI(c, baseFlags); err != nil {
			return nil, err
		}
	}

	// expand env vars in filenames
	file, err := homedir.Expand(os.ExpandEnv(conf.Signal.TokenFile))
	if err != nil {
		return nil, err
	}
	conf.Signal.TokenFile = file

	if conf.Logging.Level == "" && conf.Development {
		conf.Logging.Level = "debug"
	}
	if conf.Logging.PionLevel != "" {
		if conf.Logging.ComponentLevels == nil {
			conf.Logging.ComponentLevels = map[string]string{}
		}
		conf.Logging.ComponentLevels["transport.pion"] = conf.Logging.PionLevel
		conf.Logging.ComponentLevels["pion"] = conf.Logging.PionLevel
	}

	return &conf, nil
}

// Validate checks the settings a running client cannot do without.
func (conf *Config) Validate() error {
	if conf.Self.UserID == "" || conf.Self.ClientID == "" {
		return ErrSelfNotSet
	}
	if conf.Signal.URL == "" {
		return ErrSignalURLNotSet
	}
	if conf.Call.StillOngoingMinRemaining < 1 {
		return fmt.Errorf("call.still_ongoing_min_remaining must be at least 1, got %d", conf.Call.StillOngoingMinRemaining)
	}
	for name, d := range map[string]time.Duration{
		"call.response_timeout":            conf.Call.ResponseTimeout,
		"call.connect_timeout":             conf.Call.ConnectTimeout,
		"call.incoming_timeout":            conf.Call.IncomingTimeout,
		"call.stale_threshold":             conf.Call.StaleThreshold,
		"transport.direct_connect_timeout": conf.Transport.DirectConnectTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// LoadSignalToken reads the bearer token for the conversation service. A token file takes
// precedence over an inline token.
func (conf *Config) LoadSignalToken() error {
	if conf.Signal.TokenFile == "" {
		return nil
	}

	var otherFilter os.FileMode = 0o007
	if st, err := os.Stat(conf.Signal.TokenFile); err != nil {
		return err
	} else if st.Mode().Perm()&otherFilter != 0o000 {
		return ErrTokenFileIncorrectPermission
	}
	data, err := os.ReadFile(conf.Signal.TokenFile)
	if err != nil {
		return err
	}
	conf.Signal.Token = strings.TrimSpace(string(data))
	if conf.Signal.Token == "" && !conf.Development {
		logger.Warnw("signal token file is empty", nil, "file", conf.Signal.TokenFile)
	}
	return nil
}

func (conf *Config) Capabilities() types.Capabilities {
	return types.Capabilities{
		RelayURL:   conf.Transport.RelayURL,
		ICEServers: conf.Transport.ICEServers,
	}
}

type configNode struct {
	TypeNode  reflect.Value
	TagPrefix string
}

func (conf *Config) ToCLIFlagNames(existingFlags []cli.Flag) map[string]reflect.Value {
	existingFlagNames := map[string]bool{}
	for _, flag := range existingFlags {
		for _, flagName := range flag.Names() {
			existingFlagNames[flagName] = true
		}
	}

	flagNames := map[string]reflect.Value{}
	var currNode configNode
	nodes := []configNode{{reflect.ValueOf(conf).Elem(), ""}}
	for len(nodes) > 0 {
		currNode, nodes = nodes[0], nodes[1:]
		for i := 0; i < currNode.TypeNode.NumField(); i++ {
			// inspect yaml tag from struct field to get path
			field := currNode.TypeNode.Type().Field(i)
			yamlTagArray := strings.SplitN(field.Tag.Get("yaml"), ",", 2)
			yamlTag := yamlTagArray[0]
			isInline := false
			if len(yamlTagArray) > 1 && yamlTagArray[1] == "inline" {
				isInline = true
			}
			if (yamlTag == "" && (!isInline || currNode.TagPrefix == "")) || yamlTag == "-" {
				continue
			}
			yamlPath := yamlTag
			if currNode.TagPrefix != "" {
				if isInline {
					yamlPath = currNode.TagPrefix
				} else {
					yamlPath = fmt.Sprintf("%s.%s", currNode.TagPrefix, yamlTag)
				}
			}
			if existingFlagNames[yamlPath] {
				continue
			}

			value := currNode.TypeNode.Field(i)
			if value.Kind() == reflect.Struct {
				nodes = append(nodes, configNode{value, yamlPath})
			} else {
				flagNames[yamlPath] = value
			}
		}
	}

	return flagNames
}

func GenerateCLIFlags(existingFlags []cli.Flag, hidden bool) ([]cli.Flag, error) {
	blankConfig := &Config{}
	flags := make([]cli.Flag, 0)
	for name, value := range blankConfig.ToCLIFlagNames(existingFlags) {
		kind := value.Kind()
		if kind == reflect.Ptr {
			kind = value.Type().Elem().Kind()
		}

		var flag cli.Flag
		envVar := fmt.Sprintf("CALLCORE_%s", strings.ToUpper(strings.Replace(name, ".", "_", -1)))

		switch kind {
		case reflect.Bool:
			flag = &cli.BoolFlag{
				Name:   name,
				Usage:  generatedCLIFlagUsage,
				Hidden: hidden,
			}
		case reflect.String:
			flag = &cli.StringFlag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Int, reflect.Int32:
			flag = &cli.IntFlag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Int64:
			if value.Type() == reflect.TypeOf(time.Duration(0)) {
				flag = &cli.DurationFlag{
					Name:    name,
					EnvVars: []string{envVar},
					Usage:   generatedCLIFlagUsage,
					Hidden:  hidden,
				}
				break
			}
			flag = &cli.Int64Flag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			flag = &cli.Uint64Flag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Float32, reflect.Float64:
			flag = &cli.Float64Flag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Slice, reflect.Map, reflect.Struct:
			continue
		default:
			return flags, fmt.Errorf("cli flag generation unsupported for config type: %s is a %s", name, kind.String())
		}

		flags = append(flags, flag)
	}

	return flags, nil
}

func (conf *Config) updateFromCLI(c *cli.Context, baseFlags []cli.Flag) error {
	generatedFlagNames := conf.ToCLIFlagNames(baseFlags)
	for _, flag := range c.App.Flags {
		flagName := flag.Names()[0]

		if !c.IsSet(flagName) {
			continue
		}

		configValue, ok := generatedFlagNames[flagName]
		if !ok {
			continue
		}

		kind := configValue.Kind()
		if kind == reflect.Ptr {
			// instantiate value to be set
			configValue.Set(reflect.New(configValue.Type().Elem()))

			kind = configValue.Type().Elem().Kind()
			configValue = configValue.Elem()
		}

		switch kind {
		case reflect.Bool:
			configValue.SetBool(c.Bool(flagName))
		case reflect.String:
			configValue.SetString(c.String(flagName))
		case reflect.Int, reflect.Int32:
			configValue.SetInt(c.Int64(flagName))
		case reflect.Int64:
			if configValue.Type() == reflect.TypeOf(time.Duration(0)) {
				configValue.SetInt(int64(c.Duration(flagName)))
			} else {
				configValue.SetInt(c.Int64(flagName))
			}
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			configValue.SetUint(c.Uint64(flagName))
		case reflect.Float32, reflect.Float64:
			configValue.SetFloat(c.Float64(flagName))
		default:
			return fmt.Errorf("unsupported generated cli flag type for config: %s is a %s", flagName, kind.String())
		}
	}

	if c.IsSet("dev") {
		conf.Development = c.Bool("dev")
	}
	if c.IsSet("user-id") {
		conf.Self.UserID = c.String("user-id")
	}
	if c.IsSet("client-id") {
		conf.Self.ClientID = c.String("client-id")
	}
	if c.IsSet("signal-url") {
		conf.Signal.URL = c.String("signal-url")
	}
	if c.IsSet("token-file") {
		conf.Signal.TokenFile = c.String("token-file")
	}
	return nil
}

// Note: only pass in logr.Logger with default depth
func SetLogger(l logger.Logger) {
	logger.SetLogger(l, "callcore")
}

func InitLoggerFromConfig(config *LoggingConfig) {
	logger.InitFromConfig(&config.Config, "callcore")
}
