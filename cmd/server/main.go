package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/livekit/livekit-callcore/pkg/config"
	"github.com/livekit/livekit-callcore/pkg/service"
	"github.com/livekit/livekit-callcore/pkg/telemetry/prometheus"
	"github.com/livekit/livekit-callcore/version"
	"github.com/livekit/protocol/logger"
)

var baseFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "config",
		Usage: "path to call client config file",
	},
	&cli.StringFlag{
		Name:    "config-body",
		Usage:   "call client config in YAML, typically passed in as an environment var in a container",
		EnvVars: []string{"CALLCORE_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "user-id",
		Usage:   "user id of the local member",
		EnvVars: []string{"CALLCORE_USER_ID"},
	},
	&cli.StringFlag{
		Name:    "client-id",
		Usage:   "device id of the local member",
		EnvVars: []string{"CALLCORE_CLIENT_ID"},
	},
	&cli.StringFlag{
		Name:    "signal-url",
		Usage:   "websocket url of the conversation server",
		EnvVars: []string{"CALLCORE_SIGNAL_URL"},
	},
	&cli.StringFlag{
		Name:  "token-file",
		Usage: "path to file that contains the conversation server token",
	},
	&cli.BoolFlag{
		Name:  "dev",
		Usage: "sets log-level to debug and console formatter",
	},
	&cli.BoolFlag{
		Name:   "disable-strict-config",
		Usage:  "disables strict config parsing",
		Hidden: true,
	},
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("recovered panic", nil, "error", r)
			os.Exit(1)
		}
	}()

	generatedFlags, err := config.GenerateCLIFlags(baseFlags, true)
	if err != nil {
		fmt.Println(err)
	}

	app := &cli.App{
		Name:        "livekit-callcore",
		Usage:       "Headless call client for conversation based audio and video calls",
		Description: "run without subcommands to start the client",
		Flags:       append(baseFlags, generatedFlags...),
		Action:      startClient,
		Commands: []*cli.Command{
			{
				Name:   "help-verbose",
				Usage:  "prints app help, including all generated configuration flags",
				Action: helpVerbose,
			},
		},
		Version: version.Version,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println(err)
	}
}

func getConfig(c *cli.Context) (*config.Config, error) {
	confString, err := getConfigString(c.String("config"), c.String("config-body"))
	if err != nil {
		return nil, err
	}

	conf, err := config.NewConfig(confString, !c.Bool("disable-strict-config"), c, baseFlags)
	if err != nil {
		return nil, err
	}
	config.InitLoggerFromConfig(&conf.Logging)

	if err := conf.LoadSignalToken(); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if conf.Development {
		logger.Infow("starting in development mode")
	}
	return conf, nil
}

func startClient(c *cli.Context) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}

	prometheus.Init(conf.Self.ClientID)

	svc, err := service.NewCallService(conf, nil)
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-sigChan
		logger.Infow("exit requested, shutting down", "signal", sig)
		_ = svc.Stop()
	}()

	return svc.Start(context.Background())
}

func helpVerbose(c *cli.Context) error {
	generatedFlags, err := config.GenerateCLIFlags(baseFlags, false)
	if err != nil {
		return err
	}

	c.App.Flags = append(baseFlags, generatedFlags...)
	return cli.ShowAppHelp(c)
}

func getConfigString(configFile string, inConfigBody string) (string, error) {
	if inConfigBody != "" || configFile == "" {
		return inConfigBody, nil
	}

	outConfigBody, err := os.ReadFile(configFile)
	if err != nil {
		return "", err
	}

	return string(outConfigBody), nil
}
