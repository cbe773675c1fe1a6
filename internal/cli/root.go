// Package cli implements dashctl, a terminal client for the admin platform
// API that runs the same login flow and list views as the dashboard.
package cli

import (
	"bufio"
	"io"
	"os"

	"github.com/fillipgms/admin-playfiver-sub001/internal/format"
	"github.com/fillipgms/admin-playfiver-sub001/internal/remote"
	"github.com/fillipgms/admin-playfiver-sub001/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// App holds the streams and configuration shared by every command.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	cfgFile string
	output  string
	debug   bool

	config     *viper.Viper
	configPath string
	reader     *bufio.Reader
}

func NewApp(in io.Reader, out io.Writer, errOut io.Writer) *App {
	return &App{In: in, Out: out, Err: errOut}
}

// Execute runs dashctl against the process streams.
func Execute() error {
	return NewApp(os.Stdin, os.Stdout, os.Stderr).RootCommand().Execute()
}

func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "dashctl",
		Short: "dashctl - terminal client for the admin dashboard",
		Long: `dashctl signs in to the platform API with the same three step flow as
the dashboard (credentials, authenticator registration, 2FA code) and
browses the dashboard lists from a terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}
	root.SetIn(a.In)
	root.SetOut(a.Out)
	root.SetErr(a.Err)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.dashctl.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "", "output format (table, json, json-compact, yaml, text)")

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.statusCommand(),
		a.dashboardCommand(),
		a.listCommand(),
		a.searchCommand(),
	)
	return root
}

func (a *App) logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(a.Err)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if a.debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

type clients struct {
	auth     *service.AuthService
	lists    *service.ListService
	sessions *fileSessionStore
}

func (a *App) clients() *clients {
	logger := a.logger()
	platform := remote.NewClient(
		a.config.GetString(keyAPIURL),
		a.config.GetDuration(keyAPITimeout),
		a.config.GetDuration(keyAPILoginTimeout),
		logger,
	)
	sessions := newFileSessionStore(a.config, a.configPath)
	return &clients{
		// The terminal shows the registration URL as is, so no QR renderer.
		auth:     service.NewAuthService(platform, sessions, nil, nil, nil, logger, service.RealClock{}, service.AuthConfig{}),
		lists:    service.NewListService(platform, logger),
		sessions: sessions,
	}
}

func (a *App) formatter() (format.Formatter, error) {
	name := a.output
	if name == "" {
		name = a.config.GetString(keyFormatDefault)
	}
	return format.New(name, a.Out, a.colors())
}

func (a *App) printer() format.Printer {
	return format.Printer{Out: a.Out, UseColors: a.colors()}
}

func (a *App) colors() bool {
	return a.config.GetBool(keyFormatColors)
}

func (a *App) clientIP() *string {
	if ip := a.config.GetString(keyClientIP); ip != "" {
		return &ip
	}
	return nil
}
