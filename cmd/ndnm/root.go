package main

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ndnm/ndnm/internal/config"
	"github.com/ndnm/ndnm/internal/install"
	"github.com/ndnm/ndnm/internal/messages"
	"github.com/ndnm/ndnm/internal/transport"
)

var getwd = os.Getwd

var newTransport = func(cfg config.Config) install.Transport {
	return transport.New(cfg.HTTPTimeout, transport.WithRetries(cfg.Retries))
}

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	debug       bool
	configPath  string
	platform    string
	installRoot string
	indexURL    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   messages.RootUse,
		Short: messages.RootShort,
		Long:  messages.RootLong,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if flags.debug {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.InfoLevel)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&flags.debug, "debug", false, messages.RootFlagDebug)
	pf.StringVar(&flags.configPath, "config", "", messages.RootFlagConfig)
	pf.StringVar(&flags.platform, "platform", "", messages.RootFlagPlatform)
	pf.StringVar(&flags.installRoot, "install-root", "", messages.RootFlagInstallRoot)
	pf.StringVar(&flags.indexURL, "index-url", "", messages.RootFlagIndexURL)

	cmd.AddCommand(
		newInstallCmd(flags),
		newResolveCmd(flags),
		newListCmd(flags),
	)
	return cmd
}

// loadConfig resolves configuration with flags taking precedence over the
// environment, the config file, and defaults.
func loadConfig(flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{Path: flags.configPath})
	if err != nil {
		return config.Config{}, err
	}
	if root := strings.TrimSpace(flags.installRoot); root != "" {
		cfg.InstallRoot, err = config.ExpandPath(root)
		if err != nil {
			return config.Config{}, err
		}
	}
	if platform := strings.TrimSpace(flags.platform); platform != "" {
		if err := config.ValidatePlatform(platform); err != nil {
			return config.Config{}, err
		}
		cfg.Platform = platform
	}
	if indexURL := strings.TrimSpace(flags.indexURL); indexURL != "" {
		cfg.IndexURL = indexURL
	}
	log.Debugf("config: root=%s platform=%s index=%s", cfg.InstallRoot, cfg.Platform, cfg.IndexURL)
	return cfg, cfg.Validate()
}
