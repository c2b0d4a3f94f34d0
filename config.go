package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind          string
	gameTTL       time.Duration
	maxUploadSize int64
	port          int
	prefix        string
	profile       bool
	reapInterval  time.Duration
	sessionDir    string
	tlsCert       string
	tlsKey        string
	uploads       string
	verbose       bool
	version       bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.gameTTL <= 0 {
		return fmt.Errorf("invalid game TTL: %s", c.gameTTL)
	}
	if c.reapInterval <= 0 {
		return fmt.Errorf("invalid reap interval: %s", c.reapInterval)
	}
	if c.maxUploadSize < 1 {
		return fmt.Errorf("invalid max upload size: %d", c.maxUploadSize)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".life4today"
	}
	return filepath.Join(home, ".life4today")
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LIFE4TODAY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "life4today",
		Short:         "A photo-challenge party game: four topics each, one photo per topic, shuffle the rest.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: LIFE4TODAY_BIND)")
	fs.DurationVar(&cfg.gameTTL, "game-ttl", 24*time.Hour, "time before inactive games are reaped (env: LIFE4TODAY_GAME_TTL)")
	fs.Int64Var(&cfg.maxUploadSize, "max-upload-size", 5<<20, "maximum photo upload size in bytes (env: LIFE4TODAY_MAX_UPLOAD_SIZE)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: LIFE4TODAY_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: LIFE4TODAY_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: LIFE4TODAY_PROFILE)")
	fs.DurationVar(&cfg.reapInterval, "reap-interval", time.Hour, "how often expired games are swept (env: LIFE4TODAY_REAP_INTERVAL)")
	fs.StringVar(&cfg.sessionDir, "session-dir", defaultSessionDir(), "directory holding the cached client session (env: LIFE4TODAY_SESSION_DIR)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: LIFE4TODAY_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: LIFE4TODAY_TLS_KEY)")
	fs.StringVar(&cfg.uploads, "uploads", "uploads", "directory holding uploaded photos (env: LIFE4TODAY_UPLOADS)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: LIFE4TODAY_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: LIFE4TODAY_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newSessionCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("life4today v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
