package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read into Config.
const EnvPrefix = "PROP_SOUND_"

// Config holds the service configuration. Values come from, in increasing
// precedence: defaults, the .env file, the environment, flags.
type Config struct {
	Decoder     string        `env:"DECODER" envDefault:"mpg123"`        // backend name, "auto", or an executable
	DecoderArgs []string      `env:"DECODER_ARGS" envSeparator:" "`      // replaces the backend's default arguments
	GracePeriod time.Duration `env:"GRACE_PERIOD" envDefault:"2s"`       // wait between graceful stop and kill
	HTTPAddr    string        `env:"HTTP_ADDR"`                          // HTTP control API, disabled when empty
	SocketPath  string        `env:"SOCKET"`                             // unix socket control channel, disabled when empty
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty   bool          `env:"LOG_PRETTY"`
	EnvFile     string        `env:"-"`
}

// ParseArgs parses command line arguments (without the program name) and
// returns a Config.
func ParseArgs(args []string) (*Config, error) {
	var flags Config
	fset := newFlagSet(&flags)
	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	return resolve(fset, &flags)
}

func newFlagSet(flags *Config) *pflag.FlagSet {
	fset := pflag.NewFlagSet("prop-sound", pflag.ContinueOnError)
	fset.StringVar(&flags.Decoder, "decoder", "", "decoder backend (mpg123, aplay, ffplay, auto) or executable")
	fset.StringSliceVar(&flags.DecoderArgs, "decoder-arg", nil, "decoder argument, repeatable; replaces the defaults")
	fset.DurationVar(&flags.GracePeriod, "grace", 0, "grace period before a stopped decoder is killed")
	fset.StringVar(&flags.HTTPAddr, "http-addr", "", "serve the HTTP control API on this address")
	fset.StringVar(&flags.SocketPath, "socket", "", "serve the line protocol on this unix socket")
	fset.StringVar(&flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	fset.BoolVar(&flags.LogPretty, "log-pretty", false, "human readable logs on stderr")
	fset.StringVar(&flags.EnvFile, "env-file", ".env", "dotenv file to load")
	fset.Usage = func() { printUsage(fset) }
	return fset
}

func resolve(fset *pflag.FlagSet, flags *Config) (*Config, error) {
	if err := godotenv.Load(flags.EnvFile); err != nil {
		// The default .env is optional; an explicit one is not.
		if !errors.Is(err, fs.ErrNotExist) || fset.Changed("env-file") {
			return nil, fmt.Errorf("load %s: %w", flags.EnvFile, err)
		}
	}

	cfg := &Config{EnvFile: flags.EnvFile}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if fset.Changed("decoder") {
		cfg.Decoder = flags.Decoder
	}
	if fset.Changed("decoder-arg") {
		cfg.DecoderArgs = flags.DecoderArgs
	}
	if fset.Changed("grace") {
		cfg.GracePeriod = flags.GracePeriod
	}
	if fset.Changed("http-addr") {
		cfg.HTTPAddr = flags.HTTPAddr
	}
	if fset.Changed("socket") {
		cfg.SocketPath = flags.SocketPath
	}
	if fset.Changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
	if fset.Changed("log-pretty") {
		cfg.LogPretty = flags.LogPretty
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Decoder == "" {
		return fmt.Errorf("decoder is required")
	}
	if c.GracePeriod <= 0 {
		return fmt.Errorf("grace period must be positive, got %s", c.GracePeriod)
	}
	return nil
}

// printUsage prints the usage information.
func printUsage(fset *pflag.FlagSet) {
	fmt.Fprintln(os.Stderr, "\nUsage:")
	fmt.Fprintln(os.Stderr, "  prop-sound [flags]")
	fmt.Fprintln(os.Stderr, "\nCommands are read from stdin, one per line:")
	fmt.Fprintln(os.Stderr, "  <message_id>|PLAY|<sound_id>|<path>")
	fmt.Fprintln(os.Stderr, "  <message_id>|STOP|<sound_id>")
	fmt.Fprintln(os.Stderr, "  <message_id>|STOP_ALL")
	fmt.Fprintln(os.Stderr, "  <message_id>|STATUS|<sound_id>")
	fmt.Fprintln(os.Stderr, "  <message_id>|EXIT")
	fmt.Fprintln(os.Stderr, "\nFlags:")
	fmt.Fprint(os.Stderr, fset.FlagUsages())
	fmt.Fprintln(os.Stderr, "\nEvery flag can also be set as "+EnvPrefix+"<NAME> in the environment or .env.")
	fmt.Fprintln(os.Stderr)
}

// PrintUsageAndExit prints usage and exits with code 2.
func PrintUsageAndExit() {
	printUsage(newFlagSet(&Config{}))
	os.Exit(2)
}
