package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/repodoc/internal/config"
)

// DefaultConfigPath is used when --config is not given. A missing default
// file means built-in defaults.
const DefaultConfigPath = "repodoc.yaml"

// Global is shared with every command.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
	Err    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path" default:"repodoc.yaml"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	LogFormat   string           `name:"log-format" help:"Log format (text or json); defaults to logging.format"`
	MetricsAddr string           `name:"metrics-addr" help:"Serve Prometheus metrics on this address while the command runs"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run      RunCmd      `cmd:"" help:"Generate documentation for one repository"`
	Review   ReviewCmd   `cmd:"" help:"Score an existing README against its repository"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	Schedule ScheduleCmd `cmd:"" help:"Regenerate documentation periodically"`
	Watch    WatchCmd    `cmd:"" help:"Regenerate documentation when a local repository changes"`
	History  HistoryCmd  `cmd:"" help:"List recorded runs"`
}

// AfterApply runs after flag parsing and sets up logging once. The level
// comes from --verbose, then REPODOC_LOG_LEVEL; the configuration file may
// refine it when a command loads it.
func (c *CLI) AfterApply(g *Global) error {
	level := config.NormalizeLogLevel(os.Getenv("REPODOC_LOG_LEVEL"))
	if c.Verbose {
		level = config.LogLevelDebug
	}
	c.setLogger(g, level, config.NormalizeLogFormat(c.LogFormat))
	return nil
}

func (c *CLI) setLogger(g *Global, level config.LogLevel, format config.LogFormat) {
	if g.Err == nil {
		g.Err = os.Stderr
	}
	if g.Out == nil {
		g.Out = os.Stdout
	}
	g.Logger = NewLogger(g.Err, level, format)
	slog.SetDefault(g.Logger)
}

// NewLogger builds the slog handler for a level and format.
func NewLogger(w io.Writer, level config.LogLevel, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slogLevel(level)}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadConfig reads the configuration and applies its logging section unless
// flags already decided it.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	path := c.Config
	if path == DefaultConfigPath {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if !c.Verbose {
		format := cfg.Logging.Format
		if c.LogFormat != "" {
			format = config.NormalizeLogFormat(c.LogFormat)
		}
		c.setLogger(g, cfg.Logging.Level, format)
	}
	g.Logger.Debug("Configuration loaded", slog.String("path", path), slog.String("provider", string(cfg.Generation.Provider)))
	return cfg, nil
}
