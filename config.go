package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Config is the process configuration. Layers apply in order: defaults,
// TOML file (-config), BRICKER_* environment variables, then any flag
// given explicitly on the command line.
type Config struct {
	Addr      string  `toml:"addr" env:"BRICKER_ADDR"`
	ClientDir string  `toml:"client_dir" env:"BRICKER_CLIENT_DIR"`
	DBPath    string  `toml:"db" env:"BRICKER_DB"`
	PublicURL string  `toml:"public_url" env:"BRICKER_PUBLIC_URL"` // base for QR links
	Rows      int     `toml:"rows" env:"BRICKER_ROWS"`
	Cols      int     `toml:"cols" env:"BRICKER_COLS"`
	Width     float64 `toml:"width" env:"BRICKER_WIDTH"`
	Height    float64 `toml:"height" env:"BRICKER_HEIGHT"`
	TUI       bool    `toml:"tui" env:"BRICKER_TUI"`
	Sound     bool    `toml:"sound" env:"BRICKER_SOUND"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	g := DefaultGameConfig()
	return Config{
		Addr:   ":8080",
		DBPath: MemoryDSN,
		Rows:   g.Rows,
		Cols:   g.Cols,
		Width:  g.Width,
		Height: g.Height,
		Sound:  true,
	}
}

// LoadConfig builds a Config from args (without the program name).
// Flag usage goes to out.
func LoadConfig(args []string, out io.Writer) (Config, error) {
	def := DefaultConfig()
	fs := flag.NewFlagSet("bricker", flag.ContinueOnError)
	fs.SetOutput(out)

	var f Config
	configPath := fs.String("config", "", "Path to a TOML config file")
	fs.StringVar(&f.Addr, "addr", def.Addr, "HTTP listen address")
	fs.StringVar(&f.ClientDir, "client", "", "Path to client directory (default: ../client)")
	fs.StringVar(&f.DBPath, "db", def.DBPath, "SQLite database path (default keeps everything in memory)")
	fs.StringVar(&f.PublicURL, "public-url", "", "Public base URL used in controller QR codes")
	fs.IntVar(&f.Rows, "rows", def.Rows, "Brick rows")
	fs.IntVar(&f.Cols, "cols", def.Cols, "Brick columns")
	fs.Float64Var(&f.Width, "width", def.Width, "Window width in world units")
	fs.Float64Var(&f.Height, "height", def.Height, "Window height in world units")
	fs.BoolVar(&f.TUI, "tui", false, "Play one local game in the terminal instead of serving")
	fs.BoolVar(&f.Sound, "sound", def.Sound, "Play a tone on bounces in terminal mode")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := def
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", *configPath, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	// only flags the user actually passed override the lower layers
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "addr":
			cfg.Addr = f.Addr
		case "client":
			cfg.ClientDir = f.ClientDir
		case "db":
			cfg.DBPath = f.DBPath
		case "public-url":
			cfg.PublicURL = f.PublicURL
		case "rows":
			cfg.Rows = f.Rows
		case "cols":
			cfg.Cols = f.Cols
		case "width":
			cfg.Width = f.Width
		case "height":
			cfg.Height = f.Height
		case "tui":
			cfg.TUI = f.TUI
		case "sound":
			cfg.Sound = f.Sound
		}
	})

	if cfg.ClientDir == "" {
		cfg.ClientDir = defaultClientDir()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects geometry no round could be built from
func (c Config) Validate() error {
	return c.Game().Validate()
}

// Game returns the round layout this config describes
func (c Config) Game() GameConfig {
	g := DefaultGameConfig()
	g.Rows, g.Cols = c.Rows, c.Cols
	g.Width, g.Height = c.Width, c.Height
	return g
}

func defaultClientDir() string {
	exe, _ := os.Executable()
	dir := filepath.Join(filepath.Dir(exe), "..", "client")
	// Fallback for development
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		dir = "../client"
	}
	return dir
}
