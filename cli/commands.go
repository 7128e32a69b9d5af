package cli

import (
	"github.com/go-barry/display"
	"github.com/go-barry/display/core"

	"github.com/urfave/cli/v2"
)

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Value:   core.DefaultConfigPath,
	Usage:   "path to the YAML config file",
}

var addrFlag = &cli.StringFlag{
	Name:  "addr",
	Usage: "listen address, overrides the config file (default 0.0.0.0:5000)",
}

var DevCommand = &cli.Command{
	Name:  "dev",
	Usage: "Start the server with diagnostics, file watching and live reload",
	Flags: []cli.Flag{configFlag, addrFlag},
	Action: func(c *cli.Context) error {
		return display.Start(display.RuntimeConfig{
			Env:         "dev",
			Debug:       true,
			EnableCache: false,
			Addr:        c.String("addr"),
			ConfigPath:  c.String("config"),
		})
	},
}

var ProdCommand = &cli.Command{
	Name:  "prod",
	Usage: "Start the server in production mode (caching on by default)",
	Flags: []cli.Flag{
		configFlag,
		addrFlag,
		&cli.BoolFlag{Name: "cache", Usage: "cache rendered GET pages on disk (default: the config file's cache key, true if unset)"},
		&cli.BoolFlag{Name: "debug", Usage: "show diagnostic detail in error responses"},
	},
	Action: func(c *cli.Context) error {
		return display.Start(display.RuntimeConfig{
			Env:         "prod",
			Debug:       c.Bool("debug"),
			EnableCache: cacheSetting(c),
			Addr:        c.String("addr"),
			ConfigPath:  c.String("config"),
		})
	},
}

// cacheSetting prefers an explicit --cache flag over the config file.
func cacheSetting(c *cli.Context) bool {
	if c.IsSet("cache") {
		return c.Bool("cache")
	}
	return core.LoadConfig(c.String("config")).CacheEnabled
}
