package core

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath  = "display.config.yml"
	DefaultAddr        = "0.0.0.0:5000"
	DefaultTemplateDir = "templates"
	DefaultStaticDir   = "static"
	DefaultOutputDir   = "./cache"
)

type Config struct {
	Addr         string `yaml:"addr" json:"addr"`
	TemplateDir  string `yaml:"templateDir" json:"templateDir"`
	StaticDir    string `yaml:"staticDir" json:"staticDir"`
	OutputDir    string `yaml:"outputDir" json:"outputDir"`
	CacheEnabled bool   `yaml:"cache" json:"cache"`
	DebugHeaders bool   `yaml:"debugHeaders" json:"debugHeaders"`
	DebugLogs    bool   `yaml:"debugLogs" json:"debugLogs"`
}

func DefaultConfig() Config {
	return Config{
		Addr:         DefaultAddr,
		TemplateDir:  DefaultTemplateDir,
		StaticDir:    DefaultStaticDir,
		OutputDir:    DefaultOutputDir,
		CacheEnabled: true,
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing or
// unreadable file yields the defaults; keys the file leaves out or sets to
// an empty string keep their default value.
func LoadConfig(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig()
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig()
	}

	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.TemplateDir == "" {
		cfg.TemplateDir = def.TemplateDir
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = def.StaticDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = def.OutputDir
	}

	return cfg
}
