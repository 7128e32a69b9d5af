package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-barry/display/core"
	"github.com/segmentio/encoding/json"
	"github.com/urfave/cli/v2"
)

type projectInfo struct {
	Config      core.Config `json:"config"`
	Templates   int         `json:"templates"`
	Components  int         `json:"components"`
	StaticFiles int         `json:"staticFiles"`
	CachedPages int         `json:"cachedPages"`
}

func countFiles(root string, match func(path string) bool) int {
	count := 0
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && match(path) {
			count++
		}
		return nil
	})
	return count
}

func isHTML(path string) bool {
	return strings.HasSuffix(path, ".html")
}

func collectInfo(config core.Config) projectInfo {
	components := filepath.Join(config.TemplateDir, "components")

	return projectInfo{
		Config: config,
		Templates: countFiles(config.TemplateDir, func(path string) bool {
			return isHTML(path) && !strings.HasPrefix(path, components+string(filepath.Separator))
		}),
		Components:  countFiles(components, isHTML),
		StaticFiles: countFiles(config.StaticDir, func(string) bool { return true }),
		CachedPages: countFiles(config.OutputDir, func(path string) bool {
			return filepath.Base(path) == "index.html"
		}),
	}
}

var InfoCommand = &cli.Command{
	Name:  "info",
	Usage: "Print configuration, template and cache summary",
	Flags: []cli.Flag{
		configFlag,
		&cli.BoolFlag{Name: "json", Usage: "print the summary as JSON"},
	},
	Action: func(c *cli.Context) error {
		info := collectInfo(core.LoadConfig(c.String("config")))

		if c.Bool("json") {
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode info: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Println("🌐 Address:", info.Config.Addr)
		fmt.Println("📄 Template Directory:", info.Config.TemplateDir)
		fmt.Println("🎨 Static Directory:", info.Config.StaticDir)
		fmt.Println("📁 Output Directory:", info.Config.OutputDir)
		fmt.Println("🔁 Cache Enabled:", info.Config.CacheEnabled)
		fmt.Println("🔁 Debug Headers Enabled:", info.Config.DebugHeaders)
		fmt.Println("🔁 Debug Logs Enabled:", info.Config.DebugLogs)
		fmt.Println()
		fmt.Println("🗂️  Templates Found:", info.Templates)
		fmt.Println("📦 Components Found:", info.Components)
		fmt.Println("🖼️  Static Files:", info.StaticFiles)
		fmt.Println("💾 Cached Pages:", info.CachedPages)

		return nil
	},
}
