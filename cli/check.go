package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-barry/display/core"
	"github.com/urfave/cli/v2"
)

var requiredTemplates = []string{core.IndexTemplate, core.FormTemplate}

// checkTemplates renders every top-level page in the template directory with
// empty form bindings and reports each result. Layout files are skipped since
// they are exercised through the pages that use them.
func checkTemplates(config core.Config) (failed bool) {
	renderer := core.NewRenderer(config, "check")

	for _, name := range requiredTemplates {
		if _, err := os.Stat(filepath.Join(config.TemplateDir, name)); err != nil {
			failed = true
			fmt.Printf("❌ %s → missing from %s\n", name, config.TemplateDir)
		}
	}

	paths, _ := filepath.Glob(filepath.Join(config.TemplateDir, "*.html"))
	layouts := map[string]bool{}
	for _, path := range paths {
		if layout, err := renderer.Layout(filepath.Base(path)); err == nil && layout != "" {
			layouts[layout] = true
		}
	}

	var pages []string
	for _, path := range paths {
		if name := filepath.Base(path); !layouts[name] {
			pages = append(pages, name)
		}
	}
	sort.Strings(pages)

	for _, name := range pages {
		if _, err := renderer.Render(name, core.FormInput{}.Bindings()); err != nil {
			failed = true
			fmt.Printf("❌ %s → %v\n", name, err)
			continue
		}
		fmt.Printf("✅ %s\n", name)
	}

	return failed
}

var CheckCommand = &cli.Command{
	Name:  "check",
	Usage: "Validate that every template parses and renders",
	Flags: []cli.Flag{configFlag},
	Action: func(c *cli.Context) error {
		if checkTemplates(core.LoadConfig(c.String("config"))) {
			return cli.Exit("some templates failed to render", 1)
		}

		fmt.Println("✅ All templates validated successfully.")
		return nil
	},
}
