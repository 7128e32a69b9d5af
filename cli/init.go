package cli

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

//go:embed all:_starter
var starterFS embed.FS

var InitCommand = &cli.Command{
	Name:      "init",
	Usage:     "Write the starter templates, static files and config",
	ArgsUsage: "[directory (default: current directory)]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "force", Usage: "overwrite files that already exist"},
	},
	Action: func(c *cli.Context) error {
		targetDir := c.Args().First()
		if targetDir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve working directory: %w", err)
			}
			targetDir = wd
		}

		fmt.Println("🚀 Creating project in:", targetDir)

		written, err := copyEmbeddedDir(starterFS, "_starter", targetDir, c.Bool("force"))
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		fmt.Printf("✅ Project created successfully (%d files).\n", written)
		fmt.Println("▶  Run: display dev")
		return nil
	},
}

// copyEmbeddedDir copies sourceDir out of source into targetDir. Existing
// files are left alone unless overwrite is set.
func copyEmbeddedDir(source fs.FS, sourceDir string, targetDir string, overwrite bool) (int, error) {
	written := 0

	err := fs.WalkDir(source, sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}

		if rel == "." {
			return nil
		}

		targetPath := filepath.Join(targetDir, rel)

		if d.IsDir() {
			return os.MkdirAll(targetPath, os.ModePerm)
		}

		if _, err := os.Stat(targetPath); err == nil && !overwrite {
			fmt.Println("⏭️  Skipping existing file:", rel)
			return nil
		}

		data, err := fs.ReadFile(source, path)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), os.ModePerm); err != nil {
			return err
		}

		if err := os.WriteFile(targetPath, data, 0644); err != nil {
			return err
		}
		written++
		return nil
	})

	return written, err
}
