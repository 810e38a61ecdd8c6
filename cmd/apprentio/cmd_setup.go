package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/apprentio/apprentio/internal/config"
)

// cmdInit initializes Apprentio for first-time use
func cmdInit() error {
	fmt.Println("Apprentio - First-Time Setup")
	fmt.Println("============================")
	fmt.Println()

	// 1. Create directory structure
	fmt.Print("Creating ~/.apprentio directory structure... ")
	appDir, err := config.EnsureAppDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	// 2. Create default config if it doesn't exist
	configPath := filepath.Join(appDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Creating default configuration... ")
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	// 3. Copy bundled catalog when running from a checkout
	fmt.Print("Setting up exercise catalog... ")
	catalogDest := filepath.Join(appDir, "catalog")
	if _, err := os.Stat("./catalog"); err == nil {
		if err := copyDir("./catalog", catalogDest); err != nil {
			fmt.Println("⚠ (manual copy required)")
		} else {
			fmt.Println("✓")
		}
	} else {
		fmt.Println("no ./catalog found, place packs under " + catalogDest)
	}

	fmt.Println()
	fmt.Println("Setup complete. Run 'apprentio start' to launch the daemon.")
	return nil
}

// cmdConfig prints the active configuration
func cmdConfig() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	appDir, err := config.AppDir()
	if err != nil {
		return err
	}

	fmt.Printf("# %s\n", filepath.Join(appDir, "config.yaml"))
	fmt.Print(string(data))
	return nil
}

// copyDir recursively copies a directory tree
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}

		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
