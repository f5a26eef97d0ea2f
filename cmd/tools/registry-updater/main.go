// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"opportune-notifier/internal/email"
	"opportune-notifier/pkg/registry"
)

func main() {
	setCmd := flag.NewFlagSet("set", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	// Set command flags
	pathSet := setCmd.String("path", "configs/email-templates.json", "Path to registry file")
	name := setCmd.String("name", "", "Template name (followupReminder or dailyDigest)")
	subject := setCmd.String("subject", "", "Subject template")
	htmlFile := setCmd.String("htmlFile", "", "File containing the HTML body template")

	// Validate command flags
	pathValidate := validateCmd.String("path", "configs/email-templates.json", "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "set":
		setCmd.Parse(os.Args[2:])
		if *name == "" || *subject == "" || *htmlFile == "" {
			fmt.Println("Error: name, subject and htmlFile are required for set.")
			setCmd.Usage()
			os.Exit(1)
		}
		if err := setTemplate(*pathSet, *name, *subject, *htmlFile); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Template %q written to %s\n", *name, *pathSet)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validate(*pathValidate); err != nil {
			fmt.Printf("Registry is invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Registry is valid, all templates parse and render.")

	default:
		help()
		os.Exit(1)
	}
}

func help() {
	fmt.Println("Usage: registry-updater <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  set       Add or replace a template override in the registry file")
	fmt.Println("  validate  Check the registry file against the schema and parse every template")
}

// setTemplate reads or creates the registry file and upserts one definition.
func setTemplate(path, name, subject, htmlFile string) error {
	html, err := os.ReadFile(htmlFile)
	if err != nil {
		return fmt.Errorf("read html file: %w", err)
	}

	reg := &registry.TemplateRegistry{Version: "1"}
	if _, err := os.Stat(path); err == nil {
		reg, err = registry.LoadRegistry(path)
		if err != nil {
			return err
		}
	}

	def := registry.TemplateDefinition{Name: name, Subject: subject, HTML: string(html)}
	replaced := false
	for i, existing := range reg.Templates {
		if existing.Name == name {
			reg.Templates[i] = def
			replaced = true
			break
		}
	}
	if !replaced {
		reg.Templates = append(reg.Templates, def)
	}
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	// The written file must round-trip through the real loader.
	return validate(path)
}

// validate loads the registry the same way the service does at startup.
func validate(path string) error {
	_, err := email.NewTemplateSetFromRegistry(path)
	return err
}
