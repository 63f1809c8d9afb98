package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/template"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [config_file]",
	Short: "Initialize a new telmux configuration",
	Long:  "Creates a starter configuration file, prompting for the listen port and line count.",
	Args:  cobra.MaximumNArgs(1),
	Run:   runInit,
}

type configTemplateData struct {
	SystemName string
	Port       string
	Lines      string
}

const configTemplate = `# telmux configuration
debug: false
hotReload: true

general:
  systemName: {{.SystemName}}

listener:
  port: {{.Port}}
  lines: {{.Lines}}

poll:
  intervalMs: 10
  statusIntervalSec: 60

loggers:
  - stdout: true
    level: info
  - file: logs/telmux.log
    level: debug
`

func runInit(cmd *cobra.Command, args []string) {
	configFile := "config.yml"
	if len(args) > 0 {
		configFile = args[0]
	}

	data := configTemplateData{
		SystemName: "telmux",
		Port:       "2323",
		Lines:      "4",
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("System Name").
				Description("Shown in the welcome banner").
				Value(&data.SystemName),
			huh.NewInput().
				Title("Listen Port").
				Value(&data.Port).
				Validate(func(str string) error {
					p, err := strconv.Atoi(str)
					if err != nil || p < 1 || p > 65535 {
						return fmt.Errorf("port must be between 1 and 65535")
					}
					return nil
				}),
			huh.NewInput().
				Title("Lines").
				Description("Number of virtual serial lines").
				Value(&data.Lines).
				Validate(func(str string) error {
					n, err := strconv.Atoi(str)
					if err != nil || n < 1 {
						return fmt.Errorf("lines must be a positive integer")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		log.Fatal(err)
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		fmt.Printf("Error parsing template: %v\n", err)
		os.Exit(1)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		fmt.Printf("Error executing template: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll("logs", 0755); err != nil {
		fmt.Printf("Error creating logs directory: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(configFile, buf.Bytes(), 0644); err != nil {
		fmt.Printf("Error writing config file %s: %v\n", configFile, err)
		os.Exit(1)
	}

	fmt.Printf("Configuration file created: %s\n", configFile)
}
