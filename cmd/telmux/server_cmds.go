package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"telmux/internal/app"
	"telmux/internal/banner"
	"telmux/internal/console"
	"telmux/internal/mux"
)

var portSpec string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the multiplexor",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := app.Boot(cfgFile, false); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
	Run: startServer,
}

func init() {
	serverCmd.Flags().StringVarP(&portSpec, "port", "p", "", "listen port, overrides the config file")
}

func startServer(cmd *cobra.Command, args []string) {
	restartChan := make(chan struct{}, 1)
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)

	for {
		var watcher *fsnotify.Watcher
		if app.Config.HotReload {
			watcher = watchConfig(restartChan)
		}

		m, host, err := buildHost()
		if err != nil {
			app.Logger.Error("Failed to start multiplexor", "err", err)
			if watcher != nil {
				watcher.Close()
			}
			os.Exit(1)
		}
		go host.Run()

		select {
		case <-stopChan:
			app.Logger.Info("Shutting down...")
			host.Stop()
			m.Detach()
			if watcher != nil {
				watcher.Close()
			}
			return

		case <-restartChan:
			host.Stop()
			m.Detach()
			if watcher != nil {
				watcher.Close()
			}
			if err := app.Boot(cfgFile, false); err != nil {
				app.Logger.Error("Failed to reload config", "err", err)
				// Continue with the existing config; Boot does not swap
				// globals on failure.
			}
		}
	}
}

// buildHost assembles the multiplexor and its echo host from the booted
// configuration. Only configuration errors come back; everything at the
// connection level is self-healing.
func buildHost() (*mux.Multiplexor, *console.Host, error) {
	cfg := app.Config

	m := mux.New(cfg.Listener.Lines, cfg.General.SystemName, app.Logger)

	data := banner.Data{
		SystemName: cfg.General.SystemName,
		Version:    app.Version,
		Port:       cfg.Listener.Port,
		Lines:      cfg.Listener.Lines,
	}
	welcome, err := banner.Render(cfg.General.WelcomeBanner, data)
	if err != nil {
		return nil, nil, fmt.Errorf("bad welcome banner template: %w", err)
	}
	goodbye, err := banner.Render(cfg.General.GoodbyeBanner, data)
	if err != nil {
		return nil, nil, fmt.Errorf("bad goodbye banner template: %w", err)
	}
	m.SetBanners(welcome, goodbye)

	spec := portSpec
	if spec == "" {
		spec = strconv.Itoa(cfg.Listener.Port)
	}
	if err := m.Attach(spec); err != nil {
		return nil, nil, err
	}

	host := console.New(m,
		time.Duration(cfg.Poll.IntervalMs)*time.Millisecond,
		time.Duration(cfg.Poll.StatusIntervalSec)*time.Second,
		app.Logger,
	)
	return m, host, nil
}

// watchConfig re-arms the hot reload watcher over every loaded config
// file. A write event queues one restart.
func watchConfig(restartChan chan struct{}) *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		app.Logger.Error("Failed to create watcher", "err", err)
		return nil
	}

	for _, file := range app.Config.LoadedFiles {
		err := watcher.Add(file)

		// Try to make the path relative for cleaner logging
		relPath := file
		if cwd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(cwd, file); err == nil {
				relPath = rel
			}
		}

		if err != nil {
			app.Logger.Error("Failed to watch config file", "file", relPath, "err", err)
		} else {
			app.Logger.Debug("Watching config file", "file", relPath)
		}
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write {
					app.Logger.Info("Config file modified, rebooting...", "file", event.Name)
					select {
					case restartChan <- struct{}{}:
					default:
						// restart pending
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				app.Logger.Error("Watcher error", "err", err)
			}
		}
	}()

	return watcher
}
