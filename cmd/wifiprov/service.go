package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/logging"
)

// program adapts the daemon to the platform service manager
type program struct {
	cancel context.CancelFunc
	done   chan error
}

// Start implements service.Interface. It must not block.
func (p *program) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)

	go func() {
		err := serve(ctx)
		if err != nil {
			logging.Error("Daemon stopped", zap.Error(err))
		}
		p.done <- err
	}()
	return nil
}

// Stop implements service.Interface
func (p *program) Stop(s service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	return <-p.done
}

func loadService() (service.Service, error) {
	path, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}

	svcConfig := &service.Config{
		Name:        "wifiprov",
		DisplayName: "WiFi Provisioning",
		Description: "Keeps the device on its configured WiFi network and serves the provisioning portal when none is configured",
		Arguments:   []string{"service", "run", "--config", path},
	}

	s, err := service.New(&program{}, svcConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s service: %w", service.Platform(), err)
	}
	return s, nil
}

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage wifiprov as a " + service.Platform() + " service",
}

var serviceRunCmd = &cobra.Command{
	Use:         "run",
	Short:       "Run under the service manager",
	Hidden:      true,
	Annotations: map[string]string{daemonAnnotation: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadService()
		if err != nil {
			return err
		}
		return s.Run()
	},
}

func init() {
	rootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(serviceRunCmd)

	for _, action := range []struct{ name, short string }{
		{"install", "Install wifiprov as a " + service.Platform() + " service"},
		{"uninstall", "Remove the installed service"},
		{"start", "Start the installed service"},
		{"stop", "Stop the running service"},
		{"restart", "Restart the running service"},
	} {
		serviceCmd.AddCommand(&cobra.Command{
			Use:   action.name,
			Short: action.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := loadService()
				if err != nil {
					return err
				}
				if err := service.Control(s, action.name); err != nil {
					return err
				}
				fmt.Printf("Service %s: ok\n", action.name)
				return nil
			},
		})
	}
}
