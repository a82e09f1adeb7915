package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"scribe/internal/api"
	"scribe/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) apiAddr() (string, error) {
	if c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != "" {
		return strings.TrimSpace(*c.apiFlag), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.Paths.APIBind, nil
}

func (c *commandContext) withClient(fn func(*api.Client) error) error {
	addr, err := c.apiAddr()
	if err != nil {
		return err
	}
	client, err := api.NewClient(addr)
	if err != nil {
		return fmt.Errorf("build api client: %w", err)
	}
	if client == nil {
		return fmt.Errorf("daemon API is disabled (api_bind is empty); set it in the config or pass --api")
	}

	if err := fn(client); err != nil {
		if api.IsDaemonUnavailable(err) {
			return fmt.Errorf("connect to daemon at %s: is scribed running?", addr)
		}
		return err
	}
	return nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
