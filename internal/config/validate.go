package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateAristote(); err != nil {
		return err
	}
	if err := c.validateMediaServer(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Bind == "" {
		return errors.New("server.bind must be set")
	}
	if c.Server.PublicBaseURL != "" {
		if _, err := url.Parse(c.Server.PublicBaseURL); err != nil {
			return fmt.Errorf("server.public_base_url: %w", err)
		}
	}
	if c.Server.CSVUser != "" && c.Server.CSVPassword == "" {
		return errors.New("server.csv_password is required when server.csv_user is set (or set ENRICHD_CSV_PASSWORD)")
	}
	return nil
}

func (c *Config) validateAristote() error {
	if c.Aristote.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/enrichd/config.toml"
		}
		return fmt.Errorf("aristote.base_url is required. Set ARISTOTE_API_BASE_URL or edit %s (create with 'enrichd config init')", defaultPath)
	}
	if c.Aristote.ClientID == "" || c.Aristote.ClientSecret == "" {
		return errors.New("aristote.client_id and aristote.client_secret are required")
	}
	return nil
}

func (c *Config) validateMediaServer() error {
	if c.MediaServer.URL == "" {
		return errors.New("mediaserver.url is required")
	}
	if c.MediaServer.APIKey == "" {
		return errors.New("mediaserver.api_key is required (or set MEDIASERVER_API_KEY)")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	switch c.Workflow.ResourceOrder {
	case "smallest", "largest":
	default:
		return fmt.Errorf("workflow.resource_order must be \"smallest\" or \"largest\", got %q", c.Workflow.ResourceOrder)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
