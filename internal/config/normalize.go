package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeAristote()
	c.normalizeMediaServer()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ChannelsCSV, err = expandPath(c.Paths.ChannelsCSV); err != nil {
		return fmt.Errorf("paths.channels_csv: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	c.Server.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Server.PublicBaseURL), "/")
	c.Server.CSVUser = strings.TrimSpace(c.Server.CSVUser)
	c.Server.WebhookSecret = strings.TrimSpace(c.Server.WebhookSecret)
}

func (c *Config) normalizeAristote() {
	c.Aristote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Aristote.BaseURL), "/")
	c.Aristote.PortalBaseURL = strings.TrimRight(strings.TrimSpace(c.Aristote.PortalBaseURL), "/")
	c.Aristote.ClientID = strings.TrimSpace(c.Aristote.ClientID)
	c.Aristote.ClientSecret = strings.TrimSpace(c.Aristote.ClientSecret)
	c.Aristote.EndUserIdentifier = strings.TrimSpace(c.Aristote.EndUserIdentifier)
	if c.Aristote.TimeoutSeconds <= 0 {
		c.Aristote.TimeoutSeconds = defaultAristoteTimeout
	}
	if c.Aristote.PortalBaseURL == "" && c.Aristote.BaseURL != "" {
		c.Aristote.PortalBaseURL = c.Aristote.BaseURL + defaultAristotePortalSuffix
	}
}

func (c *Config) normalizeMediaServer() {
	c.MediaServer.URL = strings.TrimRight(strings.TrimSpace(c.MediaServer.URL), "/")
	c.MediaServer.APIKey = strings.TrimSpace(c.MediaServer.APIKey)
	if c.MediaServer.TimeoutSeconds <= 0 {
		c.MediaServer.TimeoutSeconds = defaultMediaServerTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.StuckAfterHours <= 0 {
		c.Workflow.StuckAfterHours = defaultStuckAfterHours
	}
	c.Workflow.ResourceOrder = strings.ToLower(strings.TrimSpace(c.Workflow.ResourceOrder))
	if c.Workflow.ResourceOrder == "" {
		c.Workflow.ResourceOrder = defaultResourceOrder
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
