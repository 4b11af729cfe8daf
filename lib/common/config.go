package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds everything a dLock client needs to talk to its stores
// and to time its locks.
type ClientConfig struct {
	// Endpoints are redis urls (redis://host:port/db), one per independent store
	Endpoints []string
	// TimeoutSecond bounds how long a blocking acquire waits (negative = forever)
	TimeoutSecond int

	// Lock timing, zero values select the lock manager defaults.
	// A negative ExtensionCadence disables auto-extension.
	Expiry           time.Duration
	MinValidity      time.Duration
	ExtensionCadence time.Duration
	BusyWaitMin      time.Duration
	BusyWaitMax      time.Duration

	// Logging configuration
	LogLevel string

	// MetricsAddr is the listen address of the prometheus endpoint (empty = disabled)
	MetricsAddr string
}

// Validate checks the invariants that do not depend on a lock manager
func (c *ClientConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required")
	}
	for i, endpoint := range c.Endpoints {
		if strings.TrimSpace(endpoint) == "" {
			return fmt.Errorf("endpoint %d is empty", i)
		}
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Quorum returns the number of stores that must agree for a lock to be held
func (c *ClientConfig) Quorum() int {
	return len(c.Endpoints)/2 + 1
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	if c.TimeoutSecond < 0 {
		addField("Timeout", "none")
	} else {
		addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	}
	addField("Log Level", c.LogLevel)
	if c.MetricsAddr != "" {
		addField("Metrics", c.MetricsAddr)
	}

	// Lock timing
	addSection("Lock Timing")
	addField("Expiry", c.Expiry.String())
	if c.MinValidity > 0 {
		addField("Min Validity", c.MinValidity.String())
	} else {
		addField("Min Validity", "default (90% of expiry)")
	}
	switch {
	case c.ExtensionCadence > 0:
		addField("Extension Cadence", c.ExtensionCadence.String())
	case c.ExtensionCadence < 0:
		addField("Extension Cadence", "disabled")
	default:
		addField("Extension Cadence", "default (expiry / 3)")
	}
	addField("Busy Wait", fmt.Sprintf("%s - %s", c.BusyWaitMin, c.BusyWaitMax))

	// Endpoints
	addSection("Endpoints")
	addField("Quorum", fmt.Sprintf("%d of %d", c.Quorum(), len(c.Endpoints)))
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
