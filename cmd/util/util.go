package util

import (
	"context"
	"errors"
	"github.com/ValentinKolb/dLock/lib/common"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/rstore"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"net/http"
	"strings"
	"time"
)

var Logger = logger.GetLogger("cli")

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupClientFlags adds the store and lock timing flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "endpoints"
	cmd.PersistentFlags().String(key, "redis://localhost:6379", WrapString("Comma-separated list of redis urls. Every url is an independent store, a lock is held when a majority of them granted it"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("How long to wait for a lock in seconds (0 = single attempt, negative = forever)"))

	key = "expiry"
	cmd.PersistentFlags().Duration(key, lockmgr.DefaultExpiry, WrapString("Time to live of a lock on each store"))

	key = "min-validity"
	cmd.PersistentFlags().Duration(key, 0, WrapString("Minimum time a freshly acquired lock stays valid (0 = 90% of expiry)"))

	key = "extension-cadence"
	cmd.PersistentFlags().Duration(key, 0, WrapString("Interval of automatic lock renewals (0 = expiry / 3, negative = disabled)"))

	key = "busy-wait-min"
	cmd.PersistentFlags().Duration(key, lockmgr.DefaultBusyWaitMin, WrapString("Minimum sleep between two acquire attempts"))

	key = "busy-wait-max"
	cmd.PersistentFlags().Duration(key, lockmgr.DefaultBusyWaitMax, WrapString("Maximum sleep between two acquire attempts"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "metrics-addr"
	cmd.PersistentFlags().String(key, "", WrapString("Address to serve prometheus metrics on (e.g. localhost:9100), empty to disable"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dlock")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	var endpoints []string
	for _, endpoint := range strings.Split(viper.GetString("endpoints"), ",") {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			endpoints = append(endpoints, endpoint)
		}
	}

	return &common.ClientConfig{
		Endpoints:        endpoints,
		TimeoutSecond:    viper.GetInt("timeout"),
		Expiry:           viper.GetDuration("expiry"),
		MinValidity:      viper.GetDuration("min-validity"),
		ExtensionCadence: viper.GetDuration("extension-cadence"),
		BusyWaitMin:      viper.GetDuration("busy-wait-min"),
		BusyWaitMax:      viper.GetDuration("busy-wait-max"),
		LogLevel:         viper.GetString("log-level"),
		MetricsAddr:      viper.GetString("metrics-addr"),
	}
}

// BindCommandFlags binds a command's flags to viper. It is used as PersistentPreRunE.
func BindCommandFlags(cmd *cobra.Command, _ []string) error {
	return viper.BindPFlags(cmd.Flags())
}

// Timeout returns the acquire timeout of the configuration (negative = forever)
func Timeout(conf *common.ClientConfig) time.Duration {
	if conf.TimeoutSecond < 0 {
		return -1
	}
	return time.Duration(conf.TimeoutSecond) * time.Second
}

// ToOptions converts the client configuration to lock manager options
func ToOptions(conf *common.ClientConfig) []lockmgr.Option {
	var opts []lockmgr.Option
	if conf.Expiry > 0 {
		opts = append(opts, lockmgr.WithExpiry(conf.Expiry))
	}
	if conf.MinValidity > 0 {
		opts = append(opts, lockmgr.WithMinValidity(conf.MinValidity))
	}
	switch {
	case conf.ExtensionCadence > 0:
		opts = append(opts, lockmgr.WithExtensionCadence(conf.ExtensionCadence))
	case conf.ExtensionCadence < 0:
		opts = append(opts, lockmgr.WithExtensionCadence(0))
	}
	if conf.BusyWaitMin > 0 || conf.BusyWaitMax > 0 {
		opts = append(opts, lockmgr.WithBusyWait(conf.BusyWaitMin, conf.BusyWaitMax))
	}
	return opts
}

// NewStores creates one redis store per endpoint
func NewStores(conf *common.ClientConfig) ([]store.IStore, error) {
	stores := make([]store.IStore, 0, len(conf.Endpoints))
	for _, endpoint := range conf.Endpoints {
		s, err := rstore.NewRedisStoreFromURL(endpoint)
		if err != nil {
			CloseStores(stores)
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, nil
}

// CloseStores closes all stores and logs errors
func CloseStores(stores []store.IStore) {
	for _, s := range stores {
		if err := s.Close(); err != nil {
			Logger.Warningf("failed to close store %s: %v", s.Name(), err)
		}
	}
}

// Client bundles everything a lock command needs
type Client struct {
	Config  *common.ClientConfig
	Manager *lockmgr.LockManager
	stores  []store.IStore
	metrics *http.Server
}

// NewClient validates the configuration, initializes logging and metrics and
// creates the lock manager. extra options are applied after the configured ones.
func NewClient(conf *common.ClientConfig, extra ...lockmgr.Option) (*Client, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if err := common.InitLoggers(conf.LogLevel); err != nil {
		return nil, err
	}
	Logger.Debugf("%s", conf)

	stores, err := NewStores(conf)
	if err != nil {
		return nil, err
	}
	mgr, err := lockmgr.NewLockManager(stores, append(ToOptions(conf), extra...)...)
	if err != nil {
		CloseStores(stores)
		return nil, err
	}

	c := &Client{Config: conf, Manager: mgr, stores: stores}
	if conf.MetricsAddr != "" {
		c.metrics = StartMetricsServer(conf.MetricsAddr)
	}
	return c, nil
}

// Close releases outstanding locks, then closes the stores and the metrics server
func (c *Client) Close(ctx context.Context) error {
	err := c.Manager.Close(ctx)
	c.CloseKeepingLocks(ctx)
	return err
}

// CloseKeepingLocks closes the stores and the metrics server but leaves held
// locks to expire on their own. Used when a lock must outlive the process.
func (c *Client) CloseKeepingLocks(ctx context.Context) {
	CloseStores(c.stores)
	if c.metrics != nil {
		_ = c.metrics.Shutdown(ctx)
	}
}

// StartMetricsServer serves the prometheus metrics of dLock on addr
func StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		common.WriteMetrics(w)
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		Logger.Infof("serving metrics on http://%s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics server failed: %v", err)
		}
	}()
	return srv
}
