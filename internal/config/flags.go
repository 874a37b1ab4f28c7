package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-d database DSN (record server)
//	-r remote record API base URL (agent)
//	-c/-config config file path (json or yaml)
//	-local-driver local snapshot backend: file, sqlite or memory
//	-local-path local snapshot file / sqlite database path
//	-collection collection name the agent replicates
//	-sync-interval background sync period (e.g. "5m")
//	-max-age snapshot staleness bound on startup load (e.g. "24h")
//	-strategy conflict strategy: server_wins, client_wins or merge
//	-probe-interval connectivity probe period (e.g. "15s")
//	-grace connectivity-loss debounce window (e.g. "5s")
//	-request-timeout request timeout (e.g. "30s", "1m")
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var databaseDSN string
	var remoteBaseURL string
	var configPath string
	var localDriver string
	var localPath string
	var collection string
	var syncInterval time.Duration
	var maxAge time.Duration
	var strategy string
	var probeInterval time.Duration
	var grace time.Duration
	var requestTimeout time.Duration

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&remoteBaseURL, "r", "", "Remote record API base URL")
	flag.StringVar(&configPath, "c", "", "Config file path (json or yaml)")
	flag.StringVar(&configPath, "config", "", "Config file path (alias)")
	flag.StringVar(&localDriver, "local-driver", "", "Local snapshot backend (file|sqlite|memory)")
	flag.StringVar(&localPath, "local-path", "", "Local snapshot path")
	flag.StringVar(&collection, "collection", "", "Collection name")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Background sync period (e.g., 5m)")
	flag.DurationVar(&maxAge, "max-age", 0, "Snapshot staleness bound (e.g., 24h)")
	flag.StringVar(&strategy, "strategy", "", "Conflict strategy (server_wins|client_wins|merge)")
	flag.DurationVar(&probeInterval, "probe-interval", 0, "Connectivity probe period (e.g., 15s)")
	flag.DurationVar(&grace, "grace", 0, "Connectivity-loss debounce window (e.g., 5s)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")

	flag.Parse()

	return &StructuredConfig{
		Remote: Remote{
			BaseURL:        remoteBaseURL,
			RequestTimeout: requestTimeout,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Local: Local{
				Driver: localDriver,
				Path:   localPath,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Sync: Sync{
			Collection: collection,
			Interval:   syncInterval,
			MaxAge:     maxAge,
			Strategy:   strategy,
		},
		Monitor: Monitor{
			ProbeInterval: probeInterval,
			Grace:         grace,
		},
		ConfigFilePath: configPath,
	}
}

// String returns a canonical host:port string for a NetAddress, or the empty
// string when neither Host nor Port are set.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is
// "localhost", and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && host != "" {
		if ip := net.ParseIP(host); ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
