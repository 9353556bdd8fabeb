package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

const (
	envHost       = "DATABRICKS_HOST"
	envToken      = "DATABRICKS_TOKEN"
	envProfile    = "DATABRICKS_CONFIG_PROFILE"
	envConfigFile = "DATABRICKS_CONFIG_FILE"

	// DefaultProfile is the section consulted when nothing else selects credentials.
	DefaultProfile = "DEFAULT"
)

// ErrNoCredentials is returned when no credential source yields a host and token.
var ErrNoCredentials = errors.New("no workspace credentials found")

// Config selects how a client authenticates. Exactly one path is taken:
// Profile, else Host+Token, else the ambient environment and default profile.
type Config struct {
	Profile     string
	Host        string
	Token       string
	ConfigFile  string
	HTTPTimeout time.Duration
}

// Credentials is the resolved host/token pair plus a label for where it came from.
type Credentials struct {
	Host   string
	Token  string
	Source string
}

// ResolveCredentials applies the selection precedence to cfg.
func ResolveCredentials(cfg Config) (Credentials, error) {
	if profile := strings.TrimSpace(cfg.Profile); profile != "" {
		return fromProfile(configFilePath(cfg.ConfigFile), profile)
	}

	if strings.TrimSpace(cfg.Host) != "" && strings.TrimSpace(cfg.Token) != "" {
		return Credentials{Host: normalizeHost(cfg.Host), Token: strings.TrimSpace(cfg.Token), Source: "explicit"}, nil
	}

	return fromEnvironment(configFilePath(cfg.ConfigFile))
}

func fromEnvironment(configFile string) (Credentials, error) {
	host := strings.TrimSpace(os.Getenv(envHost))
	token := strings.TrimSpace(os.Getenv(envToken))
	if host != "" && token != "" {
		return Credentials{Host: normalizeHost(host), Token: token, Source: "environment"}, nil
	}

	profile := strings.TrimSpace(os.Getenv(envProfile))
	if profile == "" {
		profile = DefaultProfile
	}

	creds, err := fromProfile(configFile, profile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, fmt.Errorf("%w: set %s and %s or configure %s", ErrNoCredentials, envHost, envToken, configFile)
		}
		return Credentials{}, err
	}
	return creds, nil
}

func fromProfile(configFile, profile string) (Credentials, error) {
	if _, err := os.Stat(configFile); err != nil {
		return Credentials{}, fmt.Errorf("read profile %q: %w", profile, err)
	}

	file, err := ini.Load(configFile)
	if err != nil {
		return Credentials{}, fmt.Errorf("parse %s: %w", configFile, err)
	}

	section, err := file.GetSection(profile)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: profile %q not found in %s", ErrNoCredentials, profile, configFile)
	}

	host := strings.TrimSpace(section.Key("host").String())
	token := strings.TrimSpace(section.Key("token").String())
	if host == "" || token == "" {
		return Credentials{}, fmt.Errorf("%w: profile %q needs both host and token", ErrNoCredentials, profile)
	}

	return Credentials{Host: normalizeHost(host), Token: token, Source: "profile:" + profile}, nil
}

func configFilePath(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	if env := strings.TrimSpace(os.Getenv(envConfigFile)); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".databrickscfg"
	}
	return filepath.Join(home, ".databrickscfg")
}

func normalizeHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}
