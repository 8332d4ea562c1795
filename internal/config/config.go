// Package config loads client and development server settings from defaults,
// an optional YAML file, environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Client holds settings for the chat client.
type Client struct {
	Host         string        `yaml:"host" env:"CHAT_HOST"`
	Username     string        `yaml:"username" env:"CHAT_USERNAME"`
	Nick         string        `yaml:"nick" env:"CHAT_NICK"`
	Password     string        `yaml:"password" env:"CHAT_PASSWORD"`
	Channel      string        `yaml:"channel" env:"CHAT_CHANNEL"`
	Plain        bool          `yaml:"plain" env:"CHAT_PLAIN"`
	LogFile      string        `yaml:"log_file" env:"CHAT_LOG_FILE"`
	LogLevel     string        `yaml:"log_level" env:"CHAT_LOG_LEVEL"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"CHAT_WRITE_TIMEOUT"`
}

// DefaultClient returns the client defaults.
func DefaultClient() Client {
	return Client{
		Host:         "localhost:8000",
		LogLevel:     "info",
		WriteTimeout: 10 * time.Second,
	}
}

// Server holds settings for the development hub.
type Server struct {
	Addr     string `yaml:"addr" env:"CHAT_DEVSERVER_ADDR"`
	Channel  string `yaml:"channel" env:"CHAT_DEVSERVER_CHANNEL"`
	LogLevel string `yaml:"log_level" env:"CHAT_LOG_LEVEL"`
}

// DefaultServer returns the development hub defaults.
func DefaultServer() Server {
	return Server{
		Addr:     "127.0.0.1:8000",
		Channel:  "#lobby",
		LogLevel: "info",
	}
}

// LoadClient layers the YAML file at path (if any) and the environment over
// the client defaults.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()
	if err := load(path, &cfg); err != nil {
		return Client{}, err
	}
	return cfg, nil
}

// LoadServer layers the YAML file at path (if any) and the environment over
// the development hub defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()
	if err := load(path, &cfg); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func load(path string, target any) error {
	if path != "" {
		if err := ParseFile(path, target); err != nil {
			return err
		}
	}
	return ParseEnv(target)
}

// ParseFile decodes the YAML file at path into target.
func ParseFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ParseEnv loads configuration from environment variables.
// Unset variables leave target untouched.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ErrUnknownFlag is returned when a set flag has no matching setting.
var ErrUnknownFlag = errors.New("unknown flag")

// ApplyFlags copies the flags explicitly set on fs over cfg. Flags are
// matched by name: host, username, nick, password, channel, plain,
// log-file, log-level, write-timeout. The config flag is skipped.
func (c *Client) ApplyFlags(fs *flag.FlagSet) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		v := f.Value.String()
		switch f.Name {
		case "config":
		case "host":
			c.Host = v
		case "username":
			c.Username = v
		case "nick":
			c.Nick = v
		case "password":
			c.Password = v
		case "channel":
			c.Channel = v
		case "plain":
			c.Plain, err = strconv.ParseBool(v)
		case "log-file":
			c.LogFile = v
		case "log-level":
			c.LogLevel = v
		case "write-timeout":
			c.WriteTimeout, err = time.ParseDuration(v)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownFlag, f.Name)
		}
	})
	return err
}

// ApplyFlags copies the flags explicitly set on fs over cfg.
func (s *Server) ApplyFlags(fs *flag.FlagSet) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "config":
		case "addr":
			s.Addr = f.Value.String()
		case "channel":
			s.Channel = f.Value.String()
		case "log-level":
			s.LogLevel = f.Value.String()
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownFlag, f.Name)
		}
	})
	return err
}
