package rcon

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultConfigFile is the conventional location of the rcon config file
// on POSIX systems, one section per named server.
const DefaultConfigFile = "/etc/rcon.conf"

// DefaultPrompt is used by Config when an ini section doesn't set one.
const DefaultPrompt = "RCON> "

// Config describes how to reach and authenticate against one server.
// Passwd is a pointer so that "no password configured" is distinguishable
// from "empty password".
type Config struct {
	Host   string
	Port   int
	Passwd *string
	Prompt string
}

// FromString parses the short form "[password@]host:port". Port must be
// an integer; anything else is ErrInvalidConfig.
func FromString(s string) (Config, error) {
	host, portStr, ok := strings.Cut(s, ":")
	if !ok {
		return Config{}, fmt.Errorf("%w: invalid socket %q", ErrInvalidConfig, s)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Config{}, fmt.Errorf("%w: not an integer: %q", ErrInvalidConfig, portStr)
	}

	var passwd *string
	if pwd, h, ok := strings.Cut(host, "@"); ok {
		passwd = &pwd
		host = h
	}

	return Config{Host: host, Port: port, Passwd: passwd, Prompt: DefaultPrompt}, nil
}

// FromINISection builds a Config from one section of a parsed ini file.
func FromINISection(section *ini.Section) (Config, error) {
	if !section.HasKey("host") {
		return Config{}, fmt.Errorf("%w: section %q missing host", ErrInvalidConfig, section.Name())
	}

	port, err := section.Key("port").Int()
	if err != nil {
		return Config{}, fmt.Errorf("%w: section %q: %v", ErrInvalidConfig, section.Name(), err)
	}

	cfg := Config{
		Host:   section.Key("host").String(),
		Port:   port,
		Prompt: DefaultPrompt,
	}

	if section.HasKey("passwd") {
		pwd := section.Key("passwd").String()
		cfg.Passwd = &pwd
	}

	if section.HasKey("prompt") {
		cfg.Prompt = section.Key("prompt").String()
	}

	return cfg, nil
}

// ResolveServer accepts a server reference — either the short form
// "[password@]host:port" or the name of a section in the ini file at
// configPath — and returns the resolved Config. The short form is tried
// first since it can never collide with a section name (section names
// don't contain ":").
func ResolveServer(ref, configPath string) (Config, error) {
	if strings.Contains(ref, ":") {
		return FromString(ref)
	}

	servers, err := LoadServers(configPath)
	if err != nil {
		return Config{}, err
	}

	cfg, ok := servers[ref]
	if !ok {
		return Config{}, fmt.Errorf("%w: no server named %q in %s", ErrInvalidConfig, ref, configPath)
	}

	return cfg, nil
}

// LoadServers reads every server section out of an ini-style config file.
func LoadServers(path string) (map[string]Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	servers := make(map[string]Config)
	for _, section := range f.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		cfg, err := FromINISection(section)
		if err != nil {
			return nil, err
		}
		servers[section.Name()] = cfg
	}

	return servers, nil
}
