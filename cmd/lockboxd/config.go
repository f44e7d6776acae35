package main

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/chain/txvm/errors"
)

// fileConfig is the lockboxd config.toml key mapping.
type fileConfig struct {
	Addr      string `toml:"addr"`
	DB        string `toml:"db"`
	BridgePub string `toml:"bridge_pubkey"`
}

type serviceConfig struct {
	Addr      string
	DBFile    string
	BridgePub string
}

func defaultConfig() serviceConfig {
	return serviceConfig{
		Addr:   "localhost:2423",
		DBFile: "lockbox.db",
	}
}

// loadConfig overlays keys present in the TOML file onto cfg, leaving
// absent keys at their current values.
func loadConfig(path string, cfg serviceConfig) (serviceConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serviceConfig{}, errors.Wrap(err, "loading lockboxd config")
	}

	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("db") {
		cfg.DBFile = strings.TrimSpace(raw.DB)
	}
	if meta.IsDefined("bridge_pubkey") {
		cfg.BridgePub = strings.TrimSpace(raw.BridgePub)
	}
	return cfg, nil
}

// overlayFlags applies non-default flag values on top of the file
// config, so flags win when both are given.
func (cfg *serviceConfig) overlayFlags(addr, dbfile, bridgePub string) {
	def := defaultConfig()
	if addr != def.Addr {
		cfg.Addr = addr
	}
	if dbfile != def.DBFile {
		cfg.DBFile = dbfile
	}
	if bridgePub != "" {
		cfg.BridgePub = bridgePub
	}
}
