// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config holds movebcd's runtime settings: built-in defaults, with any
// keys present in an optional YAML file taking precedence.
type Config struct {
	Addr           string `yaml:"addr"`
	MaxRequestSize int64  `yaml:"max_request_size"`
	CachePath      string `yaml:"cache_path"`
}

func defaultConfig() Config {
	return Config{
		Addr:           ":8085",
		MaxRequestSize: 8 << 20,
		CachePath:      "movebcd-cache.db",
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
