// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package config loads the simulator settings: built-in defaults,
// overridden by an optional YAML file, overridden by MCS8_* environment
// variables.
package config

import (
	"bytes"
	"log"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	defTraceDepth = 1024
	defMemRows    = 8
	defOutPort    = 0xff00
	defWatchdog   = 10_000_000

	EnvVarPrefix = "MCS8"
)

var replacer = strings.NewReplacer(".", "_")

type Config struct {
	TraceDepth int    `mapstructure:"trace_depth" yaml:"trace_depth"` // Trace ring size; 0 retains everything.
	MemRows    int    `mapstructure:"mem_rows" yaml:"mem_rows"`       // Default rows for memory dumps.
	OutPort    uint16 `mapstructure:"out_port" yaml:"out_port"`       // Echoed output port address.
	Watchdog   int    `mapstructure:"watchdog" yaml:"watchdog"`       // Step ceiling for free-running.
	Origin     uint16 `mapstructure:"origin" yaml:"origin"`           // Default program load address.
}

func DefaultConfig() *Config {
	return &Config{
		TraceDepth: defTraceDepth,
		MemRows:    defMemRows,
		OutPort:    defOutPort,
		Watchdog:   defWatchdog,
		Origin:     0,
	}
}

// NewConfig builds the effective configuration. A missing or empty
// cfgFile is not an error; a present but unparsable one is.
func NewConfig(cfgFile string) (cfg *Config, err error) {
	v := viper.New()
	cfg = DefaultConfig()

	// Viper needs to know a key exists before it can override it, so
	// the defaults are merged in as a YAML document first.
	// https://github.com/spf13/viper/issues/188
	defaults, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	v.SetConfigType("yaml")
	if err = v.MergeConfig(bytes.NewReader(defaults)); err != nil {
		return
	}

	if cfgFile != "" {
		if _, err = os.Stat(cfgFile); err != nil {
			log.Printf("config: %v", err)
			err = nil
		} else {
			v.SetConfigFile(cfgFile)
			if err = v.MergeInConfig(); err != nil {
				return
			}
		}
	}

	// Environment variables are the final override.
	v.AutomaticEnv()
	v.SetEnvPrefix(EnvVarPrefix)
	v.SetEnvKeyReplacer(replacer)
	bindVars(v, reflect.TypeOf(*cfg), "")

	err = v.Unmarshal(cfg)
	return
}

// bindVars preloads environment bindings so AutomaticEnv overrides are
// applied on Unmarshal.
func bindVars(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		tag = prefix + tag

		kind := field.Type.Kind()
		switch {
		case kind == reflect.Struct:
			bindVars(v, field.Type, tag+".")
		case kind == reflect.Ptr && field.Type.Elem().Kind() == reflect.Struct:
			bindVars(v, field.Type.Elem(), tag+".")
		default:
			if err := v.BindEnv(tag); err != nil {
				log.Printf("config: bind %s: %v", tag, err)
			}
		}
	}
}
