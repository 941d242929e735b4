// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"fmt"
	"io/ioutil"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/restserver"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"
)

// Config is the daemon's YAML configuration: the kinds it stores and
// the resources it publishes.
//
//     kinds:
//       - name: Book
//         columns:
//           - {name: title}
//           - {name: price, type: decimal}
//     resources:
//       - kind: Book
//         filter_params: {title: null}
type Config struct {
	Kinds     []*entity.Kind        `mapstructure:"kinds"`
	Resources []restserver.Resource `mapstructure:"resources"`
}

// loadConfig reads and decodes a YAML configuration file.
func loadConfig(filename string) (*Config, error) {
	bytes, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return parseConfig(bytes)
}

// parseConfig decodes YAML configuration.  If the configuration has
// kinds but no resources, every kind is published at the top level.
func parseConfig(bytes []byte) (*Config, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(bytes, &raw); err != nil {
		return nil, err
	}
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err = decoder.Decode(stringKeys(raw)); err != nil {
		return nil, err
	}

	if len(cfg.Kinds) == 0 {
		return nil, fmt.Errorf("configuration has no kinds")
	}
	if len(cfg.Resources) == 0 {
		for _, kind := range cfg.Kinds {
			cfg.Resources = append(cfg.Resources, restserver.Resource{Kind: kind.Name})
		}
	}
	return cfg, nil
}

// stringKeys rewrites the map[interface{}]interface{} values YAML
// produces as map[string]interface{}, recursively.
func stringKeys(value interface{}) interface{} {
	switch v := value.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = stringKeys(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = stringKeys(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = stringKeys(item)
		}
		return out
	}
	return value
}
