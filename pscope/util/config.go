package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// Configuration is the subset of viper the commands consume, kept as an
// interface so tests can substitute a fixed map.
type Configuration interface {
	GetString(key string) string
	GetStringMapString(key string) map[string]string
	SetDefault(key string, value interface{})
}

// LoadConfiguration reads an optional <name>.toml from the working
// directory, $HOME/.pscope/, or /etc/pscope/. A missing file is fine
// unless required is set.
func LoadConfiguration(configFileName string, required bool) (loaded bool) {
	viper.SetConfigName(configFileName)
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.pscope")
	viper.AddConfigPath("/etc/pscope/")

	if err := viper.MergeInConfig(); err != nil {
		if strings.Contains(err.Error(), "Not Found") {
			glog.V(1).Infof("reading %s: %v", viper.ConfigFileUsed(), err)
		} else {
			glog.Fatalf("reading %s: %v", viper.ConfigFileUsed(), err)
		}
		if required {
			glog.Fatalf("missing required config %s.toml in ., $HOME/.pscope/, or /etc/pscope/", configFileName)
		}
		return false
	}

	glog.V(1).Infof("reading %s.toml from %s", configFileName, viper.ConfigFileUsed())
	return true
}

// GetViper hands out the process-wide viper instance the way commands
// expect to consume it.
func GetViper() Configuration {
	return viper.GetViper()
}

// GetStringMapStringPreservingCase reads a string-valued map from the
// loaded config file with key case intact. viper folds every key to lower
// case on load, which destroys mixed-case map keys such as IAM condition
// keys, so the section is decoded from the file again without viper.
func GetStringMapStringPreservingCase(key string) map[string]string {
	path := viper.ConfigFileUsed()
	if path == "" {
		return nil
	}
	section, err := StringMapFromConfigFile(path, key)
	if err != nil {
		glog.Warningf("re-reading %s: %v", path, err)
		return nil
	}
	return section
}

// StringMapFromConfigFile decodes the TOML file at path and returns the
// string-valued entries of the table at the dotted key. A missing table
// yields a nil map, not an error.
func StringMapFromConfigFile(path, key string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tree map[string]interface{}
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	node := interface{}(tree)
	for _, part := range strings.Split(key, ".") {
		table, ok := node.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		node = table[part]
	}
	table, ok := node.(map[string]interface{})
	if !ok {
		return nil, nil
	}

	section := make(map[string]string, len(table))
	for k, v := range table {
		if s, isString := v.(string); isString {
			section[k] = s
		}
	}
	return section, nil
}
