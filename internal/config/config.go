// Package config loads Kaleidoscope's process configuration, combining a
// YAML file, environment variables, and CLI flags with CLI > env > file
// precedence, following the teacher's reflection-based loader.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mrd0ll4r/kaleidoscope/internal/logging"
)

// Options holds the five required engine configuration keys plus the
// process-level settings layered on top by CLI flags and environment
// variables.
type Options struct {
	Config string `yaml:"-" env:"CONFIG"`

	PrometheusListenAddress string `yaml:"prometheus_listen_address" env:"PROMETHEUS_LISTEN_ADDRESS"`
	HTTPListenAddress       string `yaml:"http_listen_address" env:"HTTP_LISTEN_ADDRESS"`
	AMQPServerAddress       string `yaml:"amqp_server_address" env:"AMQP_SERVER_ADDRESS"`
	SubmarineHTTPURL        string `yaml:"submarine_http_url" env:"SUBMARINE_HTTP_URL"`
	FixturesPath            string `yaml:"fixtures_path" env:"FIXTURES_PATH"`

	AMQPQueueName string `yaml:"amqp_queue_name" env:"AMQP_QUEUE_NAME"`
	AuthUsername  string `yaml:"auth_username" env:"AUTH_USERNAME"`
	AuthPassword  string `yaml:"auth_password" env:"AUTH_PASSWORD"`
}

// requiredKeys are spec §6's five mandatory configuration keys.
var requiredKeys = []string{
	"PrometheusListenAddress",
	"HTTPListenAddress",
	"AMQPServerAddress",
	"SubmarineHTTPURL",
	"FixturesPath",
}

// Validate returns an error naming the first missing required key.
func (o *Options) Validate() error {
	v := reflect.ValueOf(o).Elem()
	t := v.Type()
	for _, name := range requiredKeys {
		if v.FieldByName(name).String() == "" {
			field, _ := t.FieldByName(name)
			return fmt.Errorf("missing required configuration key: %s", field.Tag.Get("yaml"))
		}
	}
	return nil
}

// LoadConfig loads configuration with proper precedence: CLI args > env vars
// > config file. If cmd is provided, flags explicitly set via CLI will not
// be overwritten.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	changedFlags := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changedFlags[f.Name] = true
			}
		})
	}

	var configPath string
	for i := 0; i < v.NumField(); i++ {
		if t.Field(i).Name == "Config" {
			configPath = v.Field(i).String()
			break
		}
	}

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			var fileConfig map[string]any
			if err := yaml.Unmarshal(data, &fileConfig); err != nil {
				return fmt.Errorf("failed to parse YAML config: %w", err)
			}

			for i := 0; i < v.NumField(); i++ {
				field := v.Field(i)
				fieldType := t.Field(i)

				flagName := fieldNameToFlag(fieldType.Name)
				if changedFlags[flagName] {
					continue
				}

				if yamlPath := fieldType.Tag.Get("yaml"); yamlPath != "" && yamlPath != "-" {
					if value := getNestedValue(fileConfig, yamlPath); value != nil {
						setFieldValue(field, value)
					}
				}
			}
		}
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		flagName := fieldNameToFlag(fieldType.Name)
		if changedFlags[flagName] {
			continue
		}

		if envKey := fieldType.Tag.Get("env"); envKey != "" {
			if envValue := os.Getenv("KALEIDOSCOPE_" + envKey); envValue != "" {
				setFieldValueFromString(field, envValue)
			}
		}
	}

	return nil
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "FixturesPath" -> "fixtures-path". Consecutive uppercase runs
// (as in "HTTPListenAddress") are treated as a single word.
func fieldNameToFlag(fieldName string) string {
	var result []rune
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(rune(fieldName[i-1])) {
			result = append(result, '-')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			return nil
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value any) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int:
		if i, ok := value.(int64); ok {
			field.SetInt(i)
		} else if i, intOk := value.(int); intOk {
			field.SetInt(int64(i))
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			if arr, ok := value.([]any); ok {
				slice := make([]string, len(arr))
				for i, v := range arr {
					if s, strOk := v.(string); strOk {
						slice[i] = s
					}
				}
				field.Set(reflect.ValueOf(slice))
			}
		}
	}
}

func setFieldValueFromString(field reflect.Value, value string) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(i)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			slice := make([]string, len(parts))
			for i, part := range parts {
				slice[i] = strings.TrimSpace(part)
			}
			field.Set(reflect.ValueOf(slice))
		}
	}
}

// LoadLoggingConfig loads logging configuration from a YAML config file.
// Returns default config if the file doesn't exist or can't be parsed.
func LoadLoggingConfig(configPath string) logging.Config {
	cfg := logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}

	if configPath == "" {
		return cfg
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg
	}

	var rawConfig struct {
		Logging map[string]string `yaml:"logging"`
	}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return cfg
	}

	if rawConfig.Logging == nil {
		return cfg
	}

	for key, value := range rawConfig.Logging {
		switch key {
		case "level":
			cfg.Level = value
		case "format":
			cfg.Format = value
		default:
			cfg.Modules[key] = value
		}
	}

	return cfg
}
