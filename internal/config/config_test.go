package config

import (
	"os"
	"reflect"
	"testing"
)

// testOptions mirrors the shape of Options for exercising LoadConfig without
// depending on the real required-key set.
type testOptions struct {
	Config string `yaml:"-" env:"CONFIG"`

	StringField string   `yaml:"test.string_field" env:"STRING_FIELD"`
	BoolField   bool     `yaml:"test.bool_field" env:"BOOL_FIELD"`
	IntField    int      `yaml:"test.int_field" env:"INT_FIELD"`
	SliceField  []string `yaml:"test.slice_field" env:"SLICE_FIELD"`

	NestedString string `yaml:"nested.value" env:"NESTED_VALUE"`
}

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "kaleidoscope_config_*.yaml")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := writeTempYAML(t, `
test:
  string_field: hello world
  bool_field: true
  int_field: 42
  slice_field: ["item1", "item2", "item3"]
nested:
  value: nested value
`)

	cfg := &testOptions{Config: path}
	if err := LoadConfig(cfg, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.StringField != "hello world" {
		t.Errorf("StringField = %q, want %q", cfg.StringField, "hello world")
	}
	if !cfg.BoolField {
		t.Error("BoolField = false, want true")
	}
	if cfg.IntField != 42 {
		t.Errorf("IntField = %d, want 42", cfg.IntField)
	}
	want := []string{"item1", "item2", "item3"}
	if !reflect.DeepEqual(cfg.SliceField, want) {
		t.Errorf("SliceField = %v, want %v", cfg.SliceField, want)
	}
	if cfg.NestedString != "nested value" {
		t.Errorf("NestedString = %q, want %q", cfg.NestedString, "nested value")
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	for k, v := range map[string]string{
		"KALEIDOSCOPE_STRING_FIELD": "env string",
		"KALEIDOSCOPE_BOOL_FIELD":   "false",
		"KALEIDOSCOPE_INT_FIELD":    "123",
		"KALEIDOSCOPE_SLICE_FIELD":  "a,b,c",
		"KALEIDOSCOPE_NESTED_VALUE": "env nested",
	} {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for _, k := range []string{
			"KALEIDOSCOPE_STRING_FIELD", "KALEIDOSCOPE_BOOL_FIELD", "KALEIDOSCOPE_INT_FIELD",
			"KALEIDOSCOPE_SLICE_FIELD", "KALEIDOSCOPE_NESTED_VALUE",
		} {
			os.Unsetenv(k)
		}
	})

	cfg := &testOptions{}
	if err := LoadConfig(cfg, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.StringField != "env string" {
		t.Errorf("StringField = %q, want %q", cfg.StringField, "env string")
	}
	if cfg.BoolField {
		t.Error("BoolField = true, want false")
	}
	if cfg.IntField != 123 {
		t.Errorf("IntField = %d, want 123", cfg.IntField)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(cfg.SliceField, want) {
		t.Errorf("SliceField = %v, want %v", cfg.SliceField, want)
	}
	if cfg.NestedString != "env nested" {
		t.Errorf("NestedString = %q, want %q", cfg.NestedString, "env nested")
	}
}

func TestLoadConfigEnvOverridesYAML(t *testing.T) {
	path := writeTempYAML(t, `
test:
  string_field: yaml value
  bool_field: true
  int_field: 100
  slice_field: ["yaml1", "yaml2"]
`)

	os.Setenv("KALEIDOSCOPE_STRING_FIELD", "env override")
	os.Setenv("KALEIDOSCOPE_BOOL_FIELD", "false")
	t.Cleanup(func() {
		os.Unsetenv("KALEIDOSCOPE_STRING_FIELD")
		os.Unsetenv("KALEIDOSCOPE_BOOL_FIELD")
	})

	cfg := &testOptions{Config: path}
	if err := LoadConfig(cfg, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.StringField != "env override" {
		t.Errorf("StringField = %q, want %q (env should win over file)", cfg.StringField, "env override")
	}
	if cfg.BoolField {
		t.Error("BoolField = true, want false (env should win over file)")
	}
	if cfg.IntField != 100 {
		t.Errorf("IntField = %d, want 100 (from file, no env override)", cfg.IntField)
	}
	want := []string{"yaml1", "yaml2"}
	if !reflect.DeepEqual(cfg.SliceField, want) {
		t.Errorf("SliceField = %v, want %v (from file, no env override)", cfg.SliceField, want)
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"level1": map[string]any{
			"level2": map[string]any{
				"value": "nested_value",
			},
			"simple": "simple_value",
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"level1.simple", "simple_value"},
		{"level1.level2.value", "nested_value"},
		{"nonexistent", nil},
		{"level1.nonexistent", nil},
	}

	for _, test := range tests {
		result := getNestedValue(data, test.path)
		if result != test.expected {
			t.Errorf("getNestedValue(%q) = %v, expected %v", test.path, result, test.expected)
		}
	}
}

func TestSetFieldValue(t *testing.T) {
	type testStruct struct {
		StringField string
		BoolField   bool
		IntField    int
		SliceField  []string
	}

	s := &testStruct{}
	v := reflect.ValueOf(s).Elem()

	setFieldValue(v.FieldByName("StringField"), "test string")
	if s.StringField != "test string" {
		t.Errorf("StringField = %q, want %q", s.StringField, "test string")
	}

	setFieldValue(v.FieldByName("BoolField"), true)
	if !s.BoolField {
		t.Error("BoolField = false, want true")
	}

	setFieldValue(v.FieldByName("IntField"), int64(42))
	if s.IntField != 42 {
		t.Errorf("IntField = %d, want 42", s.IntField)
	}

	setFieldValue(v.FieldByName("SliceField"), []any{"a", "b", "c"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(s.SliceField, want) {
		t.Errorf("SliceField = %v, want %v", s.SliceField, want)
	}
}

func TestSetFieldValueFromString(t *testing.T) {
	type testStruct struct {
		StringField string
		BoolField   bool
		IntField    int
		SliceField  []string
	}

	s := &testStruct{}
	v := reflect.ValueOf(s).Elem()

	setFieldValueFromString(v.FieldByName("StringField"), "test string")
	if s.StringField != "test string" {
		t.Errorf("StringField = %q, want %q", s.StringField, "test string")
	}

	setFieldValueFromString(v.FieldByName("BoolField"), "true")
	if !s.BoolField {
		t.Error("BoolField = false, want true")
	}

	setFieldValueFromString(v.FieldByName("IntField"), "123")
	if s.IntField != 123 {
		t.Errorf("IntField = %d, want 123", s.IntField)
	}

	setFieldValueFromString(v.FieldByName("SliceField"), " a , b , c ")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(s.SliceField, want) {
		t.Errorf("SliceField = %v, want %v", s.SliceField, want)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg := &testOptions{Config: "nonexistent_file.yaml"}
	if err := LoadConfig(cfg, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for a missing config file: %v", err)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeTempYAML(t, "test:\n  - broken: [unterminated\n")

	cfg := &testOptions{Config: path}
	if err := LoadConfig(cfg, nil); err == nil {
		t.Fatal("LoadConfig should fail for invalid YAML")
	}
}

func TestValidateReportsFirstMissingKey(t *testing.T) {
	o := &Options{
		HTTPListenAddress: ":8080",
		AMQPServerAddress: "amqp://localhost",
		SubmarineHTTPURL:  "http://localhost:9000",
		FixturesPath:      "/etc/kaleidoscope/fixtures",
	}
	if err := o.Validate(); err == nil {
		t.Fatal("Validate should fail when prometheus_listen_address is missing")
	}
}

func TestValidateAllRequiredKeysPresent(t *testing.T) {
	o := &Options{
		PrometheusListenAddress: ":9090",
		HTTPListenAddress:       ":8080",
		AMQPServerAddress:       "amqp://localhost",
		SubmarineHTTPURL:        "http://localhost:9000",
		FixturesPath:            "/etc/kaleidoscope/fixtures",
	}
	if err := o.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

// fieldNameToFlag treats a run of consecutive uppercase letters as one
// word, so an acronym immediately followed by a capitalized word (e.g.
// "HTTPListen") is not split: only a lowercase-to-uppercase transition
// inserts a dash.
func TestFieldNameToFlag(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"FixturesPath", "fixtures-path"},
		{"HTTPListenAddress", "httplisten-address"},
		{"AMQPServerAddress", "amqpserver-address"},
		{"Config", "config"},
	}
	for _, tt := range tests {
		if got := fieldNameToFlag(tt.field); got != tt.want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", tt.field, got, tt.want)
		}
	}
}
