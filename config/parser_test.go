package config

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

type endpointConfig struct {
	URL     string
	Retries int
}

func (c *endpointConfig) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String("endpoint.url", "", "endpoint url")
	cmd.PersistentFlags().Int("endpoint.retries", 3, "endpoint retries")
	return nil
}

func (c *endpointConfig) Configure(v *viper.Viper) error {
	c.URL = v.GetString("endpoint.url")
	if len(c.URL) == 0 {
		return ErrKeyNotSet{Key: "endpoint.url"}
	}

	c.Retries = v.GetInt("endpoint.retries")
	return nil
}

func (c *endpointConfig) EnvAliases() map[string]string {
	return map[string]string{"endpoint.url": "LEGACY_ENDPOINT_URL"}
}

type testConfig struct {
	Endpoint endpointConfig
}

func (c *testConfig) Use() string       { return "test" }
func (c *testConfig) EnvPrefix() string { return "CONFIG_TEST" }
func (c *testConfig) Binders() []Binder { return []Binder{&c.Endpoint} }

func TestParserFlags(t *testing.T) {
	config := &testConfig{}
	parser, err := Generate(config)
	assert.Nil(t, err)

	err = parser.ParseArgs([]string{"--endpoint.url", "http://localhost:8545",
		"--endpoint.retries", "5"})
	assert.Nil(t, err)

	assert.Equal(t, "http://localhost:8545", config.Endpoint.URL)
	assert.Equal(t, 5, config.Endpoint.Retries)
}

func TestParserAlreadyParsed(t *testing.T) {
	config := &testConfig{}
	parser, err := Generate(config)
	assert.Nil(t, err)

	assert.Nil(t, parser.ParseArgs([]string{"--endpoint.url", "http://localhost:8545"}))
	assert.Equal(t, ErrAlreadyParsed, parser.ParseArgs(nil))
}

func TestParserKeyNotSet(t *testing.T) {
	config := &testConfig{}
	parser, err := Generate(config)
	assert.Nil(t, err)

	err = parser.ParseArgs(nil)
	assert.Equal(t, ErrKeyNotSet{Key: "endpoint.url"}, err)
}

func TestParserEnvPrefix(t *testing.T) {
	os.Setenv("CONFIG_TEST_ENDPOINT_URL", "http://prefixed:8545")
	defer os.Unsetenv("CONFIG_TEST_ENDPOINT_URL")

	config := &testConfig{}
	parser, err := Generate(config)
	assert.Nil(t, err)

	assert.Nil(t, parser.ParseArgs(nil))
	assert.Equal(t, "http://prefixed:8545", config.Endpoint.URL)
}

func TestParserEnvAlias(t *testing.T) {
	os.Setenv("LEGACY_ENDPOINT_URL", "http://legacy:8545")
	defer os.Unsetenv("LEGACY_ENDPOINT_URL")

	config := &testConfig{}
	parser, err := Generate(config)
	assert.Nil(t, err)

	assert.Nil(t, parser.ParseArgs(nil))
	assert.Equal(t, "http://legacy:8545", config.Endpoint.URL)
}

func TestConfigFileInvalidExtension(t *testing.T) {
	v := viper.New()
	v.Set("config.path", "config.json")

	err := (&ConfigFile{}).Configure(v)

	assert.Equal(t, ErrInvalidValue{Key: "config.path", InvalidValue: "config.json",
		Values: []string{"*.toml", "*.yaml"}}, err)
}
