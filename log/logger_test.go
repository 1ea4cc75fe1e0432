package log

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestMapFields(t *testing.T) {
	fields := &LogrusFields{fields: map[string]interface{}{}}
	MapFields{"functionName": "get", "contractAddress": "0x01"}.Log(fields)

	assert.Equal(t, "get", fields.fields["functionName"])
	assert.Equal(t, "0x01", fields.fields["contractAddress"])
}

func TestConfigDefaultLevel(t *testing.T) {
	v := viper.New()
	config := Config{}

	assert.Nil(t, config.Bind(v, &cobra.Command{}))
	assert.Nil(t, config.Configure(v))
	assert.Equal(t, "debug", config.Level)
}

func TestConfigInvalidLevel(t *testing.T) {
	v := viper.New()
	v.Set("logging.level", "verbose")
	config := Config{}

	err := config.Configure(v)

	assert.Error(t, err)
	assert.Equal(t, "logging.level set to invalid value verbose. "+
		"Accepted values are: [debug info warn error]", err.Error())
}
