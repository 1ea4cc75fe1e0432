package log

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var levels = []string{"debug", "info", "warn", "error"}

// Config selects the minimum level of the entries that are logged
type Config struct {
	Level string
}

func (c *Config) Log(fields Fields) {
	fields.Add("logging.level", c.Level)
}

func (c *Config) Configure(v *viper.Viper) error {
	c.Level = v.GetString("logging.level")
	if len(c.Level) == 0 {
		c.Level = "debug"
	}

	for _, level := range levels {
		if c.Level == level {
			return nil
		}
	}

	return fmt.Errorf("logging.level set to invalid value %s. Accepted values are: %v",
		c.Level, levels)
}

func (c *Config) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String("logging.level", "debug",
		"sets the minimum logging level for the logger")
	return nil
}
