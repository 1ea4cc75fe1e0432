package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Binder is implemented by every configuration section. Bind declares
// the flags of the section and Configure reads and validates its values
type Binder interface {
	Bind(*viper.Viper, *cobra.Command) error
	Configure(*viper.Viper) error
}

// EnvAliaser is implemented by configuration sections that can also
// be set from environment variables that do not follow the
// prefix naming convention
type EnvAliaser interface {
	EnvAliases() map[string]string
}
