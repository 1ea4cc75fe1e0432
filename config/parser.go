package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the root of the configuration of an application
type Config interface {
	Use() string
	EnvPrefix() string
	Binders() []Binder
}

// Parser reads a Config from a configuration file, the environment
// and the command line, in increasing order of precedence
type Parser struct {
	Config Config

	file *ConfigFile
	cmd  *cobra.Command
	v    *viper.Viper
}

// Parse parses the process arguments
func (p *Parser) Parse() error {
	return p.ParseArgs(os.Args[1:])
}

// ParseArgs parses the provided arguments and configures all the
// binders of the configuration
func (p *Parser) ParseArgs(args []string) error {
	if p.cmd.PersistentFlags().Parsed() {
		return ErrAlreadyParsed
	}

	if err := p.cmd.PersistentFlags().Parse(args); err != nil {
		return ErrParseFlags{err}
	}

	for _, c := range allBinders(p.file, p.Config) {
		if err := c.Configure(p.v); err != nil {
			return err
		}
	}

	return nil
}

// allBinders returns the binders of config preceded by file, so that
// values read from the file act as defaults for the rest
func allBinders(file *ConfigFile, config Config) []Binder {
	return append([]Binder{file}, config.Binders()...)
}

// Usage prints the flags of the command
func (p *Parser) Usage() error {
	return p.cmd.Usage()
}

// Generate creates a parser for the configuration. All environment
// variables start with the configuration's prefix and are set by
// replacing `.` with `_`. For example, with prefix QUORUM_FN the key
// eth.url can be set with QUORUM_FN_ETH_URL. Binders that implement
// EnvAliaser can also be set from the aliased variable names
func Generate(config Config) (*Parser, error) {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{Use: config.Use()}
	file := ConfigFile{}

	for _, c := range allBinders(&file, config) {
		if err := c.Bind(v, cmd); err != nil {
			return nil, fmt.Errorf("failed to bind flags %s", err.Error())
		}

		aliaser, ok := c.(EnvAliaser)
		if !ok {
			continue
		}

		for key, env := range aliaser.EnvAliases() {
			if err := v.BindEnv(key, env); err != nil {
				return nil, fmt.Errorf("failed to bind env %s %s", env, err.Error())
			}
		}
	}

	if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags %s", err.Error())
	}

	return &Parser{file: &file, Config: config, cmd: cmd, v: v}, nil
}
