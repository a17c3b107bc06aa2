package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
)

// Rules holds the optional classification rules file
type Rules struct {
	Path string
}

// Flags returns CLI flags for rules configuration
func (c *Rules) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to rules configuration YAML",
			Destination: &c.Path,
			Sources:     cli.EnvVars("BELLWETHER_CONFIG"),
		},
	}
}

// Load reads the rules file, overlaying it on the built-in defaults.
// No path configured means pure defaults.
func (c *Rules) Load() (*model.RulesConfig, error) {
	rules := model.DefaultRules()
	if c.Path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read rules file", goerr.V("path", c.Path))
	}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, goerr.Wrap(err, "failed to parse rules file", goerr.V("path", c.Path))
	}

	return rules, nil
}
