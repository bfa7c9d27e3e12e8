package bootstrap

import (
	"github.com/kbukum/authkit/config"
)

// Config is the constraint for application configuration types.
// Any struct embedding config.ServiceConfig satisfies it through promoted
// methods, provided it does not embed a second ApplyDefaults/Validate.
//
//	type MyConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Database database.Config `yaml:"database" mapstructure:"database"`
//	}
//
//	app, err := bootstrap.NewApp(&cfg)
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
