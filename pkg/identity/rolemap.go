package identity

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Microsoft-style long-form claim names plus common short-form fallbacks
const (
	claimEmail     = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	claimGivenName = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/givenname"
	claimSurname   = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/surname"
	claimGroups    = "http://schemas.microsoft.com/ws/2008/06/identity/claims/groups"
)

// AttributeAliases lists the provider-specific attribute names tried, in
// order, for each identity field
type AttributeAliases struct {
	Email     []string `yaml:"email"`
	GivenName []string `yaml:"given_name"`
	Surname   []string `yaml:"surname"`
	Groups    []string `yaml:"groups"`
}

// MappingConfig controls attribute resolution and role derivation.
// Loaded once at startup and treated as immutable afterwards.
type MappingConfig struct {
	AdminGroups    []string         `yaml:"admin_groups"`
	OperatorGroups []string         `yaml:"operator_groups"`
	Aliases        AttributeAliases `yaml:"aliases"`
}

// DefaultMappingConfig returns the mapping used when no override file is
// configured. The marker sets match the dashboard's directory groups.
func DefaultMappingConfig() *MappingConfig {
	return &MappingConfig{
		AdminGroups:    []string{"Dashboard-Admins", "IT-Admins"},
		OperatorGroups: []string{"Dashboard-Operators", "IT-Operators"},
		Aliases: AttributeAliases{
			Email:     []string{claimEmail, "email", "mail"},
			GivenName: []string{claimGivenName, "givenname", "firstname"},
			Surname:   []string{claimSurname, "surname", "lastname"},
			Groups:    []string{claimGroups, "groups"},
		},
	}
}

// LoadMappingConfig reads a YAML mapping file. Fields omitted from the file
// keep their default values.
func LoadMappingConfig(path string) (*MappingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping config: %w", err)
	}

	cfg := DefaultMappingConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse mapping config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the mapping is usable
func (c *MappingConfig) Validate() error {
	if len(c.Aliases.Email) == 0 {
		return fmt.Errorf("mapping config: at least one email alias is required")
	}
	return nil
}
