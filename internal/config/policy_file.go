package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	sgerrors "github.com/standardbeagle/snippetgate/internal/errors"
	"github.com/standardbeagle/snippetgate/internal/policy"
)

// policyFile is the TOML form of a policy:
//
//	allowed_variable_types = ["System.Int32"]
//	allowed_method_signatures = []
//
// Pointers keep an omitted key apart from an empty array.
type policyFile struct {
	AllowedVariableTypes    *[]string `toml:"allowed_variable_types"`
	AllowedMethodSignatures *[]string `toml:"allowed_method_signatures"`
}

// ParsePolicyTOML decodes a TOML policy
func ParsePolicyTOML(data []byte) (*policy.Config, error) {
	var pf policyFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&pf); err != nil {
		return nil, err
	}
	cfg := &policy.Config{}
	if pf.AllowedVariableTypes != nil {
		cfg.AllowedVariableTypes = policy.NewAllowList(*pf.AllowedVariableTypes...)
	}
	if pf.AllowedMethodSignatures != nil {
		cfg.AllowedMethodSignatures = policy.NewAllowList(*pf.AllowedMethodSignatures...)
	}
	return cfg, nil
}

// LoadPolicyFile reads a TOML policy from disk
func LoadPolicyFile(path string) (*policy.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sgerrors.NewFileError("read", path, err)
	}
	cfg, err := ParsePolicyTOML(data)
	if err != nil {
		return nil, sgerrors.NewConfigError("policy", "", fmt.Errorf("invalid policy TOML: %w", err)).WithPath(path)
	}
	return cfg, nil
}

// MarshalPolicyTOML renders a policy in the form ParsePolicyTOML reads.
// Absent lists are omitted.
func MarshalPolicyTOML(cfg *policy.Config) ([]byte, error) {
	var pf policyFile
	if cfg != nil {
		if cfg.AllowedVariableTypes != nil {
			names := cfg.AllowedVariableTypes.Names()
			pf.AllowedVariableTypes = &names
		}
		if cfg.AllowedMethodSignatures != nil {
			names := cfg.AllowedMethodSignatures.Names()
			pf.AllowedMethodSignatures = &names
		}
	}
	return toml.Marshal(pf)
}

// loadPolicyFile merges the configured policy file under the inline policy
// block. Lists written inline win over the file.
func (c *Config) loadPolicyFile() error {
	if c.PolicyFile == "" {
		return nil
	}
	fromFile, err := LoadPolicyFile(c.Resolve(c.PolicyFile))
	if err != nil {
		return err
	}
	c.Policy = fromFile.Merge(c.Policy)
	return nil
}
