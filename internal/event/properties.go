package event

import (
	"regexp"
	"sort"

	"tfbridge/pkg/domainerrors"
)

var launchRoleARNPattern = regexp.MustCompile(`^arn:aws:iam::\d{12}:role/[\w+=,.@-]{1,64}$`)

// Properties is the free-form resource property bag. TerraformVariables values
// are restricted to strings or lists of strings; anything else is rejected
// before dispatch.
type Properties struct {
	ServiceToken         string         `json:"ServiceToken,omitempty"`
	TerraformArtifactURL string         `json:"TerraformArtifactUrl,omitempty"`
	LaunchRoleARN        string         `json:"LaunchRoleArn,omitempty"`
	DryRunID             string         `json:"DryRunId,omitempty"`
	TerraformVariables   map[string]any `json:"TerraformVariables,omitempty"`
}

// Validate enforces the property invariants required before any external call.
func (p *Properties) Validate() error {
	if err := requireField(p.ServiceToken, "ServiceToken"); err != nil {
		return err
	}
	if err := requireField(p.TerraformArtifactURL, "TerraformArtifactUrl"); err != nil {
		return err
	}
	if err := requireField(p.LaunchRoleARN, "LaunchRoleArn"); err != nil {
		return err
	}

	if !launchRoleARNPattern.MatchString(p.LaunchRoleARN) {
		return domainerrors.New(domainerrors.CodeValidation,
			"LaunchRoleArn %s does not match pattern %s", p.LaunchRoleARN, launchRoleARNPattern)
	}

	var invalid []string
	for name, value := range p.TerraformVariables {
		if !isStringOrStringList(value) {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return domainerrors.New(domainerrors.CodeValidation,
			"invalid Terraform variables %v, must be string or list of strings", invalid)
	}
	return nil
}

func requireField(value, name string) error {
	if value == "" {
		return domainerrors.New(domainerrors.CodeValidation, "field %s is required", name)
	}
	return nil
}

func isStringOrStringList(value any) bool {
	switch v := value.(type) {
	case string:
		return true
	case []any:
		for _, item := range v {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	case []string:
		return true
	default:
		return false
	}
}
