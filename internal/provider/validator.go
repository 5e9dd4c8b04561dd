package provider

import "fmt"

// ValidateEmailConfig checks that the section for the selected transport
// is complete enough to build a sender.
func ValidateEmailConfig(config EmailConfig) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch config.Name {
	case ProviderNameSMTP:
		if config.SMTP.Host == "" {
			result.AddError("missing required field: smtp host")
		}
		requirePortRange("smtp port", config.SMTP.Port, result)
		if (config.SMTP.Username == "") != (config.SMTP.Password == "") {
			result.AddError("smtp username and password must be set together")
		}
	case ProviderNameSES:
		if config.SES.Region == "" {
			result.AddError("missing required field: ses region")
		}
		if (config.SES.AccessKeyID == "") != (config.SES.SecretAccessKey == "") {
			result.AddError("ses access key id and secret access key must be set together")
		}
	case ProviderNameLog:
	default:
		result.AddError("unknown email provider: " + string(config.Name))
	}

	return result
}

// requirePortRange validates a TCP port. Zero means "use the default".
func requirePortRange(field string, port int, result *ValidationResult) {
	if port < 0 || port > 65535 {
		result.AddError(fmt.Sprintf("field %s must be between 1 and 65535, got %d", field, port))
	}
}
