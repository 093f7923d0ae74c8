// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/finhaus/cpf-forecast/pkg/constants"
)

// ValidateOutputFormat checks that the requested output format is supported.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV:
		return nil
	default:
		return fmt.Errorf("invalid output format %q: supported formats are %s and %s",
			format, constants.OutputFormatPretty, constants.OutputFormatCSV)
	}
}
