package service

import (
	"github.com/ludo-technologies/pytree/domain"
)

// OutputFormatResolver resolves the report format and file extension from flags.
type OutputFormatResolver struct{}

func NewOutputFormatResolver() *OutputFormatResolver { return &OutputFormatResolver{} }

// Determine evaluates format flags and returns the selected format and extension.
// At most one of json/yaml/csv may be true. With none set, fallback is used
// (typically output.format from the config file), and "" selects text.
func (r *OutputFormatResolver) Determine(json, yaml, csv bool, fallback string) (domain.OutputFormat, string, error) {
	selected := []domain.OutputFormat{}
	if json {
		selected = append(selected, domain.OutputFormatJSON)
	}
	if yaml {
		selected = append(selected, domain.OutputFormatYAML)
	}
	if csv {
		selected = append(selected, domain.OutputFormatCSV)
	}

	switch len(selected) {
	case 0:
		format, err := domain.ParseOutputFormat(fallback)
		if err != nil {
			return "", "", err
		}
		return format, extensionFor(format), nil
	case 1:
		return selected[0], extensionFor(selected[0]), nil
	default:
		return "", "", domain.NewInvalidInputError("only one output format flag can be specified", nil)
	}
}

func extensionFor(format domain.OutputFormat) string {
	if format == domain.OutputFormatText {
		return ""
	}
	return string(format)
}
