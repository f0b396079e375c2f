// Package operators maps the small integer operator codes used by the feed
// to display names. The table is static reference data shipped with the
// binary.
package operators

import (
	_ "embed"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// UnknownOperator is returned for codes missing from the table.
const UnknownOperator = "N/A"

//go:embed operators.yaml
var operatorsYAML []byte

var table map[int]string

func init() {
	if err := yaml.Unmarshal(operatorsYAML, &table); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse embedded operator table")
	}
}

func Name(code int) string {
	if name, ok := table[code]; ok {
		return name
	}

	return UnknownOperator
}
