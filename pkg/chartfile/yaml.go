package chartfile

import (
	"gopkg.in/yaml.v3"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
)

// ParseYAML parses a chart from YAML.
func ParseYAML(data []byte, opts ...chart.Option) (*chart.Statechart, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return fromDocument(&doc, opts...)
}

// ToYAML converts a chart to YAML.
func ToYAML(c *chart.Statechart) ([]byte, error) {
	doc, err := toDocument(c)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}
