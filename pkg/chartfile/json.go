package chartfile

import (
	"encoding/json"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
)

// ParseJSON parses a chart from JSON.
func ParseJSON(data []byte, opts ...chart.Option) (*chart.Statechart, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return fromDocument(&doc, opts...)
}

// ToJSON converts a chart to JSON.
func ToJSON(c *chart.Statechart, pretty bool) ([]byte, error) {
	doc, err := toDocument(c)
	if err != nil {
		return nil, err
	}
	if pretty {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}
