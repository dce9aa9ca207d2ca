package main

import (
	"io"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/httpxml/xmlcodec"
)

// zapSink adapts w for the logger. Logs always go to the writer given,
// keeping stdout free for the response body.
func zapSink(w io.Writer) zapcore.WriteSyncer {
	return zapcore.AddSync(w)
}

// toYAML builds a YAML node tree that keeps the key order of decoded maps.
func toYAML(v xmlcodec.Value) *yaml.Node {
	switch val := v.(type) {
	case *xmlcodec.Map:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range val.Entries() {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
				toYAML(e.Value),
			)
		}
		return node
	case xmlcodec.List:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			node.Content = append(node.Content, toYAML(item))
		}
		return node
	case xmlcodec.Scalar:
		if val.Raw() == nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
		node := &yaml.Node{}
		if err := node.Encode(val.Raw()); err != nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: val.String()}
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
