package junctionsim

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

type OutputFormat uint16

const (
	FORMAT_JSON = OutputFormat(iota + 1)
	FORMAT_YAML
	FORMAT_MSGPACK
)

func (iotaIdx OutputFormat) String() string {
	return [...]string{"undefined", "json", "yaml", "msgpack"}[iotaIdx]
}

var (
	outputFormatsTxt = map[string]OutputFormat{
		"json":    FORMAT_JSON,
		"yaml":    FORMAT_YAML,
		"yml":     FORMAT_YAML,
		"msgpack": FORMAT_MSGPACK,
	}
)

func ParseOutputFormat(str string) (OutputFormat, error) {
	if found, ok := outputFormatsTxt[strings.ToLower(str)]; ok {
		return found, nil
	}
	return 0, errors.Wrapf(ErrUnknownFormat, "'%s'", str)
}

// ExportStatistics writes statistics in given format. Map keys are sorted in every format
func ExportStatistics(w io.Writer, stats *Statistics, format OutputFormat) error {
	switch format {
	case FORMAT_JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			return errors.Wrap(err, "Can't encode statistics as JSON")
		}
	case FORMAT_YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(stats); err != nil {
			return errors.Wrap(err, "Can't encode statistics as YAML")
		}
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, "Can't flush YAML encoder")
		}
	case FORMAT_MSGPACK:
		enc := msgpack.NewEncoder(w)
		enc.SetSortMapKeys(true)
		if err := enc.Encode(stats); err != nil {
			return errors.Wrap(err, "Can't encode statistics as msgpack")
		}
	default:
		return errors.Wrapf(ErrUnknownFormat, "%d", uint16(format))
	}
	return nil
}
