// Package parser parses scenario YAML bytes into the in-memory scenario
// model. Grounded on the teacher's pkg/scenario/parser: a thin YAML
// decode plus "--set key=value" override application. It contains no
// novel engineering — an external collaborator the engine consumes
// through parse_scenario(bytes) -> Scenario | ParseError.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
	"gopkg.in/yaml.v3"
)

// Parser decodes scenario YAML. It is stateless and safe for concurrent use.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// Parse decodes scenario bytes into a *scenario.Scenario. Parse errors
// never enter the engine: callers must treat a non-nil error as terminal
// before any engine construction.
func (p *Parser) Parse(data []byte) (*scenario.Scenario, error) {
	var s scenario.Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fozzyerr.New(fozzyerr.KindParse, "parser.Parse", err)
	}
	return &s, nil
}

// ApplyOverrides mutates s according to "--set key=value" style overrides,
// a small fixed set of dotted paths a caller may override without editing
// the YAML file. Unknown keys are a parse error.
func ApplyOverrides(s *scenario.Scenario, overrides map[string]string) error {
	for k, v := range overrides {
		switch k {
		case "seed":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fozzyerr.New(fozzyerr.KindParse, "parser.ApplyOverrides", fmt.Errorf("seed: %w", err))
			}
			s.Spec.Seed = n
		case "scheduler_policy":
			s.Spec.SchedulerPolicy = v
		case "resources.mem_limit_mb":
			n, err := strconv.Atoi(v)
			if err != nil {
				return fozzyerr.New(fozzyerr.KindParse, "parser.ApplyOverrides", fmt.Errorf("resources.mem_limit_mb: %w", err))
			}
			s.Spec.Resources.MemLimitMB = n
		case "resources.mem_fail_after":
			n, err := strconv.Atoi(v)
			if err != nil {
				return fozzyerr.New(fozzyerr.KindParse, "parser.ApplyOverrides", fmt.Errorf("resources.mem_fail_after: %w", err))
			}
			s.Spec.Resources.MemFailAfter = n
		default:
			return fozzyerr.New(fozzyerr.KindParse, "parser.ApplyOverrides", fmt.Errorf("unknown override key %q", k))
		}
	}
	return nil
}

// ParseSetFlags turns ["k1=v1", "k2=v2"] CLI flags into an overrides map.
func ParseSetFlags(flags []string) (map[string]string, error) {
	out := make(map[string]string, len(flags))
	for _, f := range flags {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 {
			return nil, fozzyerr.New(fozzyerr.KindParse, "parser.ParseSetFlags", fmt.Errorf("malformed --set value %q, want key=value", f))
		}
		out[parts[0]] = parts[1]
	}
	return out, nil
}
