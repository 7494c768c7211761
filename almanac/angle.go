package almanac

import (
	"fmt"
	"strings"

	"github.com/soniakeys/unit"
	"gopkg.in/yaml.v3"

	"github.com/echoflaresat/eclipse/angle"
)

// Angle is an almanac angle field. In YAML it may be a number of degrees,
// a string of sexagesimal components ("7 35.2", "7° 35.2'") or a sequence
// of components. It may start with a hemisphere letter or sign
// ("S 8 12.8", "N7 35.2", "-7 30"); S, W and a minus sign negate the whole
// angle.
type Angle struct {
	unit.Angle
}

func (a *Angle) UnmarshalYAML(n *yaml.Node) error {
	var tokens []string
	switch n.Kind {
	case yaml.ScalarNode:
		tokens = strings.Fields(n.Value)
	case yaml.SequenceNode:
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: %w: nested value in angle", c.Line, angle.ErrMalformed)
			}
			tokens = append(tokens, c.Value)
		}
	default:
		return fmt.Errorf("line %d: %w: angle must be a number, string or list", n.Line, angle.ErrMalformed)
	}
	v, err := parseTokens(tokens)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	a.Angle = v
	return nil
}

// ParseAngle reads whitespace separated sexagesimal components.
func ParseAngle(s string) (unit.Angle, error) {
	return parseTokens(strings.Fields(s))
}

func parseTokens(tokens []string) (unit.Angle, error) {
	neg := false
	if len(tokens) > 0 {
		first := strings.TrimSpace(tokens[0])
		if first != "" && strings.ContainsRune(hemispheres, rune(first[0])) {
			neg = strings.ContainsRune("SsWw-", rune(first[0]))
			if first = strings.TrimSpace(first[1:]); first == "" {
				tokens = tokens[1:]
			} else {
				tokens = append([]string{first}, tokens[1:]...)
			}
		}
	}
	if len(tokens) == 0 {
		return 0, fmt.Errorf("%w: empty angle", angle.ErrMalformed)
	}
	parts := make([]angle.Part, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		p, err := angle.ParsePart(tok)
		if err != nil {
			return 0, err
		}
		if p.Value < 0 {
			return 0, fmt.Errorf("%w: negative component %q", angle.ErrMalformed, tok)
		}
		parts = append(parts, p)
	}
	return angle.Compose(neg, parts...)
}

// hemispheres are the sign prefixes an angle may start with. S, W and -
// negate it.
const hemispheres = "NSEWnsew+-"
