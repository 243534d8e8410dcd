package safety

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

// Rules is the serializable moderation rule set. Patterns are regular
// expressions matched case-insensitively.
type Rules struct {
	Blocked      map[string][]string `yaml:"blocked"`
	Warning      map[string][]string `yaml:"warning"`
	Replacements map[string]string   `yaml:"replacements"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	r, err := ParseRules(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("safety: default rules: %v", err))
	}
	return r
}

// ParseRules decodes a YAML rule set.
func ParseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if _, err := r.compile(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// LoadRules reads a YAML rule set from path.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read safety rules: %w", err)
	}
	return ParseRules(data)
}

// Merge adds the categories of other to r. Patterns for an existing blocked
// or warning category extend it; unknown categories are added as blocked.
// Replacements from other win.
func (r Rules) Merge(other Rules) Rules {
	out := Rules{
		Blocked:      cloneCategories(r.Blocked),
		Warning:      cloneCategories(r.Warning),
		Replacements: make(map[string]string, len(r.Replacements)+len(other.Replacements)),
	}
	for k, v := range r.Replacements {
		out.Replacements[k] = v
	}
	for k, v := range other.Replacements {
		out.Replacements[k] = v
	}

	add := func(category string, patterns []string) {
		switch {
		case out.Blocked[category] != nil:
			out.Blocked[category] = append(out.Blocked[category], patterns...)
		case out.Warning[category] != nil:
			out.Warning[category] = append(out.Warning[category], patterns...)
		default:
			out.Blocked[category] = slices.Clone(patterns)
		}
	}
	for _, c := range sortedKeys(other.Blocked) {
		add(c, other.Blocked[c])
	}
	for _, c := range sortedKeys(other.Warning) {
		add(c, other.Warning[c])
	}
	return out
}

type replacement struct {
	re   *regexp.Regexp
	with string
}

type compiled struct {
	blocked      []*regexp.Regexp
	warning      []*regexp.Regexp
	replacements []replacement
}

func (r Rules) compile() (compiled, error) {
	var (
		c   compiled
		err error
	)
	if c.blocked, err = compileCategories(r.Blocked); err != nil {
		return compiled{}, err
	}
	if c.warning, err = compileCategories(r.Warning); err != nil {
		return compiled{}, err
	}
	for _, term := range sortedKeys(r.Replacements) {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		if err != nil {
			return compiled{}, fmt.Errorf("%w: replacement %q: %v", ErrInvalidRules, term, err)
		}
		c.replacements = append(c.replacements, replacement{re: re, with: r.Replacements[term]})
	}
	return c, nil
}

func compileCategories(categories map[string][]string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, name := range sortedKeys(categories) {
		for _, p := range categories[name] {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("%w: category %s: %v", ErrInvalidRules, name, err)
			}
			out = append(out, re)
		}
	}
	return out, nil
}

func cloneCategories(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = slices.Clone(v)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, strings.Compare)
	return keys
}
