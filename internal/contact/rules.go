package contact

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rules holds the heuristic lists the validator matches against.
type Rules struct {
	SpamKeywords      []string `yaml:"spam_keywords"`
	DisposableDomains []string `yaml:"disposable_domains"`
}

// DefaultRules returns the built-in keyword and domain lists.
func DefaultRules() Rules {
	var r Rules
	if err := yaml.Unmarshal(defaultRulesYAML, &r); err != nil {
		panic(fmt.Sprintf("contact: embedded rules: %v", err))
	}
	return r
}

// LoadRules decodes a YAML rules document on top of the defaults.
func LoadRules(r io.Reader) (Rules, error) {
	var override Rules
	if err := yaml.NewDecoder(r).Decode(&override); err != nil && err != io.EOF {
		return Rules{}, fmt.Errorf("decode rules: %w", err)
	}

	rules := DefaultRules()
	if len(override.SpamKeywords) > 0 {
		rules.SpamKeywords = override.SpamKeywords
	}
	if len(override.DisposableDomains) > 0 {
		rules.DisposableDomains = override.DisposableDomains
	}
	return rules, nil
}

// LoadRulesFile reads rules from path, or returns the defaults when path is empty.
func LoadRulesFile(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Rules{}, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()
	return LoadRules(f)
}

// compiledRules is the lookup form of Rules.
type compiledRules struct {
	keywords   *regexp.Regexp // nil when the list is empty
	disposable map[string]struct{}
}

func compileRules(r Rules) compiledRules {
	c := compiledRules{disposable: make(map[string]struct{}, len(r.DisposableDomains))}

	var quoted []string
	for _, kw := range r.SpamKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			quoted = append(quoted, regexp.QuoteMeta(kw))
		}
	}
	if len(quoted) > 0 {
		// Substring match so plurals and inflections still count.
		c.keywords = regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
	}

	for _, d := range r.DisposableDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			c.disposable[d] = struct{}{}
		}
	}
	return c
}
