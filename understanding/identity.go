package understanding

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/becomeliminal/cortica-go/core"
)

//go:embed identity.yaml
var defaultIdentityMap []byte

// IdentityMap maps a profile field to the phrases that introduce its value.
type IdentityMap map[string][]string

// ParseIdentityMap decodes a YAML identity map.
func ParseIdentityMap(data []byte) (IdentityMap, error) {
	var m IdentityMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, core.Validationf("understanding.ParseIdentityMap", "decode identity map: %v", err)
	}
	return m, nil
}

// LoadIdentityMap reads a YAML identity map from path.
func LoadIdentityMap(path string) (IdentityMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read identity map: %w", err)
	}
	return ParseIdentityMap(data)
}

// DefaultIdentityMap returns the built-in English trigger phrases.
func DefaultIdentityMap() IdentityMap {
	m, err := ParseIdentityMap(defaultIdentityMap)
	if err != nil {
		panic(err)
	}
	return m
}

type trigger struct {
	phrase string
	re     *regexp.Regexp
}

type fieldTriggers struct {
	field    string
	triggers []trigger
}

// IdentityExtractor finds identity facts such as "I'm from Austin" in free
// text. Matching is case-insensitive; values keep the writer's casing.
type IdentityExtractor struct {
	fields []fieldTriggers
}

// NewIdentityExtractor compiles m. Fields are checked in name order and
// phrases in the order listed.
func NewIdentityExtractor(m IdentityMap) (*IdentityExtractor, error) {
	names := make([]string, 0, len(m))
	for field := range m {
		names = append(names, field)
	}
	slices.Sort(names)

	x := &IdentityExtractor{}
	for _, field := range names {
		ft := fieldTriggers{field: field}
		for _, phrase := range m[field] {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\s+([^.!?\n]*)`)
			if err != nil {
				return nil, core.Validationf("understanding.NewIdentityExtractor", "phrase %q: %v", phrase, err)
			}
			ft.triggers = append(ft.triggers, trigger{phrase: phrase, re: re})
		}
		x.fields = append(x.fields, ft)
	}
	return x, nil
}

// Extract returns at most one value per field: the text after the first
// matching phrase, up to the end of its sentence.
func (x *IdentityExtractor) Extract(text string) map[string]string {
	out := map[string]string{}
	for _, ft := range x.fields {
		for _, t := range ft.triggers {
			m := t.re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			value := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[1]), ".!?"))
			if value == "" {
				continue
			}
			out[ft.field] = value
			break
		}
	}
	return out
}
