package chat

import (
	"io/fs"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/slps/canteen/core/account"
)

// KnowledgeFile is the path of the knowledge base within the embedded files.
const KnowledgeFile = "knowledge/intents.yaml"

type (
	// Localized holds one text per language.
	Localized struct {
		EN string `yaml:"en"`
		HI string `yaml:"hi"`
	}

	// Intent is a canned answer triggered by phrases found in the message.
	Intent struct {
		Name      string         `yaml:"name"`
		Phrases   []string       `yaml:"phrases"`
		Words     []string       `yaml:"words"` // matched as whole words only
		Also      []string       `yaml:"also"`
		Roles     []account.Role `yaml:"roles"`
		Responses Localized      `yaml:"responses"`
	}

	KnowledgeBase struct {
		Default Localized `yaml:"default"`
		Intents []Intent  `yaml:"intents"`
	}
)

func (l Localized) In(lang string) string {
	if lang == LangHindi && l.HI != "" {
		return l.HI
	}
	return l.EN
}

// LoadKnowledgeBase parses the YAML knowledge base at `path` in fsys.
func LoadKnowledgeBase(fsys fs.FS, path string) (*KnowledgeBase, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Wrap(err, "reading knowledge base")
	}
	var kb KnowledgeBase
	if err = yaml.Unmarshal(data, &kb); err != nil {
		return nil, errors.Wrap(err, "parsing knowledge base")
	}
	for i, in := range kb.Intents {
		if in.Name == "" {
			return nil, errors.Errorf("intent #%d has no name", i+1)
		}
		if len(in.Phrases) == 0 && len(in.Words) == 0 {
			return nil, errors.Errorf("intent %q has no phrases", in.Name)
		}
		if in.Responses.EN == "" {
			return nil, errors.Errorf("intent %q has no english response", in.Name)
		}
	}
	if kb.Default.EN == "" {
		return nil, errors.New("knowledge base has no default response")
	}
	return &kb, nil
}

// Match returns the first intent matching the lowercased message for the session's role.
func (kb *KnowledgeBase) Match(msg string, role account.Role) (Intent, bool) {
	words := strings.FieldsFunc(msg, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsNumber(r) })
	for _, in := range kb.Intents {
		if len(in.Roles) > 0 && !hasRole(in.Roles, role) {
			continue
		}
		if !containsAny(msg, in.Phrases) && !hasWord(words, in.Words) {
			continue
		}
		if len(in.Also) > 0 && !containsAny(msg, in.Also) {
			continue
		}
		return in, true
	}
	return Intent{}, false
}

func hasRole(roles []account.Role, role account.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func hasWord(words, want []string) bool {
	for _, w := range words {
		for _, ww := range want {
			if w == ww {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
