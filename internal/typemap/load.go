package typemap

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of an alternate vocabulary.
//
//	forward:
//	  UUID: uuid
//	inverse:
//	  uuid: CHAR
type File struct {
	Forward map[string]string `yaml:"forward"`
	Inverse map[string]string `yaml:"inverse"`
	// Replace drops the built-in tables instead of extending them.
	Replace bool `yaml:"replace,omitempty"`
}

// Load reads a YAML vocabulary. Entries extend the default tables unless the
// file sets replace: true.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read vocabulary %s", path)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse vocabulary %s", path)
	}

	forward := map[string]string{}
	inverse := map[string]string{}
	if !f.Replace {
		for k, t := range defaultForward {
			forward[k] = t
		}
		for k, t := range defaultInverse {
			inverse[k] = t
		}
	}
	for k, t := range f.Forward {
		forward[k] = t
	}
	for k, t := range f.Inverse {
		inverse[k] = t
	}
	return New(forward, inverse), nil
}
