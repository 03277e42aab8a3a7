// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
)

// ErrInvalidDisabledList is returned when base.disabledModules or
// base.disabledSuites is not a list of strings.
var ErrInvalidDisabledList = errors.New("invalid disabled list")

// RequestFromConfig builds a Request from the merged configuration, reading
// base.disabledModules and base.disabledSuites. Missing keys mean nothing is
// disabled.
func RequestFromConfig(projectRoot string, cfg map[string]any) (Request, error) {
	req := Request{ProjectRoot: projectRoot}

	base, ok := cfg["base"]
	if !ok || base == nil {
		return req, nil
	}
	baseMap, ok := base.(map[string]any)
	if !ok {
		return req, fmt.Errorf("%w: base is %T, want a mapping", ErrInvalidDisabledList, base)
	}

	var err error
	if req.DisabledModules, err = stringList(baseMap, "disabledModules"); err != nil {
		return req, err
	}
	if req.DisabledSuites, err = stringList(baseMap, "disabledSuites"); err != nil {
		return req, err
	}
	return req, nil
}

func stringList(m map[string]any, key string) ([]string, error) {
	switch v := m[key].(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: base.%s[%d] is %T, want string", ErrInvalidDisabledList, key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: base.%s is %T, want a list", ErrInvalidDisabledList, key, v)
	}
}
