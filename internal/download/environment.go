package download

import (
	"os"
	"sort"
)

// environment is used to set process environment variables for part
// of a function and put them back afterwards.
type environment struct {
	// Previous value of each variable that was set; nil if it
	// was unset.
	saved map[string]*string
}

// setEnvironment sets every non-empty value in vars and returns an
// environment that can restore the previous state. Variables with an
// empty value are left alone.
func setEnvironment(vars map[string]string) (*environment, error) {
	e := &environment{saved: map[string]*string{}}

	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := vars[key]
		if value == "" {
			continue
		}
		if old, ok := os.LookupEnv(key); ok {
			e.saved[key] = &old
		} else {
			e.saved[key] = nil
		}
		if err := os.Setenv(key, value); err != nil {
			e.restore()
			return nil, err
		}
	}
	return e, nil
}

// restore puts back the values that were in place before
// setEnvironment, unsetting variables that did not exist.
func (e *environment) restore() {
	for key, old := range e.saved {
		if old == nil {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, *old)
		}
	}
}
