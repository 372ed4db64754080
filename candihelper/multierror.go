package candihelper

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MultiError abstract interface
type MultiError interface {
	Append(key string, err error) MultiError
	HasError() bool
	IsNil() bool
	Clear()
	ToMap() map[string]string
	Merge(MultiError) MultiError
	Error() string
}

type multiError struct {
	lock sync.Mutex
	errs map[string]string
}

// NewMultiError constructor
func NewMultiError() MultiError {
	return &multiError{errs: make(map[string]string)}
}

// Append error to multierror, nil error is ignored
func (m *multiError) Append(key string, err error) MultiError {
	m.lock.Lock()
	defer m.lock.Unlock()
	if err != nil {
		m.errs[key] = err.Error()
	}
	return m
}

// HasError check if err is exist
func (m *multiError) HasError() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.errs) != 0
}

// IsNil check if err is nil
func (m *multiError) IsNil() bool {
	return !m.HasError()
}

// Clear make empty list of errors
func (m *multiError) Clear() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.errs = map[string]string{}
}

// ToMap return copy of list map of error
func (m *multiError) ToMap() map[string]string {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := make(map[string]string, len(m.errs))
	for k, v := range m.errs {
		res[k] = v
	}
	return res
}

// Merge from another multi error
func (m *multiError) Merge(e MultiError) MultiError {
	if e == nil {
		return m
	}
	for k, v := range e.ToMap() {
		m.Append(k, errors.New(v))
	}
	return m
}

// Error implement error from multiError, keys are sorted so the output is stable
func (m *multiError) Error() string {
	errs := m.ToMap()
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	str := make([]string, 0, len(keys))
	for _, k := range keys {
		str = append(str, fmt.Sprintf("%s: %s", k, errs[k]))
	}
	return strings.Join(str, "\n")
}
