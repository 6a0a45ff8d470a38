package adapter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownAdapter is returned for an adapter name nobody registered.
var ErrUnknownAdapter = errors.New("unknown delivery adapter")

// AdapterFactory is a function that creates an adapter from options
type AdapterFactory func(opts Options) (DeliveryAdapter, error)

// AdapterInfo contains information about an adapter type
type AdapterInfo struct {
	Name        string
	Description string
	Factory     AdapterFactory
}

var registeredAdapters = map[string]AdapterInfo{}

// RegisterAdapter registers an adapter factory under a name
func RegisterAdapter(name, description string, factory AdapterFactory) {
	if _, dup := registeredAdapters[name]; dup {
		panic("adapter: RegisterAdapter called twice for " + name)
	}
	registeredAdapters[name] = AdapterInfo{
		Name:        name,
		Description: description,
		Factory:     factory,
	}
}

// Adapters returns the registered adapters sorted by name
func Adapters() []AdapterInfo {
	list := make([]AdapterInfo, 0, len(registeredAdapters))
	for _, info := range registeredAdapters {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Names returns the registered adapter names in sorted order
func Names() []string {
	var names []string
	for _, info := range Adapters() {
		names = append(names, info.Name)
	}
	return names
}

// NewAdapter creates an adapter by name
func NewAdapter(name string, opts Options) (DeliveryAdapter, error) {
	info, ok := registeredAdapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownAdapter, name, strings.Join(Names(), ", "))
	}
	a, err := info.Factory(opts)
	if err != nil {
		return nil, fmt.Errorf("%s adapter: %w", name, err)
	}
	return a, nil
}
