package extractor

import "sort"

// Strategy resolves the canonical interest resource from a parsed state tree.
// Strategies are pure: they only read the tree.
type Strategy struct {
	// Name is reported in Result.Strategy and debug logs.
	Name string

	// Resolve returns the resource object, or false when this nesting
	// convention is absent or null.
	Resolve func(tree any) (map[string]any, bool)
}

// DefaultStrategies lists the known interest resource conventions in order.
var DefaultStrategies = []Strategy{
	{Name: "redux:InterestResource", Resolve: objectResource(reduxResource("InterestResource"))},
	{Name: "redux:InterestPageResource", Resolve: objectResource(reduxResource("InterestPageResource"))},
	{Name: "responses:InterestResource", Resolve: objectResource(responseResource("InterestResource"))},
}

// pinResources lists the resource keys that may carry the pin feed, in order.
var pinResources = []string{"InterestFeedResource", "InterestPageFeedResource"}

// dataResolver returns the raw "data" value of one resource.
type dataResolver func(tree any) (any, bool)

// reduxRoots returns the redux state objects, with the props-wrapped
// convention first.
func reduxRoots(tree any) []map[string]any {
	roots := make([]map[string]any, 0, 2)
	if m, ok := lookupMap(tree, "props", "initialReduxState"); ok {
		roots = append(roots, m)
	}
	if m, ok := lookupMap(tree, "initialReduxState"); ok {
		roots = append(roots, m)
	}
	return roots
}

// responseLists returns the resourceResponses arrays, props-wrapped first.
func responseLists(tree any) [][]any {
	lists := make([][]any, 0, 2)
	if s, ok := lookupSlice(tree, "props", "resourceResponses"); ok {
		lists = append(lists, s)
	}
	if s, ok := lookupSlice(tree, "resourceResponses"); ok {
		lists = append(lists, s)
	}
	return lists
}

// reduxResource resolves resources.<key>.<request key>.data.
// A resource map is keyed by serialized request options; entries are tried
// in sorted key order so the result does not depend on map iteration.
func reduxResource(key string) dataResolver {
	return func(tree any) (any, bool) {
		for _, root := range reduxRoots(tree) {
			entries, ok := lookupMap(root, "resources", key)
			if !ok {
				continue
			}
			for _, reqKey := range sortedKeys(entries) {
				if data, ok := lookup(entries[reqKey], "data"); ok {
					return data, true
				}
			}
		}
		return nil, false
	}
}

// responseResource resolves resourceResponses[name == key].response.data.
func responseResource(key string) dataResolver {
	return func(tree any) (any, bool) {
		for _, list := range responseLists(tree) {
			for _, item := range list {
				entry, ok := item.(map[string]any)
				if !ok {
					continue
				}
				if name, _ := asString(entry["name"]); name != key {
					continue
				}
				if data, ok := lookup(entry, "response", "data"); ok {
					return data, true
				}
			}
		}
		return nil, false
	}
}

// objectResource narrows a resolver to object-valued data.
func objectResource(resolve dataResolver) func(tree any) (map[string]any, bool) {
	return func(tree any) (map[string]any, bool) {
		data, ok := resolve(tree)
		if !ok {
			return nil, false
		}
		m, ok := data.(map[string]any)
		return m, ok
	}
}

// resolvePinItems finds the pin feed as an array. The feed data may be the
// array itself or an object with a "results" array.
func resolvePinItems(tree any) ([]any, bool) {
	resolvers := make([]dataResolver, 0, len(pinResources)*2)
	for _, key := range pinResources {
		resolvers = append(resolvers, reduxResource(key))
	}
	for _, key := range pinResources {
		resolvers = append(resolvers, responseResource(key))
	}

	for _, resolve := range resolvers {
		data, ok := resolve(tree)
		if !ok {
			continue
		}
		switch val := data.(type) {
		case []any:
			return val, true
		case map[string]any:
			if items, ok := val["results"].([]any); ok {
				return items, true
			}
		}
	}
	return nil, false
}

// presentResourceKeys lists every resource key found in the tree, sorted.
// It is attached to ResourceNotFound errors.
func presentResourceKeys(tree any) []string {
	seen := make(map[string]bool)
	for _, root := range reduxRoots(tree) {
		if resources, ok := lookupMap(root, "resources"); ok {
			for key := range resources {
				seen[key] = true
			}
		}
	}
	for _, list := range responseLists(tree) {
		for _, item := range list {
			if name, ok := asString(lookupOrNil(item, "name")); ok {
				seen[name] = true
			}
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func lookupOrNil(v any, path ...string) any {
	found, _ := lookup(v, path...)
	return found
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
