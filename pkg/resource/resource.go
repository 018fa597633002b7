// Package resource turns models into the JSON shapes the API returns.
//
// A Transformer maps one value to a Map; One and Collection apply it:
//
//	func Meet(m models.Meet) resource.Map {
//	    return resource.Map{"id": m.ID, "locationName": m.LocationName}
//	}
//
//	c.JSON(http.StatusOK, resource.Collection(resources.Meet, meets))
package resource

// Map is the output of a Transformer.
type Map = map[string]any

// Transformer converts one model instance into a Map.
type Transformer[T any] func(T) Map

// One applies t to v.
func One[T any](t Transformer[T], v T) Map {
	return t(v)
}

// Collection applies t to every item. It never returns nil, so empty lists
// encode as [] rather than null.
func Collection[T any](t Transformer[T], items []T) []Map {
	out := make([]Map, 0, len(items))
	for _, item := range items {
		out = append(out, t(item))
	}
	return out
}

// With returns a copy of m with extra merged over it.
func With(m, extra Map) Map {
	out := make(Map, len(m)+len(extra))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Omit returns a copy of m without keys.
func Omit(m Map, keys ...string) Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
