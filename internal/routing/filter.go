package routing

// FilterByKind returns routes of the given kinds, preserving order.
// With no kinds every route is returned.
func FilterByKind(routes []BikeRoute, kinds ...Kind) []BikeRoute {
	if len(kinds) == 0 {
		return routes
	}
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	out := make([]BikeRoute, 0, len(routes))
	for i := range routes {
		if want[routes[i].Kind] {
			out = append(out, routes[i])
		}
	}
	return out
}

// SelectByID returns the routes whose IDs are in ids, preserving batch order.
// Unknown IDs are ignored.
func SelectByID(routes []BikeRoute, ids ...string) []BikeRoute {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	out := make([]BikeRoute, 0, len(ids))
	for i := range routes {
		if want[routes[i].ID] {
			out = append(out, routes[i])
		}
	}
	return out
}
