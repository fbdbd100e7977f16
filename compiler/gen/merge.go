package gen

// deepMerge returns a new map holding base overlaid with over. Map values
// present on both sides are merged recursively; any other value in over
// replaces the one in base. Neither input is modified.
func deepMerge(base, over map[string]any) map[string]any {
	out := deepCopy(base)
	if out == nil {
		out = make(map[string]any, len(over))
	}
	for k, v := range over {
		if vm, ok := toMap(v); ok {
			if bm, ok := toMap(out[k]); ok {
				out[k] = deepMerge(bm, vm)
				continue
			}
			out[k] = deepCopy(vm)
			continue
		}
		out[k] = v
	}
	return out
}

// deepCopy copies m and every nested map in it.
func deepCopy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if vm, ok := toMap(v); ok {
			out[k] = deepCopy(vm)
			continue
		}
		out[k] = v
	}
	return out
}

// toMap converts the map shapes produced by YAML decoding and by the
// config getters to map[string]any.
func toMap(v any) (map[string]any, bool) {
	switch v := v.(type) {
	case map[string]any:
		return v, true
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return m, true
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			m[s] = e
		}
		return m, true
	}
	return nil, false
}
