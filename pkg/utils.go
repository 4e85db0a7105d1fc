package pkg

func Filter[T any](arr []T, check func(T) bool) []T {
	filtered := []T{}
	for _, item := range arr {
		if check(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
