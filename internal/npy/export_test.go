package npy

// Descriptors lists every supported descriptor.
func Descriptors() []string {
	out := make([]string, 0, len(dtypes))
	for descr := range dtypes {
		out = append(out, descr)
	}

	return out
}
