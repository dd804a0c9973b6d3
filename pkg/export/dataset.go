package export

// Dataset defines tabular export content for classroom recaps.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}
