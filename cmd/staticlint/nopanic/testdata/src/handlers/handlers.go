package handlers

func mustParse(s string) string {
	if s == "" {
		panic("empty")
	}
	return s
}
