package catalog

var categoryLabels = map[string]string{
	"มือถือ":       "Mobile",
	"แล็ปท็อป":     "Laptop",
	"อุปกรณ์เสริม": "Accessories",
	"หูฟัง":        "Headphones",
	"กล้อง":        "Camera",
}

// TranslateCategory returns the English label of a Thai category name, or name itself.
func TranslateCategory(name string) string {
	if label, ok := categoryLabels[name]; ok {
		return label
	}
	return name
}

func CategoryFromLabel(label string) string {
	for thai, english := range categoryLabels {
		if english == label {
			return thai
		}
	}
	return label
}
