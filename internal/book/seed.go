package book

// SeedData returns the fixed example books inserted by the seed operation.
func SeedData() []Fields {
	return []Fields{
		{
			Title:  "Node.js Textbook",
			Author: "Gildong Hong",
			ISBN:   "978-000000001",
			Year:   intPtr(2024),
		},
		{
			Title:  "JavaScript Deep Dive",
			Author: "Java Park",
			ISBN:   "978-000000002",
			Year:   intPtr(2023),
		},
		{
			Title:  "MongoDB Basics",
			Author: "Mongo Lee",
			ISBN:   "978-000000003",
			Year:   intPtr(2022),
		},
	}
}

func intPtr(v int) *int {
	return &v
}
