package domain

// Title is a row retained from the titles source.
type Title struct {
	ID   string
	Name string
	Type string
}

// Participation links a person to a title under a role category.
type Participation struct {
	TitleID  string
	PersonID string
	Category string
}

// Person is a row retained from the persons source.
type Person struct {
	ID   string
	Name string
}
