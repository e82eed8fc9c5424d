package schema

// WikiNascentTopicTable represents the 'wiki.nascenttopic' table
type WikiNascentTopicTable struct {
	Table          string
	ID             string
	Name           string
	NormalizedName string
	CreatedAt      string
	AuthorID       string
}

// WikiNascentTopic is the schema definition for wiki.nascenttopic
var WikiNascentTopic = WikiNascentTopicTable{
	Table:          "wiki.nascenttopic",
	ID:             "id",
	Name:           "name",
	NormalizedName: "normalizedname",
	CreatedAt:      "createdat",
	AuthorID:       "authorid",
}
