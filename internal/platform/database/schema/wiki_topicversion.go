package schema

// WikiTopicVersionTable represents the 'wiki.topicversion' table
type WikiTopicVersionTable struct {
	Table             string
	ID                string
	TopicID           string
	NameAtTime        string
	AuthorID          string
	ContentRaw        string
	Reason            string
	CreatedAt         string
	NormalizedCreated string
}

// WikiTopicVersion is the schema definition for wiki.topicversion
var WikiTopicVersion = WikiTopicVersionTable{
	Table:             "wiki.topicversion",
	ID:                "id",
	TopicID:           "topicid",
	NameAtTime:        "nameattime",
	AuthorID:          "authorid",
	ContentRaw:        "contentraw",
	Reason:            "reason",
	CreatedAt:         "createdat",
	NormalizedCreated: "normalizedcreated",
}

func (t WikiTopicVersionTable) Columns() []string {
	return []string{
		t.ID, t.TopicID, t.NameAtTime, t.AuthorID, t.ContentRaw,
		t.Reason, t.CreatedAt, t.NormalizedCreated,
	}
}
