package schema

// WikiTopicTable represents the 'wiki.topic' table
type WikiTopicTable struct {
	Table           string
	ID              string
	Name            string
	NormalizedName  string
	ContentRaw      string
	ContentRendered string
	CreatedAt       string
	ModifiedAt      string
	AuthorID        string
	Locked          string
	Restricted      string
	Deleted         string
	Reason          string
}

// WikiTopic is the schema definition for wiki.topic
var WikiTopic = WikiTopicTable{
	Table:           "wiki.topic",
	ID:              "id",
	Name:            "name",
	NormalizedName:  "normalizedname",
	ContentRaw:      "contentraw",
	ContentRendered: "contentrendered",
	CreatedAt:       "createdat",
	ModifiedAt:      "modifiedat",
	AuthorID:        "authorid",
	Locked:          "locked",
	Restricted:      "restricted",
	Deleted:         "deleted",
	Reason:          "reason",
}

func (t WikiTopicTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.NormalizedName, t.ContentRaw, t.ContentRendered,
		t.CreatedAt, t.ModifiedAt, t.AuthorID, t.Locked, t.Restricted,
		t.Deleted, t.Reason,
	}
}
