package schema

// WikiTopicReferenceTable represents the 'wiki.topicreference' edge table.
// Edges are directed: source references target.
type WikiTopicReferenceTable struct {
	Table    string
	SourceID string
	TargetID string
}

// WikiTopicReference is the schema definition for wiki.topicreference
var WikiTopicReference = WikiTopicReferenceTable{
	Table:    "wiki.topicreference",
	SourceID: "sourceid",
	TargetID: "targetid",
}

// WikiNascentReferenceTable represents the 'wiki.nascentreference' edge table.
// Edges point from a live topic to a nascent placeholder it links to.
type WikiNascentReferenceTable struct {
	Table     string
	SourceID  string
	NascentID string
}

// WikiNascentReference is the schema definition for wiki.nascentreference
var WikiNascentReference = WikiNascentReferenceTable{
	Table:     "wiki.nascentreference",
	SourceID:  "sourceid",
	NascentID: "nascentid",
}
