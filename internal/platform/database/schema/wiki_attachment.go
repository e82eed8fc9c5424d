package schema

// WikiAttachmentTable represents the 'wiki.attachment' table
type WikiAttachmentTable struct {
	Table     string
	ID        string
	TopicID   string
	Filename  string
	CreatedAt string
	OwnerID   string
}

// WikiAttachment is the schema definition for wiki.attachment
var WikiAttachment = WikiAttachmentTable{
	Table:     "wiki.attachment",
	ID:        "id",
	TopicID:   "topicid",
	Filename:  "filename",
	CreatedAt: "createdat",
	OwnerID:   "ownerid",
}
