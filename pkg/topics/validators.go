package topics

type ListTopicsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"text" json:"text,omitempty" mod:"trim,lcase"`
}

type CreateTopicPayload struct {
	Name        string `json:"name" mod:"trim"`
	Description string `json:"description" mod:"trim"`
}
