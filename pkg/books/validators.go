package books

type TopicInput struct {
	Name        string `json:"name" mod:"trim" validate:"required,max=200"`
	Description string `json:"description" mod:"trim" validate:"max=2000"`
}

type AddTopicsPayload struct {
	Topics []TopicInput `json:"topics" mod:"dive" validate:"required,min=1,dive"`
}
