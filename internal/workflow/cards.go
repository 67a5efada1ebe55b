package workflow

// CardsResponse is what the card generation workflow answers with.
type CardsResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Cards []GeneratedCard `json:"cards"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

type GeneratedCard struct {
	Front    string `json:"front"`
	Back     string `json:"back,omitempty"`
	Category string `json:"category,omitempty"`
}
