package convertkit

// Sequence is an automated email sequence (the API calls these courses).
type Sequence struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type listSequencesResponse struct {
	Courses []Sequence `json:"courses"`
}

type tagSubscribeRequest struct {
	APISecret string `json:"api_secret"`
	Email     string `json:"email"`
}

type cancelPendingRequest struct {
	APISecret string `json:"api_secret"`
	Email     string `json:"email"`
}

type cancelPendingResponse struct {
	Cancelled int `json:"cancelled"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
