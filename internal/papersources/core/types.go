package core

// SearchRequest is the body of a CORE v3 works search.
type SearchRequest struct {
	Query  string `json:"q"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// errorResponse is the error body CORE returns on failures.
type errorResponse struct {
	Message string `json:"message"`
}
