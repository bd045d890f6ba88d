package request

// MoveRequest is the request body for submitting a move
type MoveRequest struct {
	Move string `json:"move"`
}
