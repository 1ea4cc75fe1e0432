package rpc

import "github.com/oasislabs/quorum-functions/errors"

// Error is the body of a failed response. With the TextEncoder only
// the description is written
type Error struct {
	ErrorCode   int    `json:"errorCode"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// NewError creates the response body for err
func NewError(err errors.Err) Error {
	code := err.Code()
	return Error{
		ErrorCode:   code.Code(),
		Category:    string(code.Category()),
		Description: code.Desc(),
	}
}

func (e Error) Error() string {
	return e.Description
}
