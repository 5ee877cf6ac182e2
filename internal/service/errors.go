package service

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrBeerNotFound         = errors.New("beer not found")
	ErrRatingNotFound       = errors.New("rating not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username already exists")
	ErrPermissionDenied     = errors.New("you do not have permission to perform this action")
	ErrNotMember            = errors.New("you are not a member of this room")
	ErrRoomNotFinished      = errors.New("room has not finished yet")
	ErrInternalServer       = errors.New("internal server error")
)

// Validation codes reported per field.
const (
	CodeRoomAlreadyFull         = "room_already_full"
	CodeRoomPasswordInvalid     = "room_password_invalid"
	CodeRoomPasswordNotRequired = "room_password_not_required"
	CodeRoomNameRestricted      = "room_name_restricted"
	CodeRoomNameInvalid         = "room_name_invalid"
	CodeRoomNameTaken           = "room_name_taken"
	CodeRoomHostAlreadyHosting  = "room_host_already_hosting"
	CodeRoomSlotsInvalid        = "room_slots_invalid"
	CodeRoomStateInvalid        = "room_state_invalid"
	CodeRoomStateTransition     = "room_state_transition_invalid"
	CodeUserNotInRoom           = "user_not_in_room"
	CodeBeerAlreadyInRoom       = "beer_already_in_room"
	CodeBeerNotInRoom           = "beer_not_in_room"
	CodeNoteInvalid             = "note_invalid"
	CodeRatingFormInvalid       = "rating_form_invalid"
	CodeRatingLocked            = "rating_locked"
)

// ValidationError is a field-attributed, machine-readable rejection.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Code)
}

func newValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// HasCode reports whether err is a validation error with the given code.
func HasCode(err error, code string) bool {
	ve, ok := AsValidationError(err)
	return ok && ve.Code == code
}
