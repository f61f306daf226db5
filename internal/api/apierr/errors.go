package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/coveytown-go/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeTownNotFound        = "TOWN_NOT_FOUND"
	CodeInvalidPassword     = "INVALID_PASSWORD"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodePlayerAlreadyInTown = "PLAYER_ALREADY_IN_TOWN"
	CodeAreaInvalid         = "AREA_INVALID"
	CodeAreaLabelTaken      = "AREA_LABEL_TAKEN"
	CodeAreaOverlaps        = "AREA_OVERLAPS"
	CodeChatNotFound        = "CHAT_NOT_FOUND"
	CodeNotChatMember       = "NOT_CHAT_MEMBER"
	CodeGlobalChat          = "GLOBAL_CHAT_IMMUTABLE"
	CodeRateLimited         = "RATE_LIMITED"
	CodeVideoUnavailable    = "VIDEO_UNAVAILABLE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrTownNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeTownNotFound, "Town not found"}}
	case errors.Is(err, model.ErrInvalidTownPassword):
		return &httpError{http.StatusForbidden, APIError{CodeInvalidPassword, "Invalid town update password"}}
	case errors.Is(err, model.ErrEmptyFriendlyName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Friendly name must not be empty"}}
	case errors.Is(err, model.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid session token"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrPlayerAlreadyInTown):
		return &httpError{http.StatusConflict, APIError{CodePlayerAlreadyInTown, "Player already in town"}}
	case errors.Is(err, model.ErrReservedPlayerID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Player id is reserved"}}
	case errors.Is(err, model.ErrEmptyUserName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "User name must not be empty"}}
	case errors.Is(err, model.ErrAreaLabelEmpty):
		return &httpError{http.StatusBadRequest, APIError{CodeAreaInvalid, "Conversation area label must not be empty"}}
	case errors.Is(err, model.ErrAreaTopicEmpty):
		return &httpError{http.StatusBadRequest, APIError{CodeAreaInvalid, "Conversation area topic must not be empty"}}
	case errors.Is(err, model.ErrAreaLabelTaken):
		return &httpError{http.StatusConflict, APIError{CodeAreaLabelTaken, "Conversation area label already in use"}}
	case errors.Is(err, model.ErrAreaOverlaps):
		return &httpError{http.StatusConflict, APIError{CodeAreaOverlaps, "Conversation area overlaps an existing area"}}
	case errors.Is(err, model.ErrChatNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeChatNotFound, "Chat not found"}}
	case errors.Is(err, model.ErrNotChatMember):
		return &httpError{http.StatusForbidden, APIError{CodeNotChatMember, "Not a member of this chat"}}
	case errors.Is(err, model.ErrEmptyChatName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Chat name must not be empty"}}
	case errors.Is(err, model.ErrGlobalChatImmutable):
		return &httpError{http.StatusForbidden, APIError{CodeGlobalChat, "The global chat cannot be renamed"}}
	case errors.Is(err, model.ErrRateLimited):
		return &httpError{http.StatusTooManyRequests, APIError{CodeRateLimited, "Too many requests"}}
	case errors.Is(err, model.ErrVideoTokenUnavailable):
		return &httpError{http.StatusBadGateway, APIError{CodeVideoUnavailable, "Video service unavailable"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
