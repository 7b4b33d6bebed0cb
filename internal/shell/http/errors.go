package http

import (
	"encoding/json"
	"net/http"
)

// ErrorObject represents a simplified JSON:API error object
type ErrorObject struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// ErrorResponse is the top-level JSON:API error response
type ErrorResponse struct {
	Errors []ErrorObject `json:"errors"`
}

// respondWithErrors sends JSON:API errors
func respondWithErrors(w http.ResponseWriter, statusCode int, errors []ErrorObject) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	for i := range errors {
		if errors[i].Status == "" {
			errors[i].Status = http.StatusText(statusCode)
		}
	}

	json.NewEncoder(w).Encode(ErrorResponse{Errors: errors})
}

func errorNotFound(resourceType, id string) ErrorObject {
	return ErrorObject{
		Status: "404",
		Title:  resourceType + " Not Found",
		Detail: "The " + resourceType + " with ID '" + id + "' could not be found",
	}
}

func errorExportInProgress() ErrorObject {
	return ErrorObject{
		Status: "409",
		Title:  "Export In Progress",
		Detail: "Another export is currently running; try again once it finishes",
	}
}

func errorInvalidField(field, reason string) ErrorObject {
	return ErrorObject{
		Status: "400",
		Title:  "Invalid Field",
		Detail: "The field '" + field + "' is invalid: " + reason,
	}
}

func errorInternalServer() ErrorObject {
	return ErrorObject{
		Status: "500",
		Title:  "Internal Server Error",
		Detail: "An unexpected error occurred while processing your request",
	}
}
