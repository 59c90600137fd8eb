package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/handler/http/response"
)

// decodeJSON writes a 400 and returns false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// actingEmployee resolves the employee a request acts for. Employees act
// only for themselves; reviewers may name anyone and default to themselves.
func actingEmployee(r *http.Request, requested string) (string, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return "", auth.ErrInvalidToken
	}
	if claims.Role.CanReview() {
		if requested != "" {
			return requested, nil
		}
		if claims.EmployeeID == "" {
			return "", auth.ErrEmployeeIDRequired
		}
		return claims.EmployeeID, nil
	}
	if claims.EmployeeID == "" {
		return "", auth.ErrEmployeeIDRequired
	}
	if requested != "" && requested != claims.EmployeeID {
		return "", auth.ErrNotSelf
	}
	return claims.EmployeeID, nil
}

// canView reports whether the caller may read data owned by employeeID.
func canView(r *http.Request, employeeID string) error {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return auth.ErrInvalidToken
	}
	if claims.Role.CanReview() || claims.EmployeeID == employeeID {
		return nil
	}
	return auth.ErrNotSelf
}

// actorID identifies the caller in audit fields.
func actorID(r *http.Request) string {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if claims.EmployeeID != "" {
		return claims.EmployeeID
	}
	return claims.UserID
}
