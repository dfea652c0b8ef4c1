package middleware

import (
	"net/http"
	"strings"
)

const methodField = "_method"

// MethodOverride lets HTML forms issue PUT and DELETE by posting a _method
// field. It must run before routing.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost &&
			strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			switch m := strings.ToUpper(r.PostFormValue(methodField)); m {
			case http.MethodPut, http.MethodPatch, http.MethodDelete:
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}
