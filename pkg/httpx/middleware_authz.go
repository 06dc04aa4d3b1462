package httpx

import (
	"net/http"
	"strings"
)

// RequireAnyScope lets the request through when the caller holds at least
// one of the listed scopes.
func RequireAnyScope(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, s := range required {
		want[s] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, s := range scopesFromCtx(r.Context()) {
				if _, ok := want[s]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeBearerScopeError(w, required...)
		})
	}
}

// RequireSubjectOrScope lets the request through when the path value param
// names the caller, or when the caller holds one of scopes.
func RequireSubjectOrScope(param string, scopes ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sub := UserIDFrom(r.Context()); sub != "" && sub == r.PathValue(param) {
				next.ServeHTTP(w, r)
				return
			}
			for _, s := range scopes {
				if HasScope(r.Context(), s) {
					next.ServeHTTP(w, r)
					return
				}
			}
			WriteJSON(w, http.StatusForbidden, map[string]string{
				"error":             "forbidden",
				"error_description": "you are not allowed to act on this resource",
			})
		})
	}
}

// RFC 6750 insufficient_scope response.
func writeBearerScopeError(w http.ResponseWriter, required ...string) {
	scope := strings.Join(required, " ")
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+scope+`"`)
	WriteJSON(w, http.StatusForbidden, map[string]string{
		"error":             "insufficient_scope",
		"error_description": "requires one of: " + scope,
	})
}
