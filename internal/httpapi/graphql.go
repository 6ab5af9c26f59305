package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"shopql.org/internal/audit"
	"shopql.org/internal/config"
	"shopql.org/internal/gqlerr"
	"shopql.org/internal/graph"
	"shopql.org/internal/ids"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

type graphqlRequest struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// GraphQL serves the operation endpoint. Responses are always HTTP 200;
// failures surface in the errors array with their status inside
// extensions, so clients handle one response shape.
func (a *API) GraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.OperationName) == "" {
		respondError(w, http.StatusBadRequest, "operationName is required")
		return
	}

	ctx := audit.WithRequestID(r.Context(), ids.New())
	tr := newHTTPTransport(w, r, a.cfg.Cookie)

	resp := a.exec.Execute(ctx, tr, req.OperationName, req.Variables)
	auditOperation(ctx, req.OperationName, resp)
	writeJSON(w, http.StatusOK, resp)
}

// auditOperation records auth lifecycle outcomes and authorization
// denials. Regular CRUD traffic stays out of the audit stream.
func auditOperation(ctx context.Context, op string, resp graph.Response) {
	var failure *gqlerr.Error
	if len(resp.Errors) > 0 {
		failure = resp.Errors[0]
	}

	switch op {
	case "register":
		if failure == nil {
			_ = audit.LogEvent(ctx, audit.EventRegister, nil)
		}
	case "login":
		if failure == nil {
			_ = audit.LogEvent(ctx, audit.EventLogin, nil)
		} else {
			_ = audit.LogEvent(ctx, audit.EventLoginFailed, map[string]any{"code": string(failure.Code)})
		}
	case "refresh":
		if failure == nil {
			_ = audit.LogEvent(ctx, audit.EventRefresh, nil)
		} else {
			_ = audit.LogEvent(ctx, audit.EventTokenInvalid, map[string]any{"code": string(failure.Code)})
		}
	case "logout":
		_ = audit.LogEvent(ctx, audit.EventLogout, nil)
	default:
		if failure != nil && (failure.Code == gqlerr.CodeUnauthenticated || failure.Code == gqlerr.CodeForbidden) {
			_ = audit.LogEvent(ctx, audit.EventAuthzDenied, map[string]any{
				"operation": op,
				"code":      string(failure.Code),
			})
		}
	}
}

// httpTransport adapts one HTTP exchange to the executor's transport
// contract: bearer extraction from the Authorization header and the
// refresh-token cookie lifecycle.
type httpTransport struct {
	w      http.ResponseWriter
	r      *http.Request
	cookie config.CookieConfig
}

func newHTTPTransport(w http.ResponseWriter, r *http.Request, cookie config.CookieConfig) *httpTransport {
	return &httpTransport{w: w, r: r, cookie: cookie}
}

func (t *httpTransport) BearerToken() (string, bool) {
	token, err := extractBearerToken(t.r.Header.Get(authHeader))
	if err != nil {
		return "", false
	}
	return token, true
}

func (t *httpTransport) RefreshToken() (string, bool) {
	c, err := t.r.Cookie(t.cookie.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (t *httpTransport) SetRefreshCookie(token string, maxAge time.Duration) {
	http.SetCookie(t.w, &http.Cookie{
		Name:     t.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   t.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (t *httpTransport) ClearRefreshCookie() {
	http.SetCookie(t.w, &http.Cookie{
		Name:     t.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
