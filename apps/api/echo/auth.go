package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/account"
)

var (
	contextTokenKey   = "sessionToken"
	contextSessionKey = "session"
)

// Claims represents the authorization claims transmitted via the session cookie.
// The token ID references the server-side account.Session.
type Claims struct {
	jwt.StandardClaims
	Role account.Role `json:"role,omitempty"`
}

// sessionAuth issues and checks the signed session cookie.
type sessionAuth struct {
	conf      *core.Config
	svc       *account.Service
	jwtConfig middleware.JWTConfig
}

func newSessionAuth(conf *core.Config, svc *account.Service) *sessionAuth {
	return &sessionAuth{
		conf: conf,
		svc:  svc,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
			TokenLookup:   "cookie:" + conf.Server.SessionCookieName,
		},
	}
}

func (a *sessionAuth) sessionClaims(sess account.Session) *Claims {
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        sess.ID,
			Issuer:    a.conf.AppName,
			Subject:   sess.UserID,
			IssuedAt:  sess.CreatedAt.Unix(),
			ExpiresAt: sess.CreatedAt.Add(a.conf.Server.SessionTTL).Unix(),
		},
		Role: sess.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the session Claims.
func (a *sessionAuth) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// login starts a session for `sess` and sets the session cookie.
func (a *sessionAuth) login(ctx echo.Context, sess account.Session) (account.Session, error) {
	sess, err := a.svc.StartSession(ctx.Request().Context(), sess)
	if err != nil {
		return account.Session{}, errors.Wrap(err, "starting session")
	}
	token, err := a.GenerateToken(a.sessionClaims(sess))
	if err != nil {
		return account.Session{}, errors.Wrap(err, "generating token")
	}
	ctx.SetCookie(&http.Cookie{
		Name:     a.conf.Server.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.CreatedAt.Add(a.conf.Server.SessionTTL),
		HttpOnly: true,
		Secure:   a.conf.Server.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	ctx.Set(contextSessionKey, sess)
	return sess, nil
}

// logout ends the current session, if any, and clears the cookie.
func (a *sessionAuth) logout(ctx echo.Context) error {
	if sess, ok := ctx.Get(contextSessionKey).(account.Session); ok {
		if err := a.svc.EndSession(ctx.Request().Context(), sess.ID); err != nil {
			return errors.Wrap(err, "ending session")
		}
	}
	ctx.SetCookie(&http.Cookie{
		Name:     a.conf.Server.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.conf.Server.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// required returns the middlewares rejecting requests without a live session.
func (a *sessionAuth) required() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{middleware.JWTWithConfig(a.jwtConfig), a.loadSession}
}

// withRoles returns the middlewares requiring a live session having one of `roles`.
func (a *sessionAuth) withRoles(roles ...account.Role) []echo.MiddlewareFunc {
	return append(a.required(), roleMiddleware(roles...))
}

func (a *sessionAuth) loadSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		sess, err := a.svc.GetSession(ctx.Request().Context(), claims.Id)
		if err != nil {
			return errors.Wrap(err, "getting session")
		}
		ctx.Set(contextSessionKey, sess)
		return next(ctx)
	}
}

// optional loads the session when the cookie holds a valid one, and lets the request through otherwise.
func (a *sessionAuth) optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(a.conf.Server.SessionCookieName)
		if err != nil || cookie.Value == "" {
			return next(ctx)
		}
		claims := new(Claims)
		token, err := jwt.ParseWithClaims(cookie.Value, claims, a.keyFunc)
		if err != nil || !token.Valid {
			return next(ctx)
		}
		if sess, err := a.svc.GetSession(ctx.Request().Context(), claims.Id); err == nil {
			ctx.Set(contextSessionKey, sess)
		}
		return next(ctx)
	}
}

func (a *sessionAuth) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != a.jwtConfig.SigningMethod {
		return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
	}
	return a.jwtConfig.SigningKey, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextSession(ctx echo.Context) (account.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(account.Session); ok && sess.LoggedIn {
		return sess, nil
	}
	return account.Session{}, errUnauthorized
}

// contextSession returns the session of the request, or an anonymous one.
func contextSession(ctx echo.Context) account.Session {
	sess, _ := getContextSession(ctx)
	return sess
}
