package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/view"
)

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	Auth         *service.AuthService
	CookieSecure bool
	Log          *logrus.Logger
}

func NewAuthHandler(auth *service.AuthService, cookieSecure bool, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, CookieSecure: cookieSecure, Log: log}
}

type registerForm struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type loginForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Next     string `form:"next" json:"next"`
}

// RegisterForm shows the registration page.
func (h *AuthHandler) RegisterForm(c echo.Context) error {
	return render(c, http.StatusOK, "register", echo.Map{"Title": "Register", "Form": registerForm{}})
}

// Register creates the account and sends the user to the login page.
func (h *AuthHandler) Register(c echo.Context) error {
	var f registerForm
	if err := c.Bind(&f); err != nil {
		return errorPage(c, http.StatusBadRequest, "invalid form")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Auth.Register(ctx, f.Username, f.Email, f.Password)
	if err != nil {
		if status, ok := formStatus(err); ok {
			if wantsJSON(c) {
				return c.JSON(status, echo.Map{"error": formMessage(err)})
			}
			f.Password = ""
			return render(c, status, "register", echo.Map{"Title": "Register", "Form": f, "Error": formMessage(err)})
		}
		return failure(c, h.Log, err)
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, echo.Map{"id": u.ID, "username": u.Username, "email": u.Email, "role": u.Role})
	}
	view.SetFlash(c, view.FlashSuccess, "Registration successful. Please log in.")
	return c.Redirect(http.StatusSeeOther, "/login")
}

// LoginForm shows the login page. ?next= is carried through the form.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	if middleware.CurrentUser(c) != nil {
		return c.Redirect(http.StatusSeeOther, safeNext(c.QueryParam("next")))
	}
	return render(c, http.StatusOK, "login", echo.Map{
		"Title": "Log in",
		"Form":  loginForm{},
		"Next":  safeNext(c.QueryParam("next")),
	})
}

// Login opens a session. Browsers get the session cookie and a redirect;
// JSON clients get the token to send as a Bearer header.
func (h *AuthHandler) Login(c echo.Context) error {
	var f loginForm
	if err := c.Bind(&f); err != nil {
		return errorPage(c, http.StatusBadRequest, "invalid form")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Auth.Authenticate(ctx, f.Email, f.Password)
	if err != nil {
		if status, ok := formStatus(err); ok {
			if wantsJSON(c) {
				return c.JSON(status, echo.Map{"error": formMessage(err)})
			}
			f.Password = ""
			return render(c, status, "login", echo.Map{
				"Title": "Log in", "Form": f, "Next": safeNext(f.Next), "Error": formMessage(err),
			})
		}
		return failure(c, h.Log, err)
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{
			"token":   s.Token,
			"expires": s.ExpiresAt,
			"user":    echo.Map{"id": s.User.ID, "username": s.User.Username, "role": s.User.Role},
		})
	}
	middleware.SetSessionCookie(c, s.Token, s.ExpiresAt, h.CookieSecure)
	view.SetFlash(c, view.FlashSuccess, "Welcome back, "+s.User.Username+"!")
	return c.Redirect(http.StatusSeeOther, safeNext(f.Next))
}

// Logout revokes the session and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	tok, _ := c.Get(middleware.CtxToken).(string)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Auth.Logout(ctx, tok); err != nil {
		h.Log.WithError(err).Warn("logout: revoke failed")
	}
	middleware.ClearSessionCookie(c, h.CookieSecure)
	view.SetFlash(c, view.FlashInfo, "You have been logged out.")
	return c.Redirect(http.StatusSeeOther, "/")
}
