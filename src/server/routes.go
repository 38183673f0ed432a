package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/hexymap/hexy/src/engine"
	"github.com/hexymap/hexy/src/project_types"
	"github.com/hexymap/hexy/src/session"
	"github.com/hexymap/hexy/src/strava"
)

const (
	stateCookie = "oauth_state"
	stateTTL    = 10 * time.Minute
)

// athlete reads the session cookie. Missing or bad cookies are 401s.
func (s *Server) athlete(c *fiber.Ctx) (int64, error) {
	token := c.Cookies(session.CookieName)
	if token == "" {
		return 0, fiber.ErrUnauthorized
	}
	return s.sessions.Parse(token)
}

func (s *Server) index(c *fiber.Ctx) error {
	id, err := s.athlete(c)
	loggedIn := err == nil
	if !loggedIn {
		id = 0
	}
	return c.Render("index", fiber.Map{
		"LoggedIn": loggedIn,
		"ID":       id,
		"Groups":   s.mapCfg.Groups,
	})
}

func (s *Server) page(name, title string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Render(name, fiber.Map{"Title": title})
	}
}

func (s *Server) data(c *fiber.Ctx) error {
	id, err := s.athlete(c)
	if err != nil {
		return err
	}
	if cached, ok := s.cache.Get(id); ok {
		return c.JSON(cached)
	}

	ctx := c.UserContext()
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	token, err := s.accessToken(ctx, user)
	if err != nil {
		return err
	}
	responses, err := s.source.GetActivities(ctx, token)
	if err != nil {
		return err
	}
	data, err := engine.Build(ctx, engine.DecodeAll(responses), s.engine)
	if err != nil {
		return err
	}
	s.log.Info().
		Int64("athlete", id).
		Int("activities", len(responses)).
		Int("cells", len(data.Cells)).
		Msg("built map data")

	s.cache.Add(id, data)
	return c.JSON(data)
}

// accessToken returns a usable access token, refreshing and storing a new
// pair when the current one is about to expire.
func (s *Server) accessToken(ctx context.Context, user *project_types.User) (string, error) {
	if !user.TokenExpired(s.now()) {
		return user.AccessToken, nil
	}
	s.log.Info().Int64("athlete", user.ID).Msg("refreshing access token")

	token, err := s.source.GetToken(ctx, user.RefreshToken, strava.GrantRefresh)
	if err != nil {
		if revoked(err) {
			// the athlete has to log in again; the stored tokens are useless
			s.log.Warn().Int64("athlete", user.ID).Msg("refresh token rejected, forgetting user")
			s.cache.Remove(user.ID)
			if derr := s.store.DeleteUser(ctx, user.ID); derr != nil {
				return "", derr
			}
		}
		return "", err
	}
	refreshed := project_types.User{
		ID:           user.ID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = user.RefreshToken
	}
	if err := s.store.SaveUser(ctx, refreshed); err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

func (s *Server) auth(c *fiber.Ctx) error {
	state := uuid.NewString()
	url, err := s.source.OAuthURL(state)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		Expires:  s.now().Add(stateTTL),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(url, fiber.StatusSeeOther)
}

func (s *Server) callback(c *fiber.Ctx) error {
	payload := struct {
		Code  string `query:"code" validate:"required"`
		State string `query:"state"`
	}{}
	if err := c.QueryParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing code")
	}
	if want := c.Cookies(stateCookie); want == "" || want != payload.State {
		return fiber.NewError(fiber.StatusBadRequest, "oauth state mismatch")
	}
	c.ClearCookie(stateCookie)

	ctx := c.UserContext()
	token, err := s.source.GetToken(ctx, payload.Code, strava.GrantAuth)
	if err != nil {
		return err
	}
	if token.Athlete == nil {
		return &strava.APIError{Op: "token", Err: errors.New("response has no athlete")}
	}
	id := token.Athlete.ID
	if err := s.store.SaveUser(ctx, project_types.User{
		ID:           id,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
	}); err != nil {
		return err
	}

	signed, err := s.sessions.Issue(id)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  s.now().Add(s.sessions.TTL()),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	s.cache.Remove(id)
	s.log.Info().Int64("athlete", id).Msg("logged in")

	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) logout(c *fiber.Ctx) error {
	if id, err := s.athlete(c); err == nil {
		s.cache.Remove(id)
	}
	c.ClearCookie(session.CookieName)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// revoked reports whether Strava refused a refresh token outright, as it does
// after the athlete removes the app's access.
func revoked(err error) bool {
	var apiErr *strava.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == fiber.StatusBadRequest || apiErr.Status == fiber.StatusUnauthorized
}
