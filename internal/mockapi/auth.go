package mockapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/etech-storefront/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) login(c *fiber.Ctx) error {
	var req domain.Credentials
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "error parsing body")
	}

	s.mu.Lock()
	id, ok := s.emails[strings.ToLower(req.Email)]
	var rec *userRecord
	if ok {
		rec = s.users[id]
	}
	s.mu.Unlock()

	if rec == nil || bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(req.Password)) != nil {
		return fail(c, fiber.StatusUnauthorized, "invalid email or password")
	}

	token, err := s.IssueToken(rec.user.ID, rec.user.Role)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to issue token")
	}

	return data(c, fiber.StatusOK, domain.AuthResult{Token: token, User: rec.user})
}

func (s *Server) register(c *fiber.Ctx) error {
	var req domain.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "error parsing body")
	}
	if req.Email == "" || len(req.Password) < 8 {
		return fail(c, fiber.StatusBadRequest, "email and a password of at least 8 characters are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to hash password")
	}

	s.mu.Lock()
	if _, exists := s.emails[strings.ToLower(req.Email)]; exists {
		s.mu.Unlock()
		return fail(c, fiber.StatusConflict, ErrUserAlreadyExists.Error())
	}
	rec := s.insertUserLocked(domain.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      domain.RoleUser,
	}, hash)
	user := rec.user
	s.mu.Unlock()

	token, err := s.IssueToken(user.ID, user.Role)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to issue token")
	}

	return data(c, fiber.StatusCreated, domain.AuthResult{Token: token, User: user})
}

func (s *Server) me(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID(c)]
	if !ok {
		return fail(c, fiber.StatusNotFound, ErrUserNotFound.Error())
	}
	return data(c, fiber.StatusOK, rec.user)
}

func (s *Server) updateProfile(c *fiber.Ctx) error {
	var patch domain.UserPatch
	if err := c.BodyParser(&patch); err != nil {
		return fail(c, fiber.StatusBadRequest, "error parsing body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID(c)]
	if !ok {
		return fail(c, fiber.StatusNotFound, ErrUserNotFound.Error())
	}

	rec.user = rec.user.Apply(patch)
	rec.updatedAt = s.now()
	return data(c, fiber.StatusOK, rec.user)
}
