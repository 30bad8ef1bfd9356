package api

import (
	"errors"
	"strings"

	"github.com/fathima-sithara/snip/internal/app"
	"github.com/fathima-sithara/snip/internal/auth"
	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	app     *app.App
	tokens  *auth.TokenManager
	revoked Revocations
	log     *zap.Logger
}

func NewHandler(a *app.App, tokens *auth.TokenManager, revoked Revocations, log *zap.Logger) *Handler {
	return &Handler{app: a, tokens: tokens, revoked: revoked, log: log}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createGroupReq struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type sendReq struct {
	Text string `json:"text"`
}

func (h *Handler) issue(c *fiber.Ctx, status int, userID, email string, extra fiber.Map) error {
	token, claims, err := h.tokens.Issue(userID, email)
	if err != nil {
		h.log.Error("token issue failed", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	body := fiber.Map{
		"token":      token,
		"user_id":    userID,
		"expires_at": claims.ExpiresAt.Unix(),
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func (h *Handler) SignUp(c *fiber.Ctx) error {
	var req app.SignupForm
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	p, err := h.app.SignUp(c.UserContext(), req)
	if err != nil && p == nil {
		return writeError(c, err)
	}
	extra := fiber.Map{"profile": p}
	if err != nil {
		extra["warning"] = errs.UserMessage(err)
	}
	return h.issue(c, fiber.StatusCreated, p.UserID, p.Email, extra)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	id, err := h.app.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return h.issue(c, fiber.StatusOK, id, strings.ToLower(strings.TrimSpace(req.Email)), nil)
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	if h.revoked != nil {
		if err := h.revoked.Revoke(c.UserContext(), claimsOf(c)); err != nil {
			return writeError(c, err)
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me returns the caller's profile, creating it on first use.
func (h *Handler) Me(c *fiber.Ctx) error {
	email := ""
	if cl := claimsOf(c); cl != nil {
		email = cl.Email
	}
	p, err := h.app.EnsureProfile(c.UserContext(), userID(c), email)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	rows, err := h.app.Users(c.UserContext(), userID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"users": rows})
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	p, err := h.app.Profile(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if p == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	return c.JSON(p)
}

func (h *Handler) ListGroups(c *fiber.Ctx) error {
	rows, err := h.app.Groups(c.UserContext(), userID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"groups": rows})
}

func (h *Handler) CreateGroup(c *fiber.Ctx) error {
	var req createGroupReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	id, err := h.app.CreateGroup(c.UserContext(), userID(c), req.Name, req.Members)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"group_id": id})
}

func (h *Handler) SendMessage(c *fiber.Ctx) error {
	var req sendReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	m, err := h.app.Send(c.UserContext(), userID(c), c.Params("peer"), req.Text)
	if err != nil {
		if errors.Is(err, app.ErrEmptyMessage) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message text is empty"})
		}
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}
