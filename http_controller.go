package auth

import (
	"github.com/gofiber/fiber/v2"
)

// UserControllerRoutes are the route paths relative to the group prefix
type UserControllerRoutes struct {
	Prefix         string
	Signup         string
	ConfirmEmail   string
	Login          string
	Logout         string
	ForgotPassword string
	ResetPassword  string
	Reactivate     string
	UpdatePassword string
	UpdateProfile  string
	Deactivate     string
	Me             string
	List           string
}

type UserController struct {
	Logger    Logger
	Lifecycle *Lifecycle
	Auther    *RouteAuthenticator
	Repo      RepositoryManager
	Routes    *UserControllerRoutes
}

type UserControllerOption func(*UserController) *UserController

func WithControllerLogger(logger Logger) UserControllerOption {
	return func(uc *UserController) *UserController {
		if logger != nil {
			uc.Logger = logger
		}
		return uc
	}
}

func WithControllerRoutes(routes *UserControllerRoutes) UserControllerOption {
	return func(uc *UserController) *UserController {
		if routes != nil {
			uc.Routes = routes
		}
		return uc
	}
}

func NewUserController(lifecycle *Lifecycle, auther *RouteAuthenticator, repo RepositoryManager, opts ...UserControllerOption) *UserController {
	c := &UserController{
		Logger:    defLogger{},
		Lifecycle: lifecycle,
		Auther:    auther,
		Repo:      repo,
		Routes: &UserControllerRoutes{
			Prefix:         "/api/v1/users",
			Signup:         "/signup",
			ConfirmEmail:   "/confirmEmail/:token",
			Login:          "/login",
			Logout:         "/logout",
			ForgotPassword: "/forgotPassword",
			ResetPassword:  "/resetPassword/:token",
			Reactivate:     "/reActivateAccount",
			UpdatePassword: "/updatePassword",
			UpdateProfile:  "/updateProfileInfo",
			Deactivate:     "/deleteAccount",
			Me:             "/me",
			List:           "/",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Lifecycle == nil {
		panic("Missing Lifecycle in user controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in user controller...")
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in user controller...")
	}

	return c
}

// RegisterRoutes mounts the account routes on app
func RegisterRoutes(app fiber.Router, controller *UserController) {
	r := controller.Routes
	group := app.Group(r.Prefix)

	group.Post(r.Signup, controller.Signup)
	group.Patch(r.ConfirmEmail, controller.ConfirmEmail)
	group.Post(r.Login, controller.Login)
	group.Get(r.Logout, controller.Logout)
	group.Post(r.ForgotPassword, controller.ForgotPassword)
	group.Patch(r.ResetPassword, controller.ResetPassword)
	group.Post(r.Reactivate, controller.Reactivate)

	protect := controller.Auther.Protect()

	group.Patch(r.UpdatePassword, protect, controller.UpdatePassword)
	group.Patch(r.UpdateProfile, protect, controller.UpdateProfile)
	group.Delete(r.Deactivate, protect, controller.Deactivate)
	group.Get(r.Me, protect, controller.Me)
	group.Get(r.List, protect, controller.Auther.RestrictTo(RoleAdmin), controller.List)
}

func (uc *UserController) Signup(c *fiber.Ctx) error {
	payload := SignupMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return uc.fail(c, NewBadRequestError("failed to parse request body"))
	}

	pending, err := uc.Lifecycle.Signup(c.UserContext(), payload)
	if err != nil {
		return uc.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Your email confirmation token has been sent to the email",
		"data":    pending,
	})
}

func (uc *UserController) ConfirmEmail(c *fiber.Ctx) error {
	result, err := uc.Lifecycle.ConfirmEmail(c.UserContext(), ConfirmEmailMessage{
		Token: c.Params("token"),
	})
	if err != nil {
		return uc.fail(c, err)
	}
	return uc.sendToken(c, result, "")
}

func (uc *UserController) Login(c *fiber.Ctx) error {
	payload := LoginMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return uc.fail(c, NewBadRequestError("failed to parse request body"))
	}

	result, err := uc.Lifecycle.Login(c.UserContext(), payload)
	if err != nil {
		return uc.fail(c, err)
	}
	return uc.sendToken(c, result, "")
}

func (uc *UserController) Logout(c *fiber.Ctx) error {
	uc.Auther.ClearTokenCookie(c)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "success",
	})
}

func (uc *UserController) ForgotPassword(c *fiber.Ctx) error {
	payload := ForgotPasswordMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return uc.fail(c, NewBadRequestError("failed to parse request body"))
	}

	if err := uc.Lifecycle.ForgotPassword(c.UserContext(), payload); err != nil {
		return uc.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Your reset token has been sent to the email",
	})
}

func (uc *UserController) ResetPassword(c *fiber.Ctx) error {
	payload := ResetPasswordMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return uc.fail(c, NewBadRequestError("failed to parse request body"))
	}
	payload.Token = c.Params("token")

	result, err := uc.Lifecycle.ResetPassword(c.UserContext(), payload)
	if err != nil {
		return uc.fail(c, err)
	}
	return uc.sendToken(c, result, "")
}

func (uc *UserController) Reactivate(c *fiber.Ctx) error {
	payload := ReactivateMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return uc.fail(c, NewBadRequestError("failed to parse request body"))
	}

	result, err := uc.Lifecycle.Reactivate(c.UserContext(), payload)
	if err != nil {
		return uc.fail(c, err)
	}
	return uc.sendToken(c, result, "Your account was reactivated successfully")
}

func (uc *UserController) UpdatePassword(c *fiber.Ctx) error {
	account, _ := CurrentAccount(c)

	payload := UpdatePasswordMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return uc.fail(c, NewBadRequestError("failed to parse request body"))
	}

	result, err := uc.Lifecycle.UpdatePassword(c.UserContext(), account, payload)
	if err != nil {
		return uc.fail(c, err)
	}
	return uc.sendToken(c, result, "")
}

func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	account, _ := CurrentAccount(c)

	payload := UpdateProfileMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return uc.fail(c, NewBadRequestError("failed to parse request body"))
	}

	updated, err := uc.Lifecycle.UpdateProfile(c.UserContext(), account, payload)
	if err != nil {
		return uc.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"user": updated,
		},
	})
}

func (uc *UserController) Deactivate(c *fiber.Ctx) error {
	account, _ := CurrentAccount(c)

	payload := DeactivateMessage{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return uc.fail(c, NewBadRequestError("failed to parse request body"))
		}
	}

	if err := uc.Lifecycle.Deactivate(c.UserContext(), account, payload); err != nil {
		return uc.fail(c, err)
	}

	uc.Auther.ClearTokenCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func (uc *UserController) Me(c *fiber.Ctx) error {
	account, _ := CurrentAccount(c)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"user": account,
		},
	})
}

func (uc *UserController) List(c *fiber.Ctx) error {
	accounts, err := uc.Repo.Accounts().ListActive(c.UserContext())
	if err != nil {
		return uc.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"results": len(accounts),
		"data": fiber.Map{
			"users": accounts,
		},
	})
}

func (uc *UserController) sendToken(c *fiber.Ctx, result *AuthResult, message string) error {
	uc.Auther.SetTokenCookie(c, result.Token)

	body := fiber.Map{
		"status": "success",
		"token":  result.Token,
	}
	if message != "" {
		body["message"] = message
	}

	return c.Status(fiber.StatusOK).JSON(body)
}

func (uc *UserController) fail(c *fiber.Ctx, err error) error {
	return WriteError(c, uc.Logger, err)
}
