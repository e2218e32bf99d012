package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	TaskRole   string `json:"task_role"`
	WorkerType string `json:"worker_type"`
	Password   string `json:"password"`
	UseHashid  bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// DefaultPhoneRegion is used to parse phone numbers that carry no country
// prefix.
var DefaultPhoneRegion = "US"

type RegisterUserHandler struct {
	repo RepositoryManager
	// OnResponse is invoked with the created record once the
	// registration transaction commits.
	OnResponse func(*User)
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Role != "" && !IsValidRole(event.Role) {
		return goerrors.New("unknown role", goerrors.CategoryValidation).
			WithTextCode("INVALID_ROLE").
			WithMetadata(map[string]any{"role": event.Role})
	}

	phone, err := normalizePhone(event.Phone)
	if err != nil {
		return err
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = NormalizeEmail(event.Email)
		user.Phone = phone
		user.Name = event.Name
		user.Role = UserRole(event.Role)
		user.TaskRole = event.TaskRole
		user.WorkerType = event.WorkerType
		if event.UseHashid {
			if id, err := hashid.NewUUID(user.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if h.OnResponse != nil {
		h.OnResponse(user)
	}

	return nil
}

// normalizePhone formats the phone in E164 when present. Empty values are
// allowed, invalid ones are rejected.
func normalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	parsed, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number").
			WithTextCode("INVALID_PHONE").
			WithMetadata(map[string]any{"phone": raw})
	}

	if !phonenumbers.IsValidNumber(parsed) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithTextCode("INVALID_PHONE").
			WithMetadata(map[string]any{"phone": raw})
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
