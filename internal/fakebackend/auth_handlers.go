package fakebackend

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/bluewater-portal/apimodel"
	"github.com/jrsteele09/bluewater-portal/internal/utils"
	"github.com/jrsteele09/bluewater-portal/users"
)

const tokenTypeBearer = "bearer"

var validate = validator.New(validator.WithRequiredStructEnabled())

func (b *Backend) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req apimodel.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := b.users.GetByEmail(req.Email)
	if err != nil || !users.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	resp, err := b.issueTokens(user)
	if err != nil {
		b.logger.Err(err).Msg("failed to issue tokens")
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) issueTokens(user *users.User) (*apimodel.TokenResponse, error) {
	access, err := b.creator.CreateAccessToken(user.ID, user.IsAdmin, int(b.generation.Load()))
	if err != nil {
		return nil, err
	}
	refresh, err := b.refresh.Create(user.ID)
	if err != nil {
		return nil, err
	}
	return &apimodel.TokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: tokenTypeBearer}, nil
}

func (b *Backend) refreshHandler(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	var req apimodel.RefreshRequest
	if err := decodeBody(r, &req); err != nil || req.RefreshToken == "" {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	stored, err := b.refresh.Validate(req.RefreshToken)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	user, err := b.users.GetByID(stored.UserID)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	access, err := b.creator.CreateAccessToken(user.ID, user.IsAdmin, int(b.generation.Load()))
	if err != nil {
		b.logger.Err(err).Msg("failed to issue access token")
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": access, "token_type": tokenTypeBearer})
}

func (b *Backend) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req apimodel.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req = req.WithDefaults()

	if err := validate.Struct(req); err != nil {
		writeValidation(w, validationItems(err)...)
		return
	}
	if _, err := b.users.GetByEmail(req.Email); err == nil {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}

	user, err := b.createUser(req)
	if err != nil {
		b.logger.Err(err).Msg("failed to register user")
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusCreated, user.Profile)
}

func (b *Backend) createUser(req apimodel.RegisterRequest) (*users.User, error) {
	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &users.User{
		Profile: users.Profile{
			Email:     strings.TrimSpace(req.Email),
			FirstName: req.FirstName,
			LastName:  req.LastName,
			IsAdult:   utils.Value(req.IsAdult),
			IsAdmin:   utils.Value(req.IsAdmin),
		},
		PasswordHash: hash,
	}
	if err := b.users.Upsert(user); err != nil {
		return nil, err
	}
	return user, nil
}

func validationItems(err error) []validationItem {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []validationItem{{Loc: []string{"body"}, Msg: err.Error()}}
	}
	items := make([]validationItem, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		items = append(items, validationItem{
			Loc: []string{"body", fe.Field()},
			Msg: fe.Field() + " failed " + fe.Tag() + " validation",
		})
	}
	return items
}
