package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
)

// Login signs the session in with {"email": "...", "password": "..."}.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var email, password string
	if err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			email, err = d.Str()
		case "password":
			password, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.users.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeProfile(w, http.StatusOK, h.session.SignIn(u))
}

// Signup registers a user and signs the session in with the new account.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			req.Name, err = d.Str()
		case "email":
			req.Email, err = d.Str()
		case "phone":
			req.Phone, err = d.Str()
		case "password":
			req.Password, err = d.Str()
		case "confirmPassword":
			req.ConfirmPassword, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.users.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeProfile(w, http.StatusCreated, h.session.SignIn(u))
}

// Logout clears the cart and signs the session out. The session is signed
// out even when the empty cart could not be persisted.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		zctx.From(r.Context()).Warn("Persist cleared cart on logout", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile returns the signed-in profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.session.Profile()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeProfile(w, http.StatusOK, p)
}

// UpdateProfile merges the fields present in the body into the profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd auth.ProfileUpdate
	if err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			upd.Name, err = optString(d)
		case "email":
			upd.Email, err = optString(d)
		case "phone":
			upd.Phone, err = optString(d)
		case "address":
			upd.Address, err = optString(d)
		case "avatar":
			upd.Avatar, err = optString(d)
		default:
			return d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.session.UpdateProfile(upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeProfile(w, http.StatusOK, p)
}

func writeProfile(w http.ResponseWriter, status int, p auth.Profile) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("email")
	e.Str(p.Email)
	e.FieldStart("phone")
	e.Str(p.Phone)
	e.FieldStart("address")
	e.Str(p.Address)
	e.FieldStart("avatar")
	e.Str(p.Avatar)
	e.FieldStart("joinDate")
	e.Str(p.JoinDate.UTC().Format(time.RFC3339))
	e.ObjEnd()
	writeJSON(w, status, &e)
}
