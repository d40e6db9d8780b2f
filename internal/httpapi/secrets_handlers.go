package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"jobfinder-engine/internal/config"
	"jobfinder-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setSecretReq struct {
	Value string `json:"value"`
}

// storable names accepted by POST /secrets/{name}. The IMAP password has its
// own endpoint because its keychain account depends on config.
var storableSecrets = map[string]bool{
	secrets.SerperAPIKey: true,
	secrets.CronSecret:   true,
	secrets.GitHubToken:  true,
}

func (h SecretsHandler) SetByPath(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/secrets/"), "/")
	if !storableSecrets[name] {
		WriteError(w, r, http.StatusNotFound, "unknown_secret", "unknown secret name")
		return
	}

	var req setSecretReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}

	if err := secrets.Set(name, req.Value); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keychain_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setIMAPPasswordReq struct {
	Password string `json:"password"`
}

func (h SecretsHandler) SetIMAPPassword(w http.ResponseWriter, r *http.Request) {
	var req setIMAPPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetIMAPPassword(cfg, req.Password); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keychain_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
