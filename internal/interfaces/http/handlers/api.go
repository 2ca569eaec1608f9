package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainDocs "cdrcgi/internal/domain/docs"
	domainUser "cdrcgi/internal/domain/user"
	"cdrcgi/internal/infrastructure/auth"
	"cdrcgi/internal/shared/cdrid"
	"cdrcgi/internal/shared/logger"
	"cdrcgi/internal/shared/utils"
)

// APIHandler exposes the JSON surface: a token exchange for clients
// holding local credentials, and read-only document access.
type APIHandler struct {
	users  domainUser.Repository
	docs   domainDocs.Repository
	hasher *auth.PasswordHasher
	jwt    *auth.JWTService
}

func NewAPIHandler(users domainUser.Repository, docRepo domainDocs.Repository,
	hasher *auth.PasswordHasher, jwtService *auth.JWTService) *APIHandler {
	return &APIHandler{
		users:  users,
		docs:   docRepo,
		hasher: hasher,
		jwt:    jwtService,
	}
}

type tokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token exchanges a local credential for a bearer token.
func (h *APIHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "username and password are required")
		return
	}

	hash, err := h.users.PasswordHash(c.Request.Context(), req.Username)
	if err != nil {
		logger.Error("credential lookup failed", "user", req.Username, "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "internal error")
		return
	}
	if hash == "" || !h.hasher.Compare(hash, req.Password) {
		utils.ErrorResponse(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.jwt.Generate(req.Username)
	if err != nil {
		logger.Error("token generation failed", "user", req.Username, "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "internal error")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.jwt.AccessExpSeconds(),
	})
}

type docRequest struct {
	ID string `uri:"id" binding:"required,cdrid"`
}

type docResponse struct {
	ID      string `json:"id"`
	Doctype string `json:"doctype"`
	Title   string `json:"title"`
	XML     string `json:"xml"`
}

// Doc returns one document as JSON; the id accepts every canonical and
// shorthand spelling.
func (h *APIHandler) Doc(c *gin.Context) {
	var req docRequest
	if err := c.ShouldBindUri(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid document id")
		return
	}
	id, err := cdrid.Parse(req.ID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := h.docs.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		logger.Error("document lookup failed", "id", id, "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "internal error")
		return
	}
	if doc == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "document not found")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, docResponse{
		ID:      cdrid.Format(int(doc.ID)),
		Doctype: doc.Doctype,
		Title:   doc.Title,
		XML:     doc.XML,
	})
}
