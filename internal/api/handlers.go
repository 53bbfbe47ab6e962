// Package api exposes the HTTP surface: REST routes, rate limiting, and the
// per-session event stream.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"queryjam/internal/auth"
	"queryjam/internal/config"
	"queryjam/internal/models"
	"queryjam/internal/query"
	"queryjam/internal/service/ai"
	"queryjam/internal/service/collab"
)

// Handler wires HTTP routes to the collaboration service.
type Handler struct {
	collab           *collab.Service
	auth             *auth.Service
	ai               *ai.Service
	limits           *RateLimiter
	maxUploadBytes   int64
	queriesPerMinute int
}

// NewHandler constructs a Handler. aiService may be nil when no provider is
// configured; AI routes then answer 503. Zero config fields keep their
// defaults (10 MiB uploads, 30 queries per minute).
func NewHandler(service *collab.Service, authService *auth.Service, aiService *ai.Service, limits *RateLimiter, basic config.BasicConfig) *Handler {
	maxUploadBytes := basic.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	queriesPerMinute := basic.QueriesPerMinute
	if queriesPerMinute <= 0 {
		queriesPerMinute = 30
	}
	return &Handler{
		collab:           service,
		auth:             authService,
		ai:               aiService,
		limits:           limits,
		maxUploadBytes:   maxUploadBytes,
		queriesPerMinute: queriesPerMinute,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")

	authLimit := h.limits.Limit("auth", 5, 15*time.Minute)
	api.POST("/users/register", authLimit, h.registerUser)
	api.POST("/users/login", authLimit, h.loginUser)

	authed := api.Group("")
	authed.Use(h.auth.Middleware(), h.auth.CSRFMiddleware())

	authed.POST("/users/logout", h.logoutUser)
	authed.DELETE("/users", h.deleteUser)

	authed.POST("/sessions", h.createSession)
	authed.GET("/sessions", h.listSessions)
	authed.GET("/sessions/:id", h.getSession)
	authed.PUT("/sessions/:id", h.updateSession)
	authed.DELETE("/sessions/:id", h.deleteSession)
	authed.POST("/sessions/join", h.joinSession)
	authed.POST("/sessions/:id/leave", h.leaveSession)
	authed.PUT("/sessions/:id/active-dataset", h.setActiveDataset)
	authed.GET("/sessions/:id/events", h.streamSession)

	msgLimit := h.limits.Limit("messages", 20, time.Minute)
	authed.GET("/sessions/:id/messages", h.listMessages)
	authed.POST("/sessions/:id/messages", msgLimit, h.sendMessage)

	queryLimit := h.limits.Limit("query", h.queriesPerMinute, time.Minute)
	authed.POST("/queries/execute", queryLimit, h.executeQuery)
	authed.GET("/queries/session/:session_id", h.queryHistory)
	authed.GET("/queries/:id", h.getQuery)
	authed.DELETE("/queries/:id", h.deleteQuery)

	uploadLimit := h.limits.Limit("upload", 10, time.Hour)
	authed.POST("/datasets/upload", uploadLimit, h.uploadDataset)
	authed.POST("/datasets/sample", uploadLimit, h.sampleDataset)
	authed.GET("/datasets", h.listDatasets)
	authed.GET("/datasets/:id", h.getDataset)
	authed.DELETE("/datasets/:id", h.deleteDataset)

	aiLimit := h.limits.Limit("ai", 60, time.Minute)
	aiRoutes := authed.Group("/ai", aiLimit)
	aiRoutes.POST("/generate-query", h.aiGenerateQuery)
	aiRoutes.POST("/explain-query", h.aiExplainQuery)
	aiRoutes.POST("/explain-error", h.aiExplainError)
	aiRoutes.POST("/suggest", h.aiSuggest)
}

func (h *Handler) authorizedUserID(c *gin.Context) (int64, bool) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok || userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return 0, false
	}
	return userID, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// respondError maps domain sentinels onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, collab.ErrSessionNotFound),
		errors.Is(err, collab.ErrDatasetNotFound),
		errors.Is(err, collab.ErrQueryNotFound),
		errors.Is(err, collab.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, collab.ErrAccessDenied),
		errors.Is(err, collab.ErrForbidden),
		errors.Is(err, collab.ErrOwnerCannotLeave):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, collab.ErrInvalidAccessCode),
		errors.Is(err, collab.ErrInvalidQuery),
		errors.Is(err, query.ErrDeniedOperator):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// User create&login interface
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) registerUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.collab.RegisterUser(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
	})
}

func (h *Handler) loginUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.collab.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	authToken, err := h.auth.IssueToken(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	csrfToken, err := h.auth.NewCSRFToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	h.setAuthCookies(c, authToken, csrfToken)
	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
		"auth_token": authToken,
	})
}

func (h *Handler) logoutUser(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	if authToken, ok := auth.AuthTokenFromContext(c); ok {
		_ = h.auth.RevokeToken(c.Request.Context(), authToken)
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteUser(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	if err := h.auth.RevokeUserTokens(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.collab.DeleteUser(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

// Session interface
type sessionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

func (h *Handler) createSession(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session, err := h.collab.CreateSession(c.Request.Context(), userID, req.Name, req.Description, req.IsPublic)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *Handler) listSessions(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessions, err := h.collab.ListSessions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *Handler) getSession(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	session, err := h.collab.ViewSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	// only the owner sees the access code
	if !session.IsOwner(userID) {
		session.AccessCode = ""
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *Handler) updateSession(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsPublic    *bool   `json:"is_public"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session, err := h.collab.UpdateSession(c.Request.Context(), userID, sessionID, req.Name, req.Description, req.IsPublic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *Handler) deleteSession(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.collab.DeleteSession(c.Request.Context(), userID, sessionID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) joinSession(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req struct {
		AccessCode string `json:"access_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session, err := h.collab.JoinByCode(c.Request.Context(), userID, strings.TrimSpace(req.AccessCode))
	if err != nil {
		respondError(c, err)
		return
	}
	if !session.IsOwner(userID) {
		session.AccessCode = ""
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *Handler) leaveSession(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.collab.LeaveSession(c.Request.Context(), userID, sessionID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) setActiveDataset(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		DatasetID int64 `json:"dataset_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.DatasetID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dataset_id is required"})
		return
	}
	if err := h.collab.SetActiveDataset(c.Request.Context(), userID, sessionID, req.DatasetID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Message interface
func (h *Handler) listMessages(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	messages, err := h.collab.RecentMessages(c.Request.Context(), userID, sessionID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *Handler) sendMessage(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content        string             `json:"content"`
		Type           models.MessageType `json:"type"`
		RelatedQueryID int64              `json:"related_query_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	message, err := h.collab.SendMessage(c.Request.Context(), userID, sessionID, req.Content, req.Type, req.RelatedQueryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// Query interface
type executeRequest struct {
	SessionID int64  `json:"session_id"`
	DatasetID int64  `json:"dataset_id"`
	Query     string `json:"query"`
}

func (h *Handler) executeQuery(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.SessionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	q, err := h.collab.SubmitQuery(c.Request.Context(), userID, req.SessionID, req.DatasetID, req.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{
		"success":        q.Status == models.QuerySuccess,
		"query_id":       q.ID,
		"execution_time": q.ExecutionTime,
	}
	if q.Results != nil {
		resp["results"] = q.Results
	}
	if q.ErrorMessage != "" {
		resp["error"] = q.ErrorMessage
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) queryHistory(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "session_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	queries, err := h.collab.QueryHistory(c.Request.Context(), userID, sessionID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queries": queries})
}

func (h *Handler) getQuery(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	queryID, ok := pathID(c, "id")
	if !ok {
		return
	}
	q, err := h.collab.GetQuery(c.Request.Context(), userID, queryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q})
}

func (h *Handler) deleteQuery(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	queryID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.collab.DeleteQuery(c.Request.Context(), userID, queryID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dataset interface
func (h *Handler) uploadDataset(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	var sessionID int64
	if raw := c.PostForm("session_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session_id"})
			return
		}
		sessionID = id
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = strings.TrimSuffix(file.Filename, ".csv")
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return
	}
	defer f.Close()
	dataset, err := h.collab.CreateDatasetFromCSV(c.Request.Context(), userID, sessionID, name, c.PostForm("description"), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"dataset": dataset})
}

func (h *Handler) sampleDataset(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req struct {
		Kind      string `json:"kind"`
		SessionID int64  `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	dataset, err := h.collab.CreateSampleDataset(c.Request.Context(), userID, req.SessionID, strings.TrimSpace(req.Kind))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"dataset": dataset})
}

func (h *Handler) listDatasets(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, _ := strconv.ParseInt(c.Query("session_id"), 10, 64)
	datasets, err := h.collab.ListDatasets(c.Request.Context(), sessionID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

func (h *Handler) getDataset(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	datasetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	dataset, err := h.collab.GetDataset(c.Request.Context(), datasetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dataset": dataset})
}

func (h *Handler) deleteDataset(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	datasetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.collab.DeleteDataset(c.Request.Context(), userID, datasetID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AI interface
func (h *Handler) aiReady(c *gin.Context) bool {
	if h.ai == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ai provider not configured"})
		return false
	}
	return true
}

type aiQueryRequest struct {
	DatasetID int64  `json:"dataset_id"`
	Prompt    string `json:"prompt"`
	Query     string `json:"query"`
	Error     string `json:"error"`
}

func (h *Handler) aiGenerateQuery(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	if !h.aiReady(c) {
		return
	}
	var req aiQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DatasetID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dataset_id and prompt are required"})
		return
	}
	dataset, err := h.collab.GetDataset(c.Request.Context(), req.DatasetID)
	if err != nil {
		respondError(c, err)
		return
	}
	suggestion, err := h.ai.GenerateQuery(c.Request.Context(), dataset, req.Prompt)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": suggestion})
}

func (h *Handler) aiExplainQuery(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	if !h.aiReady(c) {
		return
	}
	var req aiQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" || req.DatasetID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dataset_id and query are required"})
		return
	}
	dataset, err := h.collab.GetDataset(c.Request.Context(), req.DatasetID)
	if err != nil {
		respondError(c, err)
		return
	}
	explanation, err := h.ai.ExplainQuery(c.Request.Context(), dataset, req.Query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"explanation": explanation})
}

func (h *Handler) aiExplainError(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	if !h.aiReady(c) {
		return
	}
	var req aiQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" || req.Error == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query and error are required"})
		return
	}
	explanation, err := h.ai.ExplainError(c.Request.Context(), req.Query, req.Error)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"explanation": explanation})
}

func (h *Handler) aiSuggest(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	if !h.aiReady(c) {
		return
	}
	var req aiQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" || req.DatasetID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dataset_id and query are required"})
		return
	}
	dataset, err := h.collab.GetDataset(c.Request.Context(), req.DatasetID)
	if err != nil {
		respondError(c, err)
		return
	}
	suggestion, err := h.ai.SuggestImprovements(c.Request.Context(), dataset, req.Query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": suggestion})
}

func (h *Handler) setAuthCookies(c *gin.Context, authToken, csrfToken string) {
	ttl := int(h.auth.TokenTTL().Seconds())
	if ttl <= 0 {
		ttl = 3600
	}
	secure := gin.Mode() == gin.ReleaseMode
	setCookie(c, &http.Cookie{
		Name:     h.auth.AuthCookieName(),
		Value:    authToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	setCookie(c, &http.Cookie{
		Name:     h.auth.CSRFCookieName(),
		Value:    csrfToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	for _, name := range []string{h.auth.AuthCookieName(), h.auth.CSRFCookieName()} {
		setCookie(c, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			Path:     "/",
			Secure:   gin.Mode() == gin.ReleaseMode,
			HttpOnly: name == h.auth.AuthCookieName(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func setCookie(c *gin.Context, ck *http.Cookie) {
	if ck == nil {
		return
	}
	http.SetCookie(c.Writer, ck)
}
