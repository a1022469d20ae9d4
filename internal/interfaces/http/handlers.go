package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/application/service"
	"github.com/siakad/thesis-workflow/internal/domain/apperr"
	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

// respondError maps the error taxonomy onto HTTP statuses. Unclassified
// errors are logged and surfaced as 500 without leaking detail.
func (s *Server) respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		s.logger.Error("Unhandled error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindPermission:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInvalidState, apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindPrecondition:
		status = http.StatusUnprocessableEntity
	}

	body := gin.H{
		"error": appErr.Msg,
		"kind":  appErr.Kind,
	}
	if appErr.Kind == apperr.KindInvalidState {
		body["current_state"] = appErr.CurrentState
		body["attempted_state"] = appErr.AttemptedState
	}
	if appErr.Retryable() {
		body["retryable"] = true
	}
	c.JSON(status, body)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// ---- proposals ----

func (s *Server) submitProposal(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var in service.SubmitProposalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proposal, err := s.proposals.Submit(c.Request.Context(), actor, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

func (s *Server) getProposal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	proposal, err := s.proposals.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func (s *Server) updateProposal(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var upd entity.ProposalUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proposal, err := s.proposals.Update(c.Request.Context(), actor, id, upd)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func (s *Server) approveProposal(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	proposal, err := s.proposals.Approve(c.Request.Context(), actor, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) rejectProposal(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proposal, err := s.proposals.Reject(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) requestProposalRevision(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proposal, err := s.proposals.RequestRevision(c.Request.Context(), actor, id, req.Notes)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

// ---- consultations ----

func (s *Server) logConsultation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var in service.LogConsultationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	consultation, err := s.consultations.Log(c.Request.Context(), actor, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, consultation)
}

func (s *Server) getConsultation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	consultation, err := s.consultations.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, consultation)
}

func (s *Server) editConsultation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var upd entity.ConsultationUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	consultation, err := s.consultations.Edit(c.Request.Context(), actor, id, upd)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, consultation)
}

type decideRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

func (s *Server) decideConsultation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	consultation, err := s.consultations.Decide(c.Request.Context(), actor, id, *req.Approved)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, consultation)
}

func (s *Server) listConsultations(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	consultations, err := s.consultations.ListByProposal(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consultations": consultations})
}

// ---- sempro ----

func (s *Server) registerSempro(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var in service.RegisterSemproInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sempro, err := s.sempros.Register(c.Request.Context(), actor, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sempro)
}

func (s *Server) getSempro(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sempro, err := s.sempros.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sempro)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (s *Server) verifySempro(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sempro, err := s.sempros.Verify(c.Request.Context(), actor, id, req.Note)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sempro)
}

func (s *Server) rejectSempro(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sempro, err := s.sempros.Reject(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sempro)
}

func (s *Server) requestDocRevision(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sempro, err := s.sempros.RequestDocRevision(c.Request.Context(), actor, id, req.Note)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sempro)
}

func (s *Server) scheduleSempro(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.ScheduleSemproInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	schedule, err := s.sempros.Schedule(c.Request.Context(), actor, id, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

func (s *Server) getSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	schedule, err := s.sempros.GetSchedule(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

type publishRequest struct {
	Published *bool `json:"published" binding:"required"`
}

func (s *Server) publishSchedule(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	schedule, err := s.sempros.PublishSchedule(c.Request.Context(), actor, id, *req.Published)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

type evaluationRequest struct {
	Scores [entity.EvaluationScoreCount]float64 `json:"scores"`
	Notes  string                               `json:"notes"`
}

func (s *Server) submitEvaluation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req evaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	evaluation, err := s.sempros.SubmitEvaluation(c.Request.Context(), actor, id, req.Scores, req.Notes)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, evaluation)
}

func (s *Server) listEvaluations(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	evaluations, err := s.sempros.ListEvaluations(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evaluations": evaluations})
}

func (s *Server) requestPostEvalRevision(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.PostEvalRevisionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sempro, err := s.sempros.RequestPostEvalRevision(c.Request.Context(), actor, id, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sempro)
}

func (s *Server) approveFinal(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	sempro, err := s.sempros.ApproveFinal(c.Request.Context(), actor, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sempro)
}

func (s *Server) resubmitDocuments(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.ResubmitDocumentsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sempro, err := s.sempros.ResubmitDocuments(c.Request.Context(), actor, id, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sempro)
}

func (s *Server) exportRecap(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	path, err := s.exports.EvaluationRecap(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": path})
}

// ---- history and notifications ----

func (s *Server) getTimeline(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	entries, listErr := s.history.Timeline(c.Request.Context(), c.Param("subjectType"), id)
	if listErr != nil {
		s.respondError(c, listErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

type dispatchRequest struct {
	Limit int `json:"limit"`
}

func (s *Server) dispatchPending(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if !actor.HasRole(entity.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only admins can trigger dispatch"})
		return
	}
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}
	sent := s.dispatcher.DispatchPending(c.Request.Context(), req.Limit)
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}
