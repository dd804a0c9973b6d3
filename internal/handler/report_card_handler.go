package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pkbm-digital/rapor-api/internal/models"
	"github.com/pkbm-digital/rapor-api/internal/service"
	appErrors "github.com/pkbm-digital/rapor-api/pkg/errors"
	"github.com/pkbm-digital/rapor-api/pkg/response"
)

// ReportCardHandler exposes the snapshot pipeline: generate, preview,
// finalize, delete and PDF download.
type ReportCardHandler struct {
	reportCards *service.ReportCardService
	renders     *service.RenderService
}

// NewReportCardHandler constructs handler.
func NewReportCardHandler(reportCards *service.ReportCardService, renders *service.RenderService) *ReportCardHandler {
	return &ReportCardHandler{reportCards: reportCards, renders: renders}
}

// Generate godoc
// @Summary Generate one report card snapshot
// @Tags Report Cards
// @Accept json
// @Produce json
// @Param payload body service.GenerateReportCardRequest true "Snapshot key"
// @Success 200 {object} response.Envelope
// @Router /report-cards/generate [post]
func (h *ReportCardHandler) Generate(c *gin.Context) {
	var req service.GenerateReportCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if err := h.defaultAcademicYear(c, &req.AcademicYearID); err != nil {
		response.Error(c, err)
		return
	}
	card, err := h.reportCards.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// GenerateBatch godoc
// @Summary Generate report cards for a whole classroom
// @Tags Report Cards
// @Accept json
// @Produce json
// @Param payload body service.BatchGenerateRequest true "Classroom scope"
// @Success 200 {object} response.Envelope
// @Router /report-cards/generate-batch [post]
func (h *ReportCardHandler) GenerateBatch(c *gin.Context) {
	var req service.BatchGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if err := h.defaultAcademicYear(c, &req.AcademicYearID); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.reportCards.GenerateBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Preview godoc
// @Summary Preview a generated snapshot
// @Tags Report Cards
// @Produce json
// @Param studentId query string true "Student ID"
// @Param classroomId query string true "Classroom ID"
// @Param academicYearId query string false "Academic year ID (defaults to the active year)"
// @Param semester query string true "ganjil or genap"
// @Success 200 {object} response.Envelope
// @Router /report-cards/preview [get]
func (h *ReportCardHandler) Preview(c *gin.Context) {
	key, err := h.keyFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	card, err := h.reportCards.Preview(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// Finalize godoc
// @Summary Finalize a snapshot (one-way)
// @Tags Report Cards
// @Produce json
// @Param studentId query string true "Student ID"
// @Param classroomId query string true "Classroom ID"
// @Param academicYearId query string false "Academic year ID (defaults to the active year)"
// @Param semester query string true "ganjil or genap"
// @Success 200 {object} response.Envelope
// @Router /report-cards/finalize [post]
func (h *ReportCardHandler) Finalize(c *gin.Context) {
	key, err := h.keyFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.reportCards.Finalize(c.Request.Context(), key); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": string(models.ReportCardFinalized)}, nil)
}

// Delete godoc
// @Summary Delete a snapshot
// @Tags Report Cards
// @Param studentId query string true "Student ID"
// @Param classroomId query string true "Classroom ID"
// @Param academicYearId query string false "Academic year ID (defaults to the active year)"
// @Param semester query string true "ganjil or genap"
// @Success 204
// @Router /report-cards [delete]
func (h *ReportCardHandler) Delete(c *gin.Context) {
	key, err := h.keyFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.reportCards.Delete(c.Request.Context(), key); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Download godoc
// @Summary Download the rendered rapor PDF
// @Tags Report Cards
// @Produce application/pdf
// @Param studentId query string true "Student ID"
// @Param classroomId query string true "Classroom ID"
// @Param academicYearId query string false "Academic year ID (defaults to the active year)"
// @Param semester query string true "ganjil or genap"
// @Success 200
// @Router /report-cards/download [get]
func (h *ReportCardHandler) Download(c *gin.Context) {
	key, err := h.keyFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.renders.RenderSnapshot(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	servePDF(c, doc)
}

// Simulate godoc
// @Summary Render a rapor preview without persisting a snapshot
// @Tags Report Cards
// @Produce application/pdf
// @Param studentId query string true "Student ID"
// @Param classroomId query string true "Classroom ID"
// @Param academicYearId query string false "Academic year ID (defaults to the active year)"
// @Param semester query string true "ganjil or genap"
// @Success 200
// @Router /report-cards/simulasi [get]
func (h *ReportCardHandler) Simulate(c *gin.Context) {
	key, err := h.keyFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.renders.RenderSimulation(c.Request.Context(), key, models.ReportCardNotes{})
	if err != nil {
		response.Error(c, err)
		return
	}
	servePDF(c, doc)
}

func (h *ReportCardHandler) keyFromQuery(c *gin.Context) (models.ReportCardKey, error) {
	key := models.ReportCardKey{
		StudentID:   c.Query("studentId"),
		ClassroomID: c.Query("classroomId"),
		Semester:    models.Semester(c.Query("semester")),
	}
	if key.StudentID == "" || key.ClassroomID == "" {
		return key, appErrors.Clone(appErrors.ErrValidation, "studentId and classroomId required")
	}
	if !key.Semester.Valid() {
		return key, appErrors.Clone(appErrors.ErrValidation, "semester must be ganjil or genap")
	}
	key.AcademicYearID = c.Query("academicYearId")
	if err := h.defaultAcademicYear(c, &key.AcademicYearID); err != nil {
		return key, err
	}
	return key, nil
}

// defaultAcademicYear fills an empty academic year id with the active year,
// resolved once at the request boundary.
func (h *ReportCardHandler) defaultAcademicYear(c *gin.Context, id *string) error {
	if *id != "" {
		return nil
	}
	year, err := h.reportCards.ActiveAcademicYear(c.Request.Context())
	if err != nil {
		return err
	}
	*id = year.ID
	return nil
}

func servePDF(c *gin.Context, doc *service.RenderedDocument) {
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}
