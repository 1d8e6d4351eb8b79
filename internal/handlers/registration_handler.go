package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/farellandr/eventreg/internal/apperrors"
	"github.com/farellandr/eventreg/internal/helpers"
	"github.com/farellandr/eventreg/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type VerifyPassRequest struct {
	Data string `json:"data" binding:"required"`
}

type RegistrationHandler struct {
	registrations *services.RegistrationService
	document      helpers.UploadConfig
	picture       helpers.UploadConfig
	log           *zerolog.Logger
}

func NewRegistrationHandler(registrations *services.RegistrationService, maxUpload int64, log *zerolog.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		registrations: registrations,
		document:      helpers.DefaultDocumentUploadConfig.WithMaxSize(maxUpload),
		picture:       helpers.DefaultImageUploadConfig.WithMaxSize(maxUpload),
		log:           log,
	}
}

func (h *RegistrationHandler) Register(c *gin.Context) {
	form := newFormReader(c)
	input := services.RegistrationInput{
		EventID:             c.Param("event_id"),
		StudentID:           form.String("student_id"),
		FullName:            form.String("full_name"),
		DateOfBirth:         form.String("date_of_birth"),
		Batch:               form.String("batch"),
		Session:             form.String("session"),
		Email:               form.String("email"),
		ContactNumber:       form.String("contact_number"),
		WhatsappNumber:      form.String("whatsapp_number"),
		AdultGuests:         form.Uint("adult_guests"),
		ChildGuests:         form.Uint("child_guests"),
		TotalAmount:         form.Float("total_amount"),
		PaymentMethod:       form.String("payment_method"),
		TransactionID:       form.String("transaction_id"),
		Password:            form.String("password"),
		TransactionDocument: form.File(services.FileTransactionDocument, h.document),
		ProfilePicture:      form.File(services.FileProfilePicture, h.picture),
	}
	if err := form.Err(); err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}

	registration, err := h.registrations.Create(c.Request.Context(), input)
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, registration)
}

func (h *RegistrationHandler) CalculateTotalAmount(c *gin.Context) {
	adults, err := helpers.ParseUint(c.Query("adult_guests"), 0)
	if err != nil {
		helpers.RespondWithAppError(c, h.log, apperrors.Field("adult_guests", "Enter a whole number."))
		return
	}
	children, err := helpers.ParseUint(c.Query("child_guests"), 0)
	if err != nil {
		helpers.RespondWithAppError(c, h.log, apperrors.Field("child_guests", "Enter a whole number."))
		return
	}

	total, err := h.registrations.Quote(c.Request.Context(), c.Param("event_id"), adults, children)
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_amount": total})
}

func (h *RegistrationHandler) CheckCredential(c *gin.Context) {
	status, err := h.registrations.CheckCredential(c.Request.Context(), c.Query("student_id"), c.Query("password"))
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *RegistrationHandler) GetPass(c *gin.Context) {
	png, err := h.registrations.Pass(c.Request.Context(), c.Query("student_id"), c.Query("password"))
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *RegistrationHandler) ListRegistrations(c *gin.Context) {
	page, pageSize := helpers.Pagination(c.DefaultQuery("page", "1"), c.Query("page_size"), services.DefaultPageSize, services.MaxPageSize)

	query := services.RegistrationQuery{
		EventID: c.Query("event"),
		Search:  c.Query("search"),
	}
	if v, ok := c.GetQuery("approved"); ok && v != "" {
		approved := helpers.ParseBool(v)
		query.Approved = &approved
	}

	result, err := h.registrations.List(c.Request.Context(), query, page, pageSize)
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RegistrationHandler) GetRegistration(c *gin.Context) {
	id, ok := h.registrationID(c)
	if !ok {
		return
	}
	registration, err := h.registrations.Get(c.Request.Context(), id)
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"registration": registration,
		"event_id":     registration.Event.EventID,
		"event_title":  registration.Event.Title,
	})
}

func (h *RegistrationHandler) DownloadFile(c *gin.Context) {
	id, ok := h.registrationID(c)
	if !ok {
		return
	}
	file, err := h.registrations.OpenFile(c.Request.Context(), id, c.Param("kind"))
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	http.ServeContent(c.Writer, c.Request, file.Name, time.Time{}, file)
}

func (h *RegistrationHandler) ApproveRegistration(c *gin.Context) {
	id, ok := h.registrationID(c)
	if !ok {
		return
	}
	result, err := h.registrations.Approve(c.Request.Context(), id)
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":             "Registration approved.",
		"registration":        result.Registration,
		"notification_queued": result.NotificationQueued,
	})
}

func (h *RegistrationHandler) VerifyPass(c *gin.Context) {
	var req VerifyPassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	result, err := h.registrations.VerifyPass(c.Request.Context(), req.Data)
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RegistrationHandler) registrationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithAppError(c, h.log, apperrors.NotFound("Registration not found."))
		return uuid.Nil, false
	}
	return id, true
}
