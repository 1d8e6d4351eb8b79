package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/farellandr/eventreg/internal/helpers"
	"github.com/farellandr/eventreg/internal/models"
	"github.com/farellandr/eventreg/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// EventResponse is the public summary of an event.
type EventResponse struct {
	models.Event
	MediaFile  string `json:"media_file"`
	DetailLink string `json:"detail_link"`
}

type EventHandler struct {
	events   *services.EventService
	mediaURL string
	upload   helpers.UploadConfig
	log      *zerolog.Logger
}

// NewEventHandler serves events. mediaURL is the public prefix of stored media
// and maxUpload, when set, overrides the media size limit.
func NewEventHandler(events *services.EventService, mediaURL string, maxUpload int64, log *zerolog.Logger) *EventHandler {
	return &EventHandler{
		events:   events,
		mediaURL: strings.TrimRight(mediaURL, "/"),
		upload:   helpers.DefaultMediaUploadConfig.WithMaxSize(maxUpload),
		log:      log,
	}
}

func (h *EventHandler) ListEvents(c *gin.Context) {
	page, pageSize := helpers.Pagination(c.DefaultQuery("page", "1"), c.Query("page_size"), services.DefaultPageSize, services.MaxPageSize)

	result, err := h.events.List(c.Request.Context(), page, pageSize)
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}

	events := make([]EventResponse, 0, len(result.Events))
	for i := range result.Events {
		events = append(events, h.summary(c, &result.Events[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"events":      events,
		"total":       result.Total,
		"page":        result.Page,
		"page_size":   result.PageSize,
		"total_pages": result.TotalPages,
	})
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.events.Get(c.Request.Context(), c.Param("event_id"))
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.summary(c, event))
}

func (h *EventHandler) GetPaymentMethods(c *gin.Context) {
	methods, err := h.events.PaymentMethods(c.Request.Context(), c.Param("event_id"))
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, methods)
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	form := newFormReader(c)
	input := services.EventInput{
		EventID:             form.String("event_id"),
		Title:               form.String("title"),
		Description:         form.String("description"),
		StartTime:           form.Time("start_time"),
		EndTime:             form.Time("end_time"),
		Location:            form.String("location"),
		Status:              models.EventStatus(form.String("status")),
		AmountPerPerson:     uint(form.Uint("amount_per_person")),
		AmountPerAdultGuest: uint(form.Uint("amount_per_adult_guest")),
		AmountPerChildGuest: uint(form.Uint("amount_per_child_guest")),
		Bkash:               walletFromForm(form, "bkash"),
		Nagad:               walletFromForm(form, "nagad"),
		Rocket:              walletFromForm(form, "rocket"),
		Bank:                bankFromForm(form),
		Media:               form.File("media_file", h.upload),
	}
	if err := form.Err(); err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}

	event, err := h.events.Create(c.Request.Context(), input)
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Event created successfully.",
		"event":   h.summary(c, event),
	})
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	form := newFormReader(c)
	update := services.EventUpdate{
		EventID:             form.Optional("event_id"),
		Title:               form.Optional("title"),
		Description:         form.Optional("description"),
		StartTime:           form.OptionalTime("start_time"),
		EndTime:             form.OptionalTime("end_time"),
		Location:            form.Optional("location"),
		AmountPerPerson:     form.OptionalUint("amount_per_person"),
		AmountPerAdultGuest: form.OptionalUint("amount_per_adult_guest"),
		AmountPerChildGuest: form.OptionalUint("amount_per_child_guest"),
		Media:               form.File("media_file", h.upload),
	}
	if status := form.Optional("status"); status != nil {
		s := models.EventStatus(*status)
		update.Status = &s
	}
	for _, wallet := range []struct {
		prefix string
		dst    **models.WalletDetails
	}{{"bkash", &update.Bkash}, {"nagad", &update.Nagad}, {"rocket", &update.Rocket}} {
		if submitted(c, wallet.prefix+"_account_number", wallet.prefix+"_payment_option") {
			w := walletFromForm(form, wallet.prefix)
			*wallet.dst = &w
		}
	}
	if submitted(c, bankFormKeys...) {
		b := bankFromForm(form)
		update.Bank = &b
	}
	if err := form.Err(); err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}

	event, err := h.events.Update(c.Request.Context(), c.Param("event_id"), update)
	if err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event updated successfully.",
		"event":   h.summary(c, event),
	})
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	if err := h.events.Delete(c.Request.Context(), c.Param("event_id")); err != nil {
		helpers.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Event deleted successfully.",
	})
}

func (h *EventHandler) summary(c *gin.Context, event *models.Event) EventResponse {
	resp := EventResponse{
		Event:      *event,
		DetailLink: fmt.Sprintf("%s/v1/events/%s", baseURL(c), event.EventID),
	}
	if event.MediaFile != "" {
		resp.MediaFile = h.mediaURL + "/" + event.MediaFile
	}
	return resp
}

var bankFormKeys = []string{
	"bank_account_name", "bank_account_number", "bank_name", "bank_branch_name",
	"bank_swift_code", "bank_routing_number", "bank_city", "bank_country",
}

func walletFromForm(form *formReader, prefix string) models.WalletDetails {
	return models.WalletDetails{
		AccountNumber: form.String(prefix + "_account_number"),
		PaymentOption: form.String(prefix + "_payment_option"),
	}
}

func bankFromForm(form *formReader) models.BankDetails {
	return models.BankDetails{
		AccountName:   form.String("bank_account_name"),
		AccountNumber: form.String("bank_account_number"),
		BankName:      form.String("bank_name"),
		BranchName:    form.String("bank_branch_name"),
		SwiftCode:     form.String("bank_swift_code"),
		RoutingNumber: form.String("bank_routing_number"),
		City:          form.String("bank_city"),
		Country:       form.String("bank_country"),
	}
}

func submitted(c *gin.Context, keys ...string) bool {
	for _, key := range keys {
		if _, ok := c.GetPostForm(key); ok {
			return true
		}
	}
	return false
}

func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
