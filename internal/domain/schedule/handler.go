package schedule

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medtrack/medtrack/internal/domain/medicine"
	"github.com/medtrack/medtrack/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/schedules", h.Create)
	api.GET("/schedules", h.List)
	api.GET("/schedules/due", h.Due)
	api.GET("/schedules/:id", h.Get)
	api.PATCH("/schedules/:id", h.Update)
	api.DELETE("/schedules/:id", h.Delete)

	// Setting the frequency replaces the existing row, so POST and PUT
	// behave identically and both are accepted.
	api.POST("/schedules/:id/frequency", h.SetFrequency)
	api.PUT("/schedules/:id/frequency", h.SetFrequency)
	api.GET("/schedules/:id/frequency", h.GetFrequency)

	api.POST("/schedules/:id/reminders", h.AddReminder)
	api.GET("/schedules/:id/reminders", h.ListReminders)
	api.DELETE("/reminders/:id", h.DeleteReminder)

	api.POST("/schedules/:id/logs", h.LogEvent)
	api.GET("/schedules/:id/logs", h.ListScheduleLogs)
	api.GET("/logs", h.ListUserLogs)
	api.PATCH("/logs/:id/notes", h.UpdateLogNotes)
}

func callerID(c echo.Context) (uuid.UUID, error) {
	raw := auth.UserIDFromContext(c.Request().Context())
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}
	return id, nil
}

func parseUUID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// httpError maps domain sentinel errors onto HTTP status codes. Anything
// unrecognized is treated as a validation failure.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, medicine.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

// -- Schedules --

type createScheduleRequest struct {
	MedicineID   int64      `json:"medicineId"`
	DosageAmount float64    `json:"dosageAmount"`
	DosageUnit   string     `json:"dosageUnit"`
	Instructions *string    `json:"instructions"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	Active       *bool      `json:"active"`
}

func (h *Handler) Create(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	var req createScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s := Schedule{
		MedicineID:   req.MedicineID,
		DosageAmount: req.DosageAmount,
		DosageUnit:   req.DosageUnit,
		Instructions: req.Instructions,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Active:       true,
	}
	if req.Active != nil {
		s.Active = *req.Active
	}
	if err := h.svc.Create(c.Request().Context(), userID, &s); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) List(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	var medicineID *int64
	if raw := c.QueryParam("medicineId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid medicineId")
		}
		medicineID = &id
	}
	schedules, err := h.svc.List(c.Request().Context(), userID, medicineID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if schedules == nil {
		schedules = []*Schedule{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"schedules": schedules})
}

func (h *Handler) Get(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseUUID(c)
	if err != nil {
		return err
	}
	s, err := h.svc.Get(c.Request().Context(), userID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) Update(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseUUID(c)
	if err != nil {
		return err
	}
	existing, err := h.svc.Get(c.Request().Context(), userID, id)
	if err != nil {
		return httpError(err)
	}
	if err := c.Bind(existing); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	existing.ID = id
	if err := h.svc.Update(c.Request().Context(), userID, existing); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, existing)
}

func (h *Handler) Delete(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseUUID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), userID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Due(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	due, err := h.svc.DueNow(c.Request().Context(), userID, time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if due == nil {
		due = []*DueSchedule{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"due": due})
}

// -- Frequency --

func (h *Handler) SetFrequency(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseUUID(c)
	if err != nil {
		return err
	}
	var f Frequency
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f.ScheduleID = id
	if err := h.svc.SetFrequency(c.Request().Context(), userID, &f); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) GetFrequency(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseUUID(c)
	if err != nil {
		return err
	}
	f, err := h.svc.GetFrequency(c.Request().Context(), userID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, f)
}

// -- Reminder times --

func (h *Handler) AddReminder(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseUUID(c)
	if err != nil {
		return err
	}
	var r ReminderTime
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r.ID = uuid.Nil
	r.ScheduleID = id
	if err := h.svc.AddReminder(c.Request().Context(), userID, &r); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListReminders(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseUUID(c)
	if err != nil {
		return err
	}
	reminders, err := h.svc.ListReminders(c.Request().Context(), userID, id)
	if err != nil {
		return httpError(err)
	}
	if reminders == nil {
		reminders = []*ReminderTime{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"reminders": reminders})
}

func (h *Handler) DeleteReminder(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseUUID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteReminder(c.Request().Context(), userID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Medication logs --

func (h *Handler) LogEvent(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseUUID(c)
	if err != nil {
		return err
	}
	var l MedicationLog
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l.ID = uuid.Nil
	l.ScheduleID = id
	if err := h.svc.LogEvent(c.Request().Context(), userID, &l); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, l)
}

func logLimit(c echo.Context) int {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return limit
}

func (h *Handler) ListScheduleLogs(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseUUID(c)
	if err != nil {
		return err
	}
	logs, err := h.svc.GetLogsForSchedule(c.Request().Context(), userID, id, logLimit(c))
	if err != nil {
		return httpError(err)
	}
	if logs == nil {
		logs = []*MedicationLog{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"logs": logs})
}

func (h *Handler) ListUserLogs(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	logs, err := h.svc.GetLogsForUser(c.Request().Context(), userID, logLimit(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if logs == nil {
		logs = []*MedicationLog{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"logs": logs})
}

type notesRequest struct {
	Notes *string `json:"notes"`
}

func (h *Handler) UpdateLogNotes(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := parseUUID(c)
	if err != nil {
		return err
	}
	var req notesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateLogNotes(c.Request().Context(), userID, id, req.Notes); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
