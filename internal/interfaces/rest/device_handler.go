package rest

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nimbuscrm/backend/internal/application/services"
	"github.com/nimbuscrm/backend/internal/domain/models"
)

// DeviceHandler serves device templates, previews, drafts, and devices.
type DeviceHandler struct {
	svc *services.ServiceManager
}

func NewDeviceHandler(svc *services.ServiceManager) *DeviceHandler {
	return &DeviceHandler{svc: svc}
}

// --- Templates ---

func (h *DeviceHandler) ListTemplates(c *gin.Context) {
	HandleGetEnvelope(c, "templates", func() (interface{}, error) {
		return h.svc.Templates.ListTemplates(c.Request.Context(), GetTenantID(c), c.Query("q"))
	})
}

func (h *DeviceHandler) GetTemplate(c *gin.Context) {
	HandleGetEnvelope(c, "template", func() (interface{}, error) {
		return h.svc.Templates.GetTemplate(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

func (h *DeviceHandler) CreateTemplate(c *gin.Context) {
	var body models.DeviceTemplate
	if !BindJSON(c, &body) {
		return
	}
	HandleCreateEnvelope(c, "template", "Template created", func() (interface{}, error) {
		return h.svc.Templates.CreateTemplate(c.Request.Context(), GetTenantID(c), &body)
	})
}

func (h *DeviceHandler) UpdateTemplate(c *gin.Context) {
	var body models.DeviceTemplate
	if !BindJSON(c, &body) {
		return
	}
	HandleUpdateEnvelope(c, "template", "Template updated", func() (interface{}, error) {
		return h.svc.Templates.UpdateTemplate(c.Request.Context(), GetTenantID(c), c.Param("id"), &body)
	})
}

func (h *DeviceHandler) DeleteTemplate(c *gin.Context) {
	HandleDeleteEnvelope(c, "Template deleted", func() error {
		return h.svc.Templates.DeleteTemplate(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

type PreviewRequest struct {
	Values map[string]string `json:"values"`
}

// Preview handles POST /api/templates/:id/preview
func (h *DeviceHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "preview", func() (interface{}, error) {
		return h.svc.Templates.Preview(c.Request.Context(), GetTenantID(c), c.Param("id"), req.Values)
	})
}

// --- Drafts ---

type SaveDraftRequest struct {
	Payload   string     `json:"payload" binding:"required"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// SaveDraft handles PUT /api/templates/:id/draft. A stale write returns
// the stored draft with saved=false so the client can reconcile.
func (h *DeviceHandler) SaveDraft(c *gin.Context) {
	var req SaveDraftRequest
	if !BindJSON(c, &req) {
		return
	}
	user := GetUserFromContext(c)

	var updatedAt time.Time
	if req.UpdatedAt != nil {
		updatedAt = *req.UpdatedAt
	}

	draft, saved, err := h.svc.Templates.SaveDraft(c.Request.Context(), GetTenantID(c), user.ID, c.Param("id"), req.Payload, updatedAt)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(200, gin.H{"draft": draft, "saved": saved})
}

func (h *DeviceHandler) GetDraft(c *gin.Context) {
	user := GetUserFromContext(c)
	HandleGetEnvelope(c, "draft", func() (interface{}, error) {
		return h.svc.Templates.GetDraft(c.Request.Context(), GetTenantID(c), user.ID, c.Param("id"))
	})
}

func (h *DeviceHandler) DiscardDraft(c *gin.Context) {
	user := GetUserFromContext(c)
	HandleDeleteEnvelope(c, "Draft discarded", func() error {
		return h.svc.Templates.DiscardDraft(c.Request.Context(), GetTenantID(c), user.ID, c.Param("id"))
	})
}

// --- Devices ---

func (h *DeviceHandler) ListDevices(c *gin.Context) {
	HandleGetEnvelope(c, "devices", func() (interface{}, error) {
		return h.svc.Devices.ListDevices(c.Request.Context(), GetTenantID(c), c.Query("template_id"), c.Query("q"))
	})
}

func (h *DeviceHandler) GetDevice(c *gin.Context) {
	HandleGetEnvelope(c, "device", func() (interface{}, error) {
		return h.svc.Devices.GetDevice(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var body models.Device
	if !BindJSON(c, &body) {
		return
	}
	HandleCreateEnvelope(c, "device", "Device created", func() (interface{}, error) {
		return h.svc.Devices.CreateDevice(c.Request.Context(), GetTenantID(c), &body)
	})
}

type UpdateDeviceRequest struct {
	Values map[string]string `json:"values" binding:"required"`
}

func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	var req UpdateDeviceRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleUpdateEnvelope(c, "device", "Device updated", func() (interface{}, error) {
		return h.svc.Devices.UpdateDevice(c.Request.Context(), GetTenantID(c), c.Param("id"), req.Values)
	})
}

func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	HandleDeleteEnvelope(c, "Device deleted", func() error {
		return h.svc.Devices.DeleteDevice(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}
