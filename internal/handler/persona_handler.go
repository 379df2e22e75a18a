package handler

import (
	"net/http"

	"ai-mentor-go/internal/model"
	"ai-mentor-go/internal/service"

	"github.com/gin-gonic/gin"
)

// PersonaHandler 处理与画像相关的 API 请求。
// 读取走套餐可见性策略，创建与头像上传仅限管理员。
type PersonaHandler struct {
	access  service.AccessService
	service service.PersonaService
}

// NewPersonaHandler 创建一个新的 PersonaHandler。
func NewPersonaHandler(access service.AccessService, personaService service.PersonaService) *PersonaHandler {
	return &PersonaHandler{access: access, service: personaService}
}

// List 返回当前用户可见的画像列表。
func (h *PersonaHandler) List(c *gin.Context) {
	personas, err := h.access.VisiblePersonas(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]model.PersonaBasic, 0, len(personas))
	for i := range personas {
		views = append(views, personas[i].Basic())
	}
	respondOK(c, views)
}

// Get 返回单个画像，套餐不可见时返回 402。
func (h *PersonaHandler) Get(c *gin.Context) {
	persona, err := h.access.GetPersona(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, persona.Basic())
}

// Create 创建一个新画像。仅限管理员。
func (h *PersonaHandler) Create(c *gin.Context) {
	var input service.CreatePersonaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "请求参数不合法: " + err.Error(),
			"data":    nil,
		})
		return
	}

	persona, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, persona)
}

// UploadAvatar 接收 multipart 头像文件并上传到对象存储。仅限管理员。
func (h *PersonaHandler) UploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少头像文件",
			"data":    nil,
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	avatarURL, err := h.service.UploadAvatar(
		c.Request.Context(),
		c.Param("id"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
		fileHeader.Size,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"avatar_url": avatarURL})
}
