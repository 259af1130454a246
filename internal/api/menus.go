package api

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/knoweat/backend/internal/matcher"
	"github.com/pageza/knoweat/backend/internal/service"
	"github.com/pageza/knoweat/backend/internal/types"
)

const (
	maxPhotos     = 10
	maxPhotoBytes = 20 << 20
)

// MenuHandler serves menu analysis and the scan history.
type MenuHandler struct {
	menus service.IMenuService
}

func NewMenuHandler(menus service.IMenuService) *MenuHandler {
	return &MenuHandler{menus: menus}
}

// Analyze reads a menu from multipart photos (images[]) or a JSON body and grades it.
// Nothing is saved.
func (h *MenuHandler) Analyze(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	var (
		in  service.AnalyzeInput
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		in, err = readMultipartAnalysis(c)
	} else {
		in, err = readJSONAnalysis(c)
	}
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	analysis, err := h.menus.Analyze(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func readMultipartAnalysis(c *gin.Context) (service.AnalyzeInput, error) {
	in := service.AnalyzeInput{
		Text:     c.PostForm("text"),
		Language: c.PostForm("language"),
	}
	form, err := c.MultipartForm()
	if err != nil {
		return in, fmt.Errorf("invalid multipart form: %w", err)
	}
	files := form.File["images[]"]
	if len(files) == 0 {
		files = form.File["images"]
	}
	if len(files) > maxPhotos {
		return in, fmt.Errorf("at most %d photos per menu", maxPhotos)
	}
	for i, fh := range files {
		if fh.Size > maxPhotoBytes {
			return in, fmt.Errorf("photo %d is larger than %d MB", i+1, maxPhotoBytes>>20)
		}
		f, err := fh.Open()
		if err != nil {
			return in, fmt.Errorf("failed to read photo %d: %w", i+1, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes))
		_ = f.Close()
		if err != nil {
			return in, fmt.Errorf("failed to read photo %d: %w", i+1, err)
		}
		in.Images = append(in.Images, data)
	}
	return in, nil
}

func readJSONAnalysis(c *gin.Context) (service.AnalyzeInput, error) {
	var req types.AnalyzeMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return service.AnalyzeInput{}, fmt.Errorf("invalid request body: %w", err)
	}
	if len(req.Images) > maxPhotos {
		return service.AnalyzeInput{}, fmt.Errorf("at most %d photos per menu", maxPhotos)
	}
	in := service.AnalyzeInput{Text: req.Text, Language: req.Language}
	for i, s := range req.Images {
		// Accept data URIs as well as bare base64.
		if comma := strings.IndexByte(s, ','); strings.HasPrefix(s, "data:") && comma > 0 {
			s = s[comma+1:]
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return service.AnalyzeInput{}, fmt.Errorf("photo %d is not valid base64", i+1)
		}
		in.Images = append(in.Images, data)
	}
	return in, nil
}

// Save adds an analyzed menu to the history.
func (h *MenuHandler) Save(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	var req types.SaveMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.Menu.Dishes) == 0 {
		badRequest(c, "menu has no dishes")
		return
	}

	analysis, err := h.menus.Save(c.Request.Context(), id, &req.Menu, req.Restaurant)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, analysis)
}

func (h *MenuHandler) List(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, types.MenuListResponse{Menus: h.menus.List(c.Request.Context(), id)})
}

// Get returns one saved menu. The dish list can be narrowed with category, q and safeOnly,
// and grouped by section with group=true.
func (h *MenuHandler) Get(c *gin.Context) {
	id, menuID, ok := menuParams(c)
	if !ok {
		return
	}

	analysis, err := h.menus.Get(c.Request.Context(), id, menuID)
	if err != nil {
		respondError(c, err)
		return
	}

	safeOnly, _ := strconv.ParseBool(c.Query("safeOnly"))
	analysis.Dishes = matcher.Filter(analysis.Dishes, matcher.FilterOptions{
		Category: c.Query("category"),
		Query:    c.Query("q"),
		SafeOnly: safeOnly,
	})
	if group, _ := strconv.ParseBool(c.Query("group")); group {
		analysis.Groups = matcher.GroupByCategory(analysis.Dishes)
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *MenuHandler) Rename(c *gin.Context) {
	id, menuID, ok := menuParams(c)
	if !ok {
		return
	}

	var req types.RenameMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "restaurant is required")
		return
	}

	analysis, err := h.menus.Rename(c.Request.Context(), id, menuID, req.Restaurant)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *MenuHandler) Retranslate(c *gin.Context) {
	id, menuID, ok := menuParams(c)
	if !ok {
		return
	}

	var req types.RetranslateMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.TargetLanguage) == "" {
		badRequest(c, "targetLanguage is required")
		return
	}

	analysis, err := h.menus.Retranslate(c.Request.Context(), id, menuID, req.TargetLanguage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *MenuHandler) Delete(c *gin.Context) {
	id, menuID, ok := menuParams(c)
	if !ok {
		return
	}
	if err := h.menus.Delete(c.Request.Context(), id, menuID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MenuHandler) DeleteAll(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	n, err := h.menus.DeleteAll(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func menuParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, ok := deviceID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	menuID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid menu id")
		return uuid.Nil, uuid.Nil, false
	}
	return id, menuID, true
}
