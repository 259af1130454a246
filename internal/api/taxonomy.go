package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/knoweat/backend/internal/taxonomy"
	"github.com/pageza/knoweat/backend/internal/types"
)

// TaxonomyHandler serves the restriction catalogs. The response never changes at runtime,
// so it is built once.
type TaxonomyHandler struct {
	response types.TaxonomyResponse
}

func NewTaxonomyHandler(tax *taxonomy.Taxonomy) *TaxonomyHandler {
	if tax == nil {
		tax = taxonomy.Default()
	}
	resp := types.TaxonomyResponse{
		Categories:    make([]types.TaxonomyCategory, 0, len(taxonomy.Categories)),
		CategoryIcons: append([]string{}, taxonomy.CategoryIcons...),
		Languages:     append([]string{}, taxonomy.SupportedLanguages...),
	}
	for _, c := range taxonomy.Categories {
		resp.Categories = append(resp.Categories, types.TaxonomyCategory{
			Category:    c,
			ProfileKey:  c.ProfileKey(),
			Title:       c.Title(),
			Description: c.Description(),
			Icon:        c.Icon(),
			Tags:        tax.Catalog(c),
		})
	}
	return &TaxonomyHandler{response: resp}
}

func (h *TaxonomyHandler) Get(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, h.response)
}
