package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"taskhive.org/internal/catalog"
)

type createCategoryRequest struct {
	Name string `json:"name"`
}

type productRequest struct {
	Name        string  `json:"name"`
	PriceMinor  int64   `json:"price_minor"`
	Description *string `json:"description"`
	CategoryID  int64   `json:"category_id"`
}

func (req productRequest) input() catalog.ProductInput {
	return catalog.ProductInput{
		Name:        req.Name,
		PriceMinor:  req.PriceMinor,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}
}

func (a *API) handleCategoriesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listCategories(w, r)
	case http.MethodPost:
		a.createCategory(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCategoryResource(w http.ResponseWriter, r *http.Request) {
	id, ok := a.resourceID(w, r, "/v1/categories/")
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodDelete:
		a.deleteCategory(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodDelete)
	}
}

func (a *API) handleProductsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listProducts(w, r)
	case http.MethodPost:
		a.createProduct(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProductResource(w http.ResponseWriter, r *http.Request) {
	id, ok := a.resourceID(w, r, "/v1/products/")
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getProduct(w, r, id)
	case http.MethodPut:
		a.updateProduct(w, r, id)
	case http.MethodDelete:
		a.deleteProduct(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) resourceID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return 0, false
	}
	return id, true
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.principal(w, r); !ok {
		return
	}
	items, err := a.catalog.ListCategories(r.Context())
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	if items == nil {
		items = []*catalog.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) {
	uid, ok := a.principal(w, r)
	if !ok {
		return
	}
	if !a.catalog.Policy().Allows(uid, catalog.ActionCreate, nil) {
		writeError(w, r, http.StatusForbidden, "not allowed")
		return
	}

	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	c, err := a.catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	a.audit(r.Context(), "catalog.category.create", "category", strconv.FormatInt(c.ID, 10), map[string]string{
		"name": c.Name,
	})
	w.Header().Set("Location", "/v1/categories/"+strconv.FormatInt(c.ID, 10))
	writeJSON(w, http.StatusCreated, c)
}

// deleteCategory removes the category and, through the store cascade,
// every product filed under it.
func (a *API) deleteCategory(w http.ResponseWriter, r *http.Request, id int64) {
	uid, ok := a.principal(w, r)
	if !ok {
		return
	}
	if !a.catalog.Policy().Allows(uid, catalog.ActionDelete, nil) {
		writeError(w, r, http.StatusForbidden, "not allowed")
		return
	}

	if err := a.catalog.DeleteCategory(r.Context(), id); err != nil {
		handleCatalogError(w, r, err)
		return
	}

	a.audit(r.Context(), "catalog.category.delete", "category", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.principal(w, r); !ok {
		return
	}
	items, err := a.catalog.ListProducts(r.Context())
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	if items == nil {
		items = []*catalog.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	uid, ok := a.principal(w, r)
	if !ok {
		return
	}
	if !a.catalog.Policy().Allows(uid, catalog.ActionCreate, nil) {
		writeError(w, r, http.StatusForbidden, "not allowed")
		return
	}

	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p, err := a.catalog.CreateProduct(r.Context(), req.input())
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	a.audit(r.Context(), "catalog.product.create", "product", strconv.FormatInt(p.ID, 10), map[string]string{
		"name":        p.Name,
		"price_minor": strconv.FormatInt(p.PriceMinor, 10),
	})
	w.Header().Set("Location", "/v1/products/"+strconv.FormatInt(p.ID, 10))
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.principal(w, r); !ok {
		return
	}
	p, err := a.catalog.FindProduct(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) updateProduct(w http.ResponseWriter, r *http.Request, id int64) {
	uid, ok := a.principal(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := a.catalog.FindProduct(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	if !a.catalog.Policy().Allows(uid, catalog.ActionUpdate, existing) {
		writeError(w, r, http.StatusForbidden, "not allowed")
		return
	}

	p, err := a.catalog.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	a.audit(r.Context(), "catalog.product.update", "product", strconv.FormatInt(p.ID, 10), map[string]string{
		"name": p.Name,
	})
	writeJSON(w, http.StatusOK, p)
}

func (a *API) deleteProduct(w http.ResponseWriter, r *http.Request, id int64) {
	uid, ok := a.principal(w, r)
	if !ok {
		return
	}

	existing, err := a.catalog.FindProduct(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	if !a.catalog.Policy().Allows(uid, catalog.ActionDelete, existing) {
		writeError(w, r, http.StatusForbidden, "not allowed")
		return
	}

	if err := a.catalog.DeleteProduct(r.Context(), id); err != nil {
		handleCatalogError(w, r, err)
		return
	}

	a.audit(r.Context(), "catalog.product.delete", "product", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

func handleCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "catalog operation failed")
	}
}
